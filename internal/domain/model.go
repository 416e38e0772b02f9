package domain

import (
	"time"

	"github.com/weiawesome/duochat/pkg/database"
)

// UserModel is the GORM model for users table.
type UserModel struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Bio          string    `gorm:"type:text"`
	AvatarURL    string    `gorm:"type:varchar(512)"`
	AvatarKey    string    `gorm:"type:varchar(255)"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToDomain() *User {
	return &User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Bio:          m.Bio,
		AvatarURL:    m.AvatarURL,
		AvatarKey:    m.AvatarKey,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Bio:          u.Bio,
		AvatarURL:    u.AvatarURL,
		AvatarKey:    u.AvatarKey,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// MessageModel is the GORM model for messages table. Receiver and GroupID
// are nullable so that exactly one of them is set per row.
type MessageModel struct {
	ID        string    `gorm:"type:varchar(26);primaryKey"`
	Sender    string    `gorm:"type:varchar(50);index;not null"`
	Receiver  *string   `gorm:"type:varchar(50);index"`
	GroupID   *string   `gorm:"type:varchar(36);index"`
	Text      string    `gorm:"type:text"`
	FileURL   string    `gorm:"type:varchar(512)"`
	FileName  string    `gorm:"type:varchar(255)"`
	FileType  string    `gorm:"type:varchar(128)"`
	FileSize  int64
	Timestamp time.Time `gorm:"column:sent_at;index;not null"`
}

func (MessageModel) TableName() string {
	return "messages"
}

func (m *MessageModel) ToDomain() *Message {
	msg := &Message{
		ID:        m.ID,
		Sender:    m.Sender,
		Text:      m.Text,
		Timestamp: m.Timestamp.UTC(),
	}
	if m.Receiver != nil {
		msg.Receiver = *m.Receiver
	}
	if m.GroupID != nil {
		msg.GroupID = *m.GroupID
	}
	if m.FileURL != "" {
		msg.File = &File{URL: m.FileURL, Name: m.FileName, Type: m.FileType, Size: m.FileSize}
	}
	return msg
}

func MessageToModel(m *Message) *MessageModel {
	model := &MessageModel{
		ID:        m.ID,
		Sender:    m.Sender,
		Text:      m.Text,
		Timestamp: m.Timestamp,
	}
	if m.Receiver != "" {
		receiver := m.Receiver
		model.Receiver = &receiver
	}
	if m.GroupID != "" {
		groupID := m.GroupID
		model.GroupID = &groupID
	}
	if m.File != nil {
		model.FileURL = m.File.URL
		model.FileName = m.File.Name
		model.FileType = m.File.Type
		model.FileSize = m.File.Size
	}
	return model
}

// GroupModel is the GORM model for groups table.
type GroupModel struct {
	ID        string               `gorm:"type:varchar(36);primaryKey"`
	Name      string               `gorm:"type:varchar(100);not null"`
	Members   database.StringArray `gorm:"type:text;not null"`
	CreatedBy string               `gorm:"type:varchar(50);not null"`
	CreatedAt time.Time            `gorm:"autoCreateTime"`
}

func (GroupModel) TableName() string {
	return "chat_groups"
}

func (m *GroupModel) ToDomain() *Group {
	return &Group{
		ID:        m.ID,
		Name:      m.Name,
		Members:   append([]string(nil), m.Members...),
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}

func GroupToModel(g *Group) *GroupModel {
	return &GroupModel{
		ID:        g.ID,
		Name:      g.Name,
		Members:   database.StringArray(g.Members),
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
	}
}

// Models lists every table for auto-migration.
func Models() []interface{} {
	return []interface{}{&UserModel{}, &MessageModel{}, &GroupModel{}}
}
