package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/pkg/database"
	"github.com/weiawesome/duochat/pkg/idgen"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: ":memory:"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.AutoMigrate(db, domain.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	return db
}

func TestUserRepository_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(newTestDB(t))

	alice := &domain.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	if err := repo.Create(ctx, alice); err != nil {
		t.Fatalf("create alice: %v", err)
	}
	if alice.ID == "" || alice.CreatedAt.IsZero() {
		t.Fatalf("create did not populate id/created_at: %+v", alice)
	}

	err := repo.Create(ctx, &domain.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "x"})
	if !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("duplicate email: got %v, want ErrEmailExists", err)
	}
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate email should be a conflict, got %v", err)
	}

	err = repo.Create(ctx, &domain.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
	if !errors.Is(err, domain.ErrUsernameExists) {
		t.Fatalf("duplicate username: got %v, want ErrUsernameExists", err)
	}

	if _, err := repo.GetByUsername(ctx, "nobody"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("GetByUsername(nobody) = %v, want ErrUserNotFound", err)
	}
	ok, err := repo.Exists(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("Exists(alice) = %v, %v", ok, err)
	}
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(newTestDB(t))

	u := &domain.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	u.Bio = "hello"
	u.AvatarURL = "/uploads/avatars/bob.png"
	if err := repo.UpdateProfile(ctx, u); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	got, err := repo.GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got.Bio != "hello" || got.AvatarURL != "/uploads/avatars/bob.png" {
		t.Fatalf("profile not persisted: %+v", got)
	}

	missing := &domain.User{Username: "ghost"}
	if err := repo.UpdateProfile(ctx, missing); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("UpdateProfile(ghost) = %v, want ErrUserNotFound", err)
	}
}

func TestMessageRepository_HistoryOrderAndScope(t *testing.T) {
	ctx := context.Background()
	repo := NewGormMessageRepository(newTestDB(t), idgen.NewULIDGenerator())

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	repo.clock = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	send := func(m domain.Message) *domain.Message {
		t.Helper()
		if err := repo.Create(ctx, &m); err != nil {
			t.Fatalf("create: %v", err)
		}
		return &m
	}

	m1 := send(domain.Message{Sender: "alice", Receiver: "bob", Text: "hi"})
	send(domain.Message{Sender: "carol", Receiver: "dave", Text: "unrelated"})
	m3 := send(domain.Message{Sender: "bob", Receiver: "alice", Text: "hey"})
	g1 := send(domain.Message{Sender: "alice", GroupID: "g1", Text: "team"})

	direct, err := repo.ListDirect(ctx, "bob")
	if err != nil {
		t.Fatalf("ListDirect: %v", err)
	}
	if len(direct) != 2 || direct[0].ID != m1.ID || direct[1].ID != m3.ID {
		t.Fatalf("ListDirect(bob) = %+v, want [%s %s]", direct, m1.ID, m3.ID)
	}
	if direct[0].File != nil {
		t.Fatalf("text message should have no file: %+v", direct[0].File)
	}

	group, err := repo.ListByGroups(ctx, "g1")
	if err != nil {
		t.Fatalf("ListByGroups: %v", err)
	}
	if len(group) != 1 || group[0].ID != g1.ID || group[0].Receiver != "" {
		t.Fatalf("ListByGroups(g1) = %+v", group)
	}

	none, err := repo.ListByGroups(ctx)
	if err != nil || len(none) != 0 {
		t.Fatalf("ListByGroups() = %v, %v", none, err)
	}
}

func TestMessageRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewGormMessageRepository(newTestDB(t), idgen.NewULIDGenerator())

	m := &domain.Message{
		Sender:   "alice",
		Receiver: "bob",
		File:     &domain.File{URL: "/uploads/a.pdf", Name: "a.pdf", Type: "application/pdf", Size: 42},
	}
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.File == nil || got.File.Size != 42 || got.File.Name != "a.pdf" {
		t.Fatalf("file not round-tripped: %+v", got.File)
	}

	if err := repo.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, m.ID); !errors.Is(err, domain.ErrMessageNotFound) {
		t.Fatalf("GetByID after delete = %v, want ErrMessageNotFound", err)
	}
	if err := repo.Delete(ctx, m.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second Delete = %v, want not found", err)
	}
}

func TestGroupRepository_MembershipAndUnion(t *testing.T) {
	ctx := context.Background()
	repo := NewGormGroupRepository(newTestDB(t))

	team := &domain.Group{Name: "team", Members: []string{"alice", "bob"}, CreatedBy: "alice"}
	if err := repo.Create(ctx, team); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := &domain.Group{Name: "other", Members: []string{"alice2"}, CreatedBy: "alice2"}
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}

	groups, err := repo.ListByMember(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByMember: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != team.ID {
		t.Fatalf("ListByMember(alice) = %+v, want only team", groups)
	}

	updated, err := repo.AddMembers(ctx, team.ID, []string{"bob", "carol", "carol"})
	if err != nil {
		t.Fatalf("AddMembers: %v", err)
	}
	want := []string{"alice", "bob", "carol"}
	if len(updated.Members) != len(want) {
		t.Fatalf("members = %v, want %v", updated.Members, want)
	}
	for i := range want {
		if updated.Members[i] != want[i] {
			t.Fatalf("members = %v, want %v", updated.Members, want)
		}
	}

	again, err := repo.AddMembers(ctx, team.ID, []string{"alice"})
	if err != nil {
		t.Fatalf("AddMembers existing: %v", err)
	}
	if len(again.Members) != 3 {
		t.Fatalf("adding an existing member changed the set: %v", again.Members)
	}

	if _, err := repo.AddMembers(ctx, "missing", []string{"x"}); !errors.Is(err, domain.ErrGroupNotFound) {
		t.Fatalf("AddMembers(missing) = %v, want ErrGroupNotFound", err)
	}
}
