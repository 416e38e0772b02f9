package domain

import "time"

// Group members keep insertion order for display; membership is a set.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasMember reports whether username belongs to the group.
func (g *Group) HasMember(username string) bool {
	for _, m := range g.Members {
		if m == username {
			return true
		}
	}
	return false
}

// CreateGroupRequest is the body of POST /api/groups.
type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// AddMembersRequest is the body of POST /api/groups/:id/add-members.
type AddMembersRequest struct {
	NewMembers []string `json:"newMembers"`
}
