package users

import "time"

// RoleType is the console role of a directory user.
type RoleType string

const (
	RoleAdmin RoleType = "admin" // Browses videos and publishes templates
	RoleAgent RoleType = "agent" // Partner who personalizes and shares templates
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type User struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Role      RoleType  `json:"role" yaml:"role"`
	GroupIDs  []string  `json:"group_ids" yaml:"group_ids"`
	Avatar    string    `json:"avatar,omitempty" yaml:"avatar"`
	Status    Status    `json:"status" yaml:"status"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

type Group struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	MemberCount int       `json:"user_count" yaml:"user_count"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// InGroup reports whether the user belongs to groupID.
func (u *User) InGroup(groupID string) bool {
	for _, g := range u.GroupIDs {
		if g == groupID {
			return true
		}
	}
	return false
}

// InAnyGroup reports whether the user belongs to at least one of groupIDs.
func (u *User) InAnyGroup(groupIDs []string) bool {
	for _, g := range groupIDs {
		if u.InGroup(g) {
			return true
		}
	}
	return false
}
