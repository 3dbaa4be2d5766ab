package users

// Directory is the read side of the user and group store used by the
// access resolver and the admin console.
type Directory interface {
	UpsertUser(user *User) error
	UpsertGroup(group *Group) error
	GetUser(id string) (*User, error)
	GetGroup(id string) (*Group, error)
	ListUsers() ([]*User, error)
	ListGroups() ([]*Group, error)
	UsersInGroup(groupID string) ([]*User, error)
}
