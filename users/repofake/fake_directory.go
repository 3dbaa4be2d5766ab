package fakeuserrepo

import (
	_ "embed"
	"sort"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/jrsteele09/kpoint-gateway/users"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed directory.yaml
var seedDirectory []byte

var _ users.Directory = (*FakeDirectory)(nil)

type FakeDirectory struct {
	users  map[string]*users.User
	groups map[string]*users.Group
	lock   sync.RWMutex
}

type seedFile struct {
	Users  []*users.User  `yaml:"users"`
	Groups []*users.Group `yaml:"groups"`
}

// NewFakeDirectory returns an empty directory.
func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{
		users:  make(map[string]*users.User),
		groups: make(map[string]*users.Group),
	}
}

// NewSeededDirectory returns a directory holding the demo agents and groups.
func NewSeededDirectory() (*FakeDirectory, error) {
	d := NewFakeDirectory()
	if err := d.Load(seedDirectory); err != nil {
		return nil, err
	}
	return d, nil
}

// Load upserts every user and group found in a YAML document.
func (d *FakeDirectory) Load(data []byte) error {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "FakeDirectory.Load yaml.Unmarshal")
	}
	for _, g := range seed.Groups {
		if err := d.UpsertGroup(g); err != nil {
			return err
		}
	}
	for _, u := range seed.Users {
		if err := d.UpsertUser(u); err != nil {
			return err
		}
	}
	return nil
}

func (d *FakeDirectory) UpsertUser(user *users.User) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Status == "" {
		user.Status = users.StatusActive
	}
	d.users[user.ID] = user
	return nil
}

func (d *FakeDirectory) UpsertGroup(group *users.Group) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	d.groups[group.ID] = group
	return nil
}

func (d *FakeDirectory) GetUser(id string) (*users.User, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	c := *u
	return &c, nil
}

func (d *FakeDirectory) GetGroup(id string) (*users.Group, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	g, ok := d.groups[id]
	if !ok {
		return nil, apperrors.NotFound("group", id)
	}
	c := *g
	return &c, nil
}

// ListUsers returns every user ordered by ID.
func (d *FakeDirectory) ListUsers() ([]*users.User, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	list := make([]*users.User, 0, len(d.users))
	for _, u := range d.users {
		c := *u
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// ListGroups returns every group ordered by ID.
func (d *FakeDirectory) ListGroups() ([]*users.Group, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	list := make([]*users.Group, 0, len(d.groups))
	for _, g := range d.groups {
		c := *g
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (d *FakeDirectory) UsersInGroup(groupID string) ([]*users.User, error) {
	all, err := d.ListUsers()
	if err != nil {
		return nil, err
	}
	members := make([]*users.User, 0)
	for _, u := range all {
		if u.InGroup(groupID) {
			members = append(members, u)
		}
	}
	return members, nil
}
