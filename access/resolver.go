package access

import (
	_ "embed"
	"sort"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/jrsteele09/kpoint-gateway/internal/utils"
	"github.com/jrsteele09/kpoint-gateway/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

//go:embed assignments.yaml
var seedAssignments []byte

// DefaultActiveUser is the impersonated user after seeding.
const DefaultActiveUser = "user-001"

// Assignment records who a template was published to. There is at most one
// per template id.
type Assignment struct {
	TemplateID  string    `json:"template_id" yaml:"template_id"`
	UserIDs     []string  `json:"user_ids" yaml:"user_ids"`
	GroupIDs    []string  `json:"group_ids" yaml:"group_ids"`
	PublishedBy string    `json:"published_by" yaml:"published_by"`
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`
}

func (a Assignment) clone() Assignment {
	a.UserIDs = append([]string{}, a.UserIDs...)
	a.GroupIDs = append([]string{}, a.GroupIDs...)
	return a
}

// Resolver decides which templates a user may see: a template is visible
// when the user is named directly or belongs to a named group.
type Resolver struct {
	directory   users.Directory
	assignments map[string]Assignment
	activeUser  string
	nowFunc     func() time.Time
	lock        sync.RWMutex
}

type ResolverOption func(*Resolver)

func WithNowFunc(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.nowFunc = now
	}
}

// NewResolver returns a resolver with no assignments and no active user.
func NewResolver(directory users.Directory, options ...ResolverOption) *Resolver {
	r := &Resolver{
		directory:   directory,
		assignments: make(map[string]Assignment),
	}
	for _, opt := range options {
		opt(r)
	}
	if r.nowFunc == nil {
		r.nowFunc = time.Now
	}
	return r
}

// NewSeededResolver loads the demo assignments and impersonates user-001.
func NewSeededResolver(directory users.Directory, options ...ResolverOption) (*Resolver, error) {
	r := NewResolver(directory, options...)
	if err := r.Load(seedAssignments); err != nil {
		return nil, err
	}
	r.activeUser = DefaultActiveUser
	return r, nil
}

// Load replaces the assignments named in a YAML document.
func (r *Resolver) Load(data []byte) error {
	var seed struct {
		Assignments []Assignment `yaml:"assignments"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "Resolver.Load yaml.Unmarshal")
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	for _, a := range seed.Assignments {
		a.UserIDs = utils.Dedupe(a.UserIDs)
		a.GroupIDs = utils.Dedupe(a.GroupIDs)
		r.assignments[a.TemplateID] = a
	}
	return nil
}

// TemplatesVisibleTo returns the sorted ids of every template assigned to
// userID directly or through one of their groups. Unknown users see
// nothing.
func (r *Resolver) TemplatesVisibleTo(userID string) []string {
	visible := []string{}
	user, err := r.directory.GetUser(userID)
	if err != nil {
		return visible
	}

	r.lock.RLock()
	defer r.lock.RUnlock()
	for id, a := range r.assignments {
		if contains(a.UserIDs, userID) || user.InAnyGroup(a.GroupIDs) {
			visible = append(visible, id)
		}
	}
	sort.Strings(visible)
	return visible
}

// IsVisibleTo reports whether templateID is visible to userID.
func (r *Resolver) IsVisibleTo(templateID, userID string) bool {
	for _, id := range r.TemplatesVisibleTo(userID) {
		if id == templateID {
			return true
		}
	}
	return false
}

// Assign publishes templateID to the given users and groups, replacing any
// earlier assignment of the same template. Ids are not checked against the
// directory.
func (r *Resolver) Assign(templateID string, userIDs, groupIDs []string, publishedBy string) Assignment {
	a := Assignment{
		TemplateID:  templateID,
		UserIDs:     utils.Dedupe(userIDs),
		GroupIDs:    utils.Dedupe(groupIDs),
		PublishedBy: publishedBy,
		PublishedAt: r.nowFunc(),
	}

	r.lock.Lock()
	r.assignments[templateID] = a
	r.lock.Unlock()

	log.Info().Str("template_id", templateID).Strs("users", a.UserIDs).Strs("groups", a.GroupIDs).
		Str("published_by", publishedBy).Msg("template assigned")
	return a.clone()
}

// Unpublish drops the assignment of templateID. It reports whether one
// existed.
func (r *Resolver) Unpublish(templateID string) bool {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.assignments[templateID]; !ok {
		return false
	}
	delete(r.assignments, templateID)
	return true
}

func (r *Resolver) Assignment(templateID string) (Assignment, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	a, ok := r.assignments[templateID]
	if !ok {
		return Assignment{}, false
	}
	return a.clone(), true
}

// Assignments lists every assignment ordered by template id.
func (r *Resolver) Assignments() []Assignment {
	r.lock.RLock()
	out := make([]Assignment, 0, len(r.assignments))
	for _, a := range r.assignments {
		out = append(out, a.clone())
	}
	r.lock.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].TemplateID < out[j].TemplateID })
	return out
}

// AssignmentsFor resolves the recipients of templateID against the
// directory. Ids the directory does not know are skipped.
func (r *Resolver) AssignmentsFor(templateID string) ([]*users.User, []*users.Group) {
	resolvedUsers := []*users.User{}
	resolvedGroups := []*users.Group{}

	a, ok := r.Assignment(templateID)
	if !ok {
		return resolvedUsers, resolvedGroups
	}
	for _, id := range a.UserIDs {
		if u, err := r.directory.GetUser(id); err == nil {
			resolvedUsers = append(resolvedUsers, u)
		}
	}
	for _, id := range a.GroupIDs {
		if g, err := r.directory.GetGroup(id); err == nil {
			resolvedGroups = append(resolvedGroups, g)
		}
	}
	return resolvedUsers, resolvedGroups
}

// SetActiveUser switches the impersonated user.
func (r *Resolver) SetActiveUser(userID string) (*users.User, error) {
	u, err := r.directory.GetUser(userID)
	if err != nil {
		return nil, err
	}

	r.lock.Lock()
	r.activeUser = userID
	r.lock.Unlock()
	return u, nil
}

// ActiveUser returns the impersonated user, if any.
func (r *Resolver) ActiveUser() (*users.User, bool) {
	r.lock.RLock()
	id := r.activeUser
	r.lock.RUnlock()

	if id == "" {
		return nil, false
	}
	u, err := r.directory.GetUser(id)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			log.Error().Err(err).Str("user_id", id).Msg("active user lookup failed")
		}
		return nil, false
	}
	return u, true
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
