// Package console orchestrates the admin and partner operations of the
// gateway over a catalog store, the access resolver and the user directory.
package console

import (
	"context"

	"github.com/jrsteele09/kpoint-gateway/access"
	"github.com/jrsteele09/kpoint-gateway/catalog"
	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/jrsteele09/kpoint-gateway/playlink"
	"github.com/jrsteele09/kpoint-gateway/users"
	"github.com/rs/zerolog/log"
)

// DefaultPublisher is recorded on assignments when the caller names nobody.
const DefaultPublisher = "admin-001"

// TokenChecker acquires the upstream credential. bearer.Manager implements
// it.
type TokenChecker interface {
	GetToken(ctx context.Context) (string, error)
}

// Settings is the non-secret view of the running configuration.
type Settings struct {
	MockMode      bool   `json:"mockMode"`
	AuthMode      string `json:"authMode"`
	BaseURL       string `json:"baseUrl"`
	APIVersion    string `json:"apiVersion"`
	PlayerBaseURL string `json:"playerBaseUrl"`
	Env           string `json:"env"`
	ClientIDSet   bool   `json:"clientIdSet"`
	SecretSet     bool   `json:"clientSecretSet"`
	UserEmailSet  bool   `json:"userEmailSet"`
}

// Service is the console backend. In mock mode the catalog is served from
// fixtures; otherwise it is read from the KPOINT API. Impersonation is only
// available in mock mode.
type Service struct {
	settings  Settings
	store     catalog.Store
	tokens    TokenChecker
	resolver  *access.Resolver
	directory users.Directory
	links     *playlink.Builder
}

type ServiceOption func(*Service)

func WithTokenChecker(tokens TokenChecker) ServiceOption {
	return func(s *Service) {
		s.tokens = tokens
	}
}

func New(settings Settings, store catalog.Store, resolver *access.Resolver, directory users.Directory, links *playlink.Builder, options ...ServiceOption) *Service {
	s := &Service{
		settings:  settings,
		store:     store,
		resolver:  resolver,
		directory: directory,
		links:     links,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Service) Settings() Settings { return s.settings }

// Authenticate acquires (or reuses) the upstream bearer credential.
func (s *Service) Authenticate(ctx context.Context) error {
	if s.tokens == nil {
		return &apperrors.AuthError{Message: "no token source configured", Err: apperrors.ErrMissingClientCredentials}
	}
	_, err := s.tokens.GetToken(ctx)
	return err
}

func (s *Service) ListVideos(ctx context.Context, scope string) (*catalog.VideoList, error) {
	return s.store.ListVideos(ctx, scope)
}

func (s *Service) GetVideo(ctx context.Context, videoID string) (*catalog.Video, error) {
	return s.store.GetVideo(ctx, videoID)
}

// PackageFields lists the personalization inputs of a package on a video.
func (s *Service) PackageFields(ctx context.Context, videoID, packageID string) (*catalog.FieldsResult, error) {
	if packageID == "" {
		return nil, apperrors.Validation("packageId query parameter is required")
	}
	return s.store.PackageFields(ctx, videoID, packageID)
}

func (s *Service) GetPackage(ctx context.Context, packageID string) (*catalog.Package, error) {
	return s.store.GetPackage(ctx, packageID)
}

func (s *Service) ListPackagesForVideo(ctx context.Context, videoID string) ([]catalog.Package, error) {
	return s.store.ListPackagesForVideo(ctx, videoID)
}

// PartnerTemplates lists the templates visible to userID, or to the active
// user when userID is empty. With no user at all nothing is visible.
func (s *Service) PartnerTemplates(ctx context.Context, partnerID, userID string) (*catalog.TemplateList, error) {
	all, err := s.store.ListTemplates(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	viewer := s.viewer(userID)
	visible := make(map[string]struct{})
	for _, id := range s.resolver.TemplatesVisibleTo(viewer) {
		visible[id] = struct{}{}
	}
	filtered := make([]catalog.Template, 0, len(visible))
	for _, t := range all {
		if _, ok := visible[t.ID]; ok {
			filtered = append(filtered, t)
		}
	}
	log.Debug().Str("user_id", viewer).Int("visible", len(filtered)).Int("total", len(all)).Msg("partner templates filtered")
	return &catalog.TemplateList{Templates: filtered, Total: len(filtered)}, nil
}

// PartnerTemplate returns one template. It is reported missing when the
// viewing user cannot see it.
func (s *Service) PartnerTemplate(ctx context.Context, templateID, userID string) (*catalog.Template, error) {
	t, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !s.resolver.IsVisibleTo(templateID, s.viewer(userID)) {
		return nil, apperrors.NotFound("template", templateID)
	}
	return t, nil
}

func (s *Service) viewer(userID string) string {
	if userID != "" {
		return userID
	}
	if u, ok := s.resolver.ActiveUser(); ok {
		return u.ID
	}
	return ""
}

func (s *Service) PlayLink(p playlink.Params) (playlink.Link, error) {
	link, err := s.links.Link(p)
	if err != nil {
		return playlink.Link{}, err
	}
	log.Info().Str("video_id", p.VideoID).Str("package_id", p.PackageID).Int("fields", len(p.Fields)).Msg("play link generated")
	return link, nil
}

// Publish forwards a package publish to the catalog store.
func (s *Service) Publish(ctx context.Context, req catalog.PublishRequest) (*catalog.PublishResponse, error) {
	if req.PackageID == "" {
		return nil, apperrors.Validation("package_id is required")
	}
	if len(req.Users) == 0 && len(req.Groups) == 0 {
		return nil, apperrors.Validation("At least one user or group is required")
	}
	return s.store.Publish(ctx, req)
}

// AdminTemplates lists every template without visibility filtering.
func (s *Service) AdminTemplates(ctx context.Context) (*catalog.TemplateList, error) {
	all, err := s.store.ListTemplates(ctx, "")
	if err != nil {
		return nil, err
	}
	return &catalog.TemplateList{Templates: all, Total: len(all)}, nil
}

type PublishTemplateRequest struct {
	UserIDs     []string `json:"user_ids"`
	GroupIDs    []string `json:"group_ids"`
	PublishedBy string   `json:"published_by,omitempty"`
}

type PublishTemplateResult struct {
	Success    bool                     `json:"success"`
	Assignment access.Assignment        `json:"assignment"`
	Message    string                   `json:"message"`
	Upstream   *catalog.PublishResponse `json:"upstream,omitempty"`
}

// PublishTemplate assigns a template to users and groups, replacing any
// earlier assignment. Outside mock mode the package is also published
// upstream to the same recipients.
func (s *Service) PublishTemplate(ctx context.Context, templateID string, req PublishTemplateRequest) (*PublishTemplateResult, error) {
	if len(req.UserIDs) == 0 && len(req.GroupIDs) == 0 {
		return nil, apperrors.Validation("At least one user or group is required")
	}
	t, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	result := &PublishTemplateResult{Success: true, Message: "Template published successfully"}
	if !s.settings.MockMode {
		upstream, err := s.store.Publish(ctx, catalog.PublishRequest{PackageID: t.PackageID, Users: req.UserIDs, Groups: req.GroupIDs})
		if err != nil {
			return nil, apperrors.Wrapf(err, "publish package %s", t.PackageID)
		}
		result.Upstream = upstream
	}

	publishedBy := req.PublishedBy
	if publishedBy == "" {
		publishedBy = DefaultPublisher
	}
	result.Assignment = s.resolver.Assign(templateID, req.UserIDs, req.GroupIDs, publishedBy)
	return result, nil
}

type AssignmentsResult struct {
	Users  []*users.User  `json:"users"`
	Groups []*users.Group `json:"groups"`
}

func (s *Service) TemplateAssignments(templateID string) AssignmentsResult {
	us, gs := s.resolver.AssignmentsFor(templateID)
	return AssignmentsResult{Users: us, Groups: gs}
}

func (s *Service) Groups() ([]*users.Group, error) {
	return s.directory.ListGroups()
}

func (s *Service) Users() ([]*users.User, error) {
	return s.directory.ListUsers()
}

// CurrentUser returns the impersonated user.
func (s *Service) CurrentUser() (*users.User, error) {
	if !s.settings.MockMode {
		return nil, apperrors.ErrNotImplemented
	}
	u, ok := s.resolver.ActiveUser()
	if !ok {
		return nil, apperrors.NotFound("user", "current")
	}
	return u, nil
}

// SwitchUser changes the impersonated user.
func (s *Service) SwitchUser(userID string) (*users.User, error) {
	if !s.settings.MockMode {
		return nil, apperrors.ErrNotImplemented
	}
	if userID == "" {
		return nil, apperrors.Validation("user_id is required")
	}
	u, err := s.resolver.SetActiveUser(userID)
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", u.ID).Str("name", u.Name).Msg("switched active user")
	return u, nil
}
