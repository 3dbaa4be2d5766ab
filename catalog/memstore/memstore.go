package memstore

import (
	"context"
	_ "embed"
	"sync"

	"github.com/jrsteele09/kpoint-gateway/catalog"
	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

var _ catalog.Store = (*Store)(nil)

// Store serves the catalog from fixture data held in memory. Publishes are
// recorded rather than forwarded anywhere.
type Store struct {
	videos    []catalog.Video
	packages  []catalog.Package
	templates []catalog.Template

	lock      sync.RWMutex
	published []catalog.PublishRequest
}

type fixtureFile struct {
	Videos    []map[string]any   `yaml:"videos"`
	Packages  []map[string]any   `yaml:"packages"`
	Templates []catalog.Template `yaml:"templates"`
}

// New loads the embedded demo catalog.
func New() (*Store, error) {
	return NewFromYAML(defaultFixtures)
}

func NewFromYAML(data []byte) (*Store, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "memstore.NewFromYAML yaml.Unmarshal")
	}

	s := &Store{templates: f.Templates}
	for _, raw := range f.Videos {
		s.videos = append(s.videos, catalog.NormalizeVideo(raw))
	}
	for _, raw := range f.Packages {
		s.packages = append(s.packages, catalog.NormalizePackage(raw))
	}
	return s, nil
}

func (s *Store) ListVideos(_ context.Context, _ string) (*catalog.VideoList, error) {
	videos := append([]catalog.Video(nil), s.videos...)
	return &catalog.VideoList{Videos: videos, Total: len(videos), Page: 1, PerPage: len(videos)}, nil
}

func (s *Store) GetVideo(_ context.Context, videoID string) (*catalog.Video, error) {
	for _, v := range s.videos {
		if v.ID == videoID {
			return &v, nil
		}
	}
	return nil, apperrors.NotFound("video", videoID)
}

func (s *Store) GetPackage(_ context.Context, packageID string) (*catalog.Package, error) {
	for _, p := range s.packages {
		if p.ID == packageID {
			return &p, nil
		}
	}
	return nil, apperrors.NotFound("package", packageID)
}

func (s *Store) ListPackagesForVideo(_ context.Context, videoID string) ([]catalog.Package, error) {
	pkgs := make([]catalog.Package, 0)
	for _, p := range s.packages {
		if p.VideoID == videoID {
			pkgs = append(pkgs, p)
		}
	}
	return pkgs, nil
}

// ListTemplates returns every template, unfiltered.
func (s *Store) ListTemplates(_ context.Context, _ string) ([]catalog.Template, error) {
	return catalog.ExtractTemplates(s.videos, s.templates), nil
}

func (s *Store) GetTemplate(ctx context.Context, templateID string) (*catalog.Template, error) {
	all, err := s.ListTemplates(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		if t.ID == templateID {
			return &t, nil
		}
	}
	return nil, apperrors.NotFound("template", templateID)
}

func (s *Store) PackageFields(ctx context.Context, videoID, packageID string) (*catalog.FieldsResult, error) {
	pkg, err := s.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	fields, err := catalog.PackageFields(*pkg)
	if err != nil {
		return nil, apperrors.Wrapf(err, "package %s fields", packageID)
	}
	return &catalog.FieldsResult{Fields: fields, VideoID: videoID, PackageID: packageID}, nil
}

func (s *Store) Publish(_ context.Context, req catalog.PublishRequest) (*catalog.PublishResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.published = append(s.published, req)
	return &catalog.PublishResponse{Success: true, Message: "Package published"}, nil
}

// Published returns the publish requests recorded so far.
func (s *Store) Published() []catalog.PublishRequest {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return append([]catalog.PublishRequest(nil), s.published...)
}
