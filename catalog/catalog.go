package catalog

import (
	"context"
	"encoding/json"
)

// Field is one personalization input a template expects from the partner.
type Field struct {
	Key          string `json:"key" yaml:"key"`
	Label        string `json:"label" yaml:"label"`
	Type         string `json:"type" yaml:"type"`
	Required     bool   `json:"required" yaml:"required"`
	DefaultValue string `json:"default_value,omitempty" yaml:"default_value"`
}

// Package is an interactivity package layered over a video.
type Package struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	VideoID           string          `json:"video_id,omitempty"`
	State             string          `json:"state,omitempty"`
	TimeCreated       string          `json:"time_created,omitempty"`
	TimeLastPublished string          `json:"time_last_published,omitempty"`
	TimeLastUpdate    string          `json:"time_last_update,omitempty"`
	Fields            []Field         `json:"fields,omitempty"`
	Configuration     map[string]any  `json:"configuration,omitempty"`
	WidgetsConfig     json.RawMessage `json:"widgetsConfig,omitempty"`
}

// Video is the normalized view of an upstream video. Extra carries every
// upstream attribute the normalization does not name, and is merged back
// in when the video is rendered as JSON.
type Video struct {
	ID                    string
	Title                 string
	Description           string
	ThumbnailURL          string
	CreatedAt             string
	UpdatedAt             string
	Duration              float64
	Status                string
	InteractivityPackages []Package
	Extra                 map[string]any
}

func (v Video) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(v.Extra)+9)
	for k, val := range v.Extra {
		out[k] = val
	}
	out["id"] = v.ID
	out["title"] = v.Title
	out["description"] = v.Description
	out["thumbnail_url"] = v.ThumbnailURL
	out["created_at"] = v.CreatedAt
	out["updated_at"] = v.UpdatedAt
	out["duration"] = v.Duration
	out["status"] = v.Status
	if v.InteractivityPackages != nil {
		out["interactivity_packages"] = v.InteractivityPackages
	}
	return json.Marshal(out)
}

type VideoList struct {
	Videos  []Video `json:"videos"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
}

// Template is a published package offered to partners for personalization.
type Template struct {
	ID                string  `json:"id" yaml:"id"`
	PackageID         string  `json:"package_id" yaml:"package_id"`
	PackageName       string  `json:"package_name" yaml:"package_name"`
	VideoID           string  `json:"video_id" yaml:"video_id"`
	VideoTitle        string  `json:"video_title,omitempty" yaml:"video_title"`
	ThumbnailURL      string  `json:"thumbnail_url,omitempty" yaml:"thumbnail_url"`
	Description       string  `json:"description,omitempty" yaml:"description"`
	Status            string  `json:"status,omitempty" yaml:"status"`
	Fields            []Field `json:"fields" yaml:"fields"`
	CreatedAt         string  `json:"created_at,omitempty" yaml:"created_at"`
	TimeLastPublished string  `json:"time_last_published,omitempty" yaml:"time_last_published"`
	TimeLastUpdate    string  `json:"time_last_update,omitempty" yaml:"time_last_update"`
}

type TemplateList struct {
	Templates []Template `json:"templates"`
	Total     int        `json:"total"`
}

// FieldsResult is the personalization field set of one package on one video.
type FieldsResult struct {
	Fields    []Field `json:"fields"`
	VideoID   string  `json:"videoId"`
	PackageID string  `json:"packageId"`
	Raw       any     `json:"raw,omitempty"`
}

type PublishRequest struct {
	PackageID string   `json:"package_id"`
	Users     []string `json:"users,omitempty"`
	Groups    []string `json:"groups,omitempty"`
}

type PublishResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Extra   map[string]any `json:"-"`
}

// Store is the catalog surface the console reads from. A local fixture
// store and the remote KPOINT API both implement it.
type Store interface {
	ListVideos(ctx context.Context, scope string) (*VideoList, error)
	GetVideo(ctx context.Context, videoID string) (*Video, error)
	GetPackage(ctx context.Context, packageID string) (*Package, error)
	ListPackagesForVideo(ctx context.Context, videoID string) ([]Package, error)
	ListTemplates(ctx context.Context, partnerID string) ([]Template, error)
	GetTemplate(ctx context.Context, templateID string) (*Template, error)
	PackageFields(ctx context.Context, videoID, packageID string) (*FieldsResult, error)
	Publish(ctx context.Context, req PublishRequest) (*PublishResponse, error)
}

func (p PublishResponse) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+2)
	for k, v := range p.Extra {
		out[k] = v
	}
	out["success"] = p.Success
	if p.Message != "" {
		out["message"] = p.Message
	}
	return json.Marshal(out)
}
