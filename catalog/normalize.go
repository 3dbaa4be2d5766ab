package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/kpoint-gateway/internal/utils"
	"github.com/rs/zerolog/log"
)

const (
	StatePublished  = "PUBLISHED"
	TemplatePrefix  = "tmpl-"
	untitledPackage = "Untitled"
)

// Upstream list responses have used each of these keys for the video array.
var videoListKeys = []string{"list", "videos", "results", "data"}

// NormalizeVideoList maps an upstream video listing onto VideoList. The
// page is always 1 and per_page is the number of videos returned.
func NormalizeVideoList(raw any) VideoList {
	var items []any
	total := 0

	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, k := range videoListKeys {
			if list, ok := v[k].([]any); ok {
				items = list
				break
			}
		}
		total = int(number(v, "totalcount"))
		if total == 0 {
			total = int(number(v, "total"))
		}
	}

	videos := make([]Video, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			videos = append(videos, NormalizeVideo(m))
		}
	}
	if total == 0 {
		total = len(videos)
	}
	return VideoList{Videos: videos, Total: total, Page: 1, PerPage: len(videos)}
}

// NormalizeVideo maps the upstream video attributes (displayname,
// images.thumb, time_created, time_last_update, published_duration and the
// properties.interactivity_packages JSON string) onto Video.
func NormalizeVideo(raw map[string]any) Video {
	v := Video{
		ID:           str(raw, "id"),
		Title:        utils.FirstNonEmpty(str(raw, "displayname"), str(raw, "title")),
		Description:  str(raw, "description"),
		ThumbnailURL: utils.FirstNonEmpty(str(object(raw, "images"), "thumb"), str(raw, "thumbnail_url")),
		CreatedAt:    utils.FirstNonEmpty(str(raw, "time_created"), str(raw, "created_at")),
		UpdatedAt:    utils.FirstNonEmpty(str(raw, "time_last_update"), str(raw, "updated_at")),
		Duration:     number(raw, "published_duration"),
		Status:       str(raw, "status"),
		Extra:        make(map[string]any, len(raw)),
	}
	if v.Duration == 0 {
		v.Duration = number(raw, "duration")
	}
	for k, val := range raw {
		v.Extra[k] = val
	}

	if encoded := str(object(raw, "properties"), "interactivity_packages"); encoded != "" {
		pkgs, err := ParseInteractivityPackages(encoded)
		if err != nil {
			log.Warn().Err(err).Str("video_id", v.ID).Msg("skipping malformed interactivity_packages")
		} else {
			v.InteractivityPackages = pkgs
		}
	} else if list, ok := raw["interactivity_packages"].([]any); ok {
		v.InteractivityPackages = packagesFrom(list)
	}
	for i := range v.InteractivityPackages {
		if v.InteractivityPackages[i].VideoID == "" {
			v.InteractivityPackages[i].VideoID = v.ID
		}
	}
	return v
}

// ParseInteractivityPackages decodes the JSON array a video carries in
// properties.interactivity_packages.
func ParseInteractivityPackages(encoded string) ([]Package, error) {
	var list []any
	if err := json.Unmarshal([]byte(encoded), &list); err != nil {
		return nil, fmt.Errorf("interactivity_packages: %w", err)
	}
	return packagesFrom(list), nil
}

func packagesFrom(list []any) []Package {
	pkgs := make([]Package, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			pkgs = append(pkgs, NormalizePackage(m))
		}
	}
	return pkgs
}

// NormalizePackage maps an upstream package object onto Package. The name
// comes from displayname, falling back to name.
func NormalizePackage(raw map[string]any) Package {
	p := Package{
		ID:                str(raw, "id"),
		Name:              utils.FirstNonEmpty(str(raw, "displayname"), str(raw, "name")),
		Description:       str(raw, "description"),
		VideoID:           str(raw, "video_id"),
		State:             str(raw, "state"),
		TimeCreated:       str(raw, "time_created"),
		TimeLastPublished: str(raw, "time_last_published"),
		TimeLastUpdate:    str(raw, "time_last_update"),
		Configuration:     object(raw, "configuration"),
	}
	if list, ok := raw["fields"].([]any); ok {
		p.Fields = fieldsFrom(list)
	}
	switch w := raw["widgetsConfig"].(type) {
	case nil:
	case string:
		if json.Valid([]byte(w)) {
			p.WidgetsConfig = json.RawMessage(w)
		}
	default:
		if b, err := json.Marshal(w); err == nil {
			p.WidgetsConfig = b
		}
	}
	return p
}

// PackagesFromResponse accepts either {"packages": [...]} or a bare array.
func PackagesFromResponse(raw any) []Package {
	switch v := raw.(type) {
	case []any:
		return packagesFrom(v)
	case map[string]any:
		if list, ok := v["packages"].([]any); ok {
			return packagesFrom(list)
		}
	}
	return []Package{}
}

// NormalizeTemplate maps an upstream partner template object onto Template.
func NormalizeTemplate(raw map[string]any) Template {
	t := Template{
		ID:                str(raw, "id"),
		PackageID:         str(raw, "package_id"),
		PackageName:       str(raw, "package_name"),
		VideoID:           str(raw, "video_id"),
		VideoTitle:        str(raw, "video_title"),
		ThumbnailURL:      str(raw, "thumbnail_url"),
		Description:       str(raw, "description"),
		Status:            str(raw, "status"),
		CreatedAt:         str(raw, "created_at"),
		TimeLastPublished: str(raw, "time_last_published"),
		TimeLastUpdate:    str(raw, "time_last_update"),
		Fields:            []Field{},
	}
	if list, ok := raw["fields"].([]any); ok {
		t.Fields = fieldsFrom(list)
	}
	return t
}

// TemplatesFromResponse accepts {"templates": [...]} or a bare array.
func TemplatesFromResponse(raw any) []Template {
	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case map[string]any:
		list, _ = v["templates"].([]any)
	}
	out := make([]Template, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, NormalizeTemplate(m))
		}
	}
	return out
}

// ExtractTemplates derives one template per PUBLISHED interactivity package
// of each video, then appends the manual templates whose package is not
// already covered.
func ExtractTemplates(videos []Video, manual []Template) []Template {
	templates := make([]Template, 0)
	seen := make(map[string]struct{})

	for _, v := range videos {
		for _, pkg := range v.InteractivityPackages {
			if pkg.State != StatePublished {
				continue
			}
			description := v.Description
			if description == "" {
				description = "Interactive template for " + v.Title
			}
			templates = append(templates, Template{
				ID:                TemplatePrefix + pkg.ID,
				PackageID:         pkg.ID,
				PackageName:       utils.FirstNonEmpty(pkg.Name, untitledPackage),
				VideoID:           v.ID,
				VideoTitle:        v.Title,
				ThumbnailURL:      v.ThumbnailURL,
				Description:       description,
				Status:            "active",
				Fields:            []Field{},
				CreatedAt:         pkg.TimeCreated,
				TimeLastPublished: pkg.TimeLastPublished,
				TimeLastUpdate:    pkg.TimeLastUpdate,
			})
			seen[pkg.ID] = struct{}{}
		}
	}

	for _, t := range manual {
		if _, ok := seen[t.PackageID]; ok {
			continue
		}
		if t.Fields == nil {
			t.Fields = []Field{}
		}
		templates = append(templates, t)
	}
	return templates
}

// fieldsFrom accepts field objects and bare field names. A bare name
// becomes a required text field.
func fieldsFrom(list []any) []Field {
	fields := make([]Field, 0, len(list))
	for _, name := range utils.ToStringSlice(list) {
		fields = append(fields, Field{Key: name, Label: FieldNameToLabel(name), Type: "text", Required: true})
	}
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		required, _ := m["required"].(bool)
		fields = append(fields, Field{
			Key:          str(m, "key"),
			Label:        str(m, "label"),
			Type:         str(m, "type"),
			Required:     required,
			DefaultValue: str(m, "default_value"),
		})
	}
	return fields
}

func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func object(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	o, _ := m[key].(map[string]any)
	return o
}

func number(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	switch n := m[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}
