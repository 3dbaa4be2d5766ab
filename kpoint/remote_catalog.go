package kpoint

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/jrsteele09/kpoint-gateway/catalog"
	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/jrsteele09/kpoint-gateway/internal/metrics"
)

var _ catalog.Store = (*RemoteCatalog)(nil)

// RemoteCatalog reads the catalog from the KPOINT API through a Client and
// normalizes every response. Successful GETs are cached for a short TTL;
// a publish empties the cache.
type RemoteCatalog struct {
	client *Client
	cache  *ttlcache.Cache[string, any]
}

// NewRemoteCatalog caches GET responses for ttl. A ttl of zero disables
// caching.
func NewRemoteCatalog(client *Client, ttl time.Duration) *RemoteCatalog {
	rc := &RemoteCatalog{client: client}
	if ttl > 0 {
		rc.cache = ttlcache.New(
			ttlcache.WithTTL[string, any](ttl),
			ttlcache.WithDisableTouchOnHit[string, any](),
		)
		go rc.cache.Start()
	}
	return rc
}

// Close stops the cache janitor.
func (rc *RemoteCatalog) Close() {
	if rc.cache != nil {
		rc.cache.Stop()
	}
}

func (rc *RemoteCatalog) get(ctx context.Context, path string, params map[string]string) (any, error) {
	key := cacheKey(path, params)
	if rc.cache != nil {
		if item := rc.cache.Get(key); item != nil {
			metrics.CatalogCache(true)
			return item.Value(), nil
		}
		metrics.CatalogCache(false)
	}

	resp, err := rc.client.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	v, err := resp.Value()
	if err != nil {
		return nil, apperrors.Wrapf(err, "decode %s", path)
	}
	if rc.cache != nil {
		rc.cache.Set(key, v, ttlcache.DefaultTTL)
	}
	return v, nil
}

func cacheKey(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	q := url.Values{}
	for _, k := range keys {
		q.Set(k, params[k])
	}
	return path + "?" + q.Encode()
}

func (rc *RemoteCatalog) ListVideos(ctx context.Context, scope string) (*catalog.VideoList, error) {
	params := map[string]string{}
	if scope != "" {
		params["scope"] = scope
	}
	v, err := rc.get(ctx, "/videos", params)
	if err != nil {
		return nil, err
	}
	list := catalog.NormalizeVideoList(v)
	return &list, nil
}

func (rc *RemoteCatalog) GetVideo(ctx context.Context, videoID string) (*catalog.Video, error) {
	v, err := rc.get(ctx, "/videos/"+url.PathEscape(videoID), nil)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, apperrors.NotFound("video", videoID)
	}
	video := catalog.NormalizeVideo(m)
	return &video, nil
}

func (rc *RemoteCatalog) GetPackage(ctx context.Context, packageID string) (*catalog.Package, error) {
	v, err := rc.get(ctx, "/packages/"+url.PathEscape(packageID), nil)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, apperrors.NotFound("package", packageID)
	}
	pkg := catalog.NormalizePackage(m)
	return &pkg, nil
}

func (rc *RemoteCatalog) ListPackagesForVideo(ctx context.Context, videoID string) ([]catalog.Package, error) {
	v, err := rc.get(ctx, "/videos/"+url.PathEscape(videoID)+"/packages", nil)
	if err != nil {
		return nil, err
	}
	return catalog.PackagesFromResponse(v), nil
}

func (rc *RemoteCatalog) ListTemplates(ctx context.Context, partnerID string) ([]catalog.Template, error) {
	params := map[string]string{}
	if partnerID != "" {
		params["partner_id"] = partnerID
	}
	v, err := rc.get(ctx, "/partner/templates", params)
	if err != nil {
		return nil, err
	}
	return catalog.TemplatesFromResponse(v), nil
}

func (rc *RemoteCatalog) GetTemplate(ctx context.Context, templateID string) (*catalog.Template, error) {
	v, err := rc.get(ctx, "/partner/templates/"+url.PathEscape(templateID), nil)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, apperrors.NotFound("template", templateID)
	}
	t := catalog.NormalizeTemplate(m)
	return &t, nil
}

// PackageFields asks the dynamic embed endpoint to extract the package's
// widget configuration. The body is read uncached so widgetsConfig keeps
// its key order.
func (rc *RemoteCatalog) PackageFields(ctx context.Context, videoID, packageID string) (*catalog.FieldsResult, error) {
	path := "/videos/" + url.PathEscape(videoID) + "/dyn/embed"
	resp, err := rc.client.Get(ctx, path, map[string]string{"id": packageID, "extract": "true"})
	if err != nil {
		return nil, err
	}

	var embed struct {
		WidgetsConfig json.RawMessage `json:"widgetsConfig"`
	}
	if err := resp.Decode(&embed); err != nil {
		return nil, apperrors.Wrapf(err, "decode %s", path)
	}
	raw, err := resp.Value()
	if err != nil {
		return nil, apperrors.Wrapf(err, "decode %s", path)
	}

	var encoded string
	if json.Unmarshal(embed.WidgetsConfig, &encoded) == nil {
		embed.WidgetsConfig = json.RawMessage(encoded)
	}

	fields := []catalog.Field{}
	if len(embed.WidgetsConfig) > 0 && strings.TrimSpace(string(embed.WidgetsConfig)) != "null" {
		if fields, err = catalog.FieldsFromWidgets(embed.WidgetsConfig); err != nil {
			return nil, err
		}
	}
	return &catalog.FieldsResult{Fields: fields, VideoID: videoID, PackageID: packageID, Raw: raw}, nil
}

func (rc *RemoteCatalog) Publish(ctx context.Context, req catalog.PublishRequest) (*catalog.PublishResponse, error) {
	resp, err := rc.client.Post(ctx, "/publish", req)
	if err != nil {
		return nil, err
	}
	if rc.cache != nil {
		rc.cache.DeleteAll()
	}

	out := &catalog.PublishResponse{Success: true, Extra: map[string]any{}}
	v, err := resp.Value()
	if err != nil {
		return nil, apperrors.Wrapf(err, "decode /publish")
	}
	if m, ok := v.(map[string]any); ok {
		for k, val := range m {
			out.Extra[k] = val
		}
		if s, ok := m["success"].(bool); ok {
			out.Success = s
		}
		if msg, ok := m["message"].(string); ok {
			out.Message = msg
		}
	}
	return out, nil
}
