package console_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jrsteele09/kpoint-gateway/access"
	"github.com/jrsteele09/kpoint-gateway/catalog"
	"github.com/jrsteele09/kpoint-gateway/catalog/memstore"
	"github.com/jrsteele09/kpoint-gateway/console"
	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/jrsteele09/kpoint-gateway/playlink"
	fakeuserrepo "github.com/jrsteele09/kpoint-gateway/users/repofake"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *console.Service
	store    *memstore.Store
	resolver *access.Resolver
}

func newFixture(t *testing.T, mock bool, options ...console.ServiceOption) fixture {
	t.Helper()
	store, err := memstore.New()
	require.NoError(t, err)
	dir, err := fakeuserrepo.NewSeededDirectory()
	require.NoError(t, err)
	resolver, err := access.NewSeededResolver(dir)
	require.NoError(t, err)

	svc := console.New(console.Settings{MockMode: mock}, store, resolver, dir,
		playlink.NewBuilder("https://ktpl.kpoint.com/web/videos"), options...)
	return fixture{svc: svc, store: store, resolver: resolver}
}

func templateIDs(list *catalog.TemplateList) []string {
	ids := make([]string, 0, len(list.Templates))
	for _, t := range list.Templates {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestPartnerTemplatesFilteredByActiveUser(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	list, err := f.svc.PartnerTemplates(ctx, "", "")
	require.NoError(t, err)
	require.Equal(t, []string{"tmpl-52eutbewxdcu"}, templateIDs(list))
	require.Equal(t, 1, list.Total)

	_, err = f.svc.SwitchUser("user-006")
	require.NoError(t, err)
	list, err = f.svc.PartnerTemplates(ctx, "", "")
	require.NoError(t, err)
	require.Equal(t, []string{"tmpl-003"}, templateIDs(list))

	list, err = f.svc.PartnerTemplates(ctx, "", "user-008")
	require.NoError(t, err)
	require.Equal(t, []string{"tmpl-002"}, templateIDs(list))

	list, err = f.svc.PartnerTemplates(ctx, "", "stranger")
	require.NoError(t, err)
	require.Empty(t, list.Templates)
}

func TestPartnerTemplateHiddenWhenNotVisible(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	tmpl, err := f.svc.PartnerTemplate(ctx, "tmpl-52eutbewxdcu", "")
	require.NoError(t, err)
	require.Equal(t, "52eutbewxdcu", tmpl.PackageID)

	_, err = f.svc.PartnerTemplate(ctx, "tmpl-003", "user-001")
	require.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))

	_, err = f.svc.PartnerTemplate(ctx, "tmpl-missing", "")
	require.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))
}

func TestPartnerTemplatesWithoutViewerShowNothing(t *testing.T) {
	ctx := context.Background()
	store, err := memstore.New()
	require.NoError(t, err)
	dir, err := fakeuserrepo.NewSeededDirectory()
	require.NoError(t, err)
	resolver := access.NewResolver(dir)
	resolver.Assign("tmpl-002", []string{"user-007"}, nil, console.DefaultPublisher)

	svc := console.New(console.Settings{MockMode: true}, store, resolver, dir,
		playlink.NewBuilder("https://ktpl.kpoint.com/web/videos"))

	list, err := svc.PartnerTemplates(ctx, "", "")
	require.NoError(t, err)
	require.Empty(t, list.Templates)
	require.Equal(t, 0, list.Total)

	_, err = svc.PartnerTemplate(ctx, "tmpl-002", "")
	require.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	list, err = svc.PartnerTemplates(ctx, "", "user-007")
	require.NoError(t, err)
	require.Equal(t, []string{"tmpl-002"}, templateIDs(list))

	tmpl, err := svc.PartnerTemplate(ctx, "tmpl-002", "user-007")
	require.NoError(t, err)
	require.Equal(t, "tmpl-002", tmpl.ID)
}

func TestAdminTemplatesUnfiltered(t *testing.T) {
	f := newFixture(t, true)
	list, err := f.svc.AdminTemplates(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"tmpl-52eutbewxdcu", "tmpl-002", "tmpl-003"}, templateIDs(list))
}

func TestPublishTemplateToGroup(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	res, err := f.svc.PublishTemplate(ctx, "tmpl-002", console.PublishTemplateRequest{GroupIDs: []string{"group-004"}})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, console.DefaultPublisher, res.Assignment.PublishedBy)
	require.Nil(t, res.Upstream)
	require.Empty(t, f.store.Published())

	list, err := f.svc.PartnerTemplates(ctx, "", "user-006")
	require.NoError(t, err)
	require.Equal(t, []string{"tmpl-002", "tmpl-003"}, templateIDs(list))

	// user-007 lost direct access when the assignment was replaced
	list, err = f.svc.PartnerTemplates(ctx, "", "user-007")
	require.NoError(t, err)
	require.Empty(t, list.Templates)

	assigned := f.svc.TemplateAssignments("tmpl-002")
	require.Empty(t, assigned.Users)
	require.Len(t, assigned.Groups, 1)
}

func TestPublishTemplateValidation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.PublishTemplate(ctx, "tmpl-002", console.PublishTemplateRequest{})
	require.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))

	_, err = f.svc.PublishTemplate(ctx, "tmpl-nope", console.PublishTemplateRequest{UserIDs: []string{"user-001"}})
	require.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))
}

func TestPublishTemplateForwardsOutsideMockMode(t *testing.T) {
	f := newFixture(t, false)

	res, err := f.svc.PublishTemplate(context.Background(), "tmpl-003", console.PublishTemplateRequest{
		UserIDs:     []string{"user-001"},
		PublishedBy: "admin-009",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Upstream)
	require.Equal(t, "admin-009", res.Assignment.PublishedBy)
	require.Equal(t, []catalog.PublishRequest{{PackageID: "poll456def", Users: []string{"user-001"}}}, f.store.Published())
}

func TestPublish(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.Publish(ctx, catalog.PublishRequest{Users: []string{"u"}})
	require.ErrorContains(t, err, "package_id is required")

	_, err = f.svc.Publish(ctx, catalog.PublishRequest{PackageID: "p"})
	require.ErrorContains(t, err, "At least one user or group")

	resp, err := f.svc.Publish(ctx, catalog.PublishRequest{PackageID: "p", Groups: []string{"group-001"}})
	require.NoError(t, err)
	require.True(t, resp.Success)
}

func TestPackageFieldsRequiresPackage(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.svc.PackageFields(context.Background(), "gcc-1", "")
	require.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))

	res, err := f.svc.PackageFields(context.Background(), "gcc-5f2ec840-e32c-4184-bf3e-af37ca12d0d7", "52eutbewxdcu")
	require.NoError(t, err)
	require.NotEmpty(t, res.Fields)
}

func TestImpersonationOnlyInMockMode(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.svc.CurrentUser()
	require.ErrorIs(t, err, apperrors.ErrNotImplemented)
	_, err = f.svc.SwitchUser("user-002")
	require.Equal(t, http.StatusNotImplemented, apperrors.HTTPStatus(err))

	f = newFixture(t, true)
	u, err := f.svc.CurrentUser()
	require.NoError(t, err)
	require.Equal(t, "user-001", u.ID)

	_, err = f.svc.SwitchUser("user-999")
	require.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))
	_, err = f.svc.SwitchUser("")
	require.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
}

type stubTokens struct{ err error }

func (s stubTokens) GetToken(context.Context) (string, error) { return "tok", s.err }

func TestAuthenticate(t *testing.T) {
	require.Error(t, newFixture(t, true).svc.Authenticate(context.Background()))
	require.NoError(t, newFixture(t, true, console.WithTokenChecker(stubTokens{})).svc.Authenticate(context.Background()))

	boom := errors.New("boom")
	err := newFixture(t, true, console.WithTokenChecker(stubTokens{err: boom})).svc.Authenticate(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestPlayLink(t *testing.T) {
	f := newFixture(t, true)
	link, err := f.svc.PlayLink(playlink.Params{
		VideoID:   "gcc-1",
		PackageID: "52eutbewxdcu",
		Fields:    playlink.Fields{{Key: "first_name", Value: "Anu"}, {Key: "company", Value: "Acme"}},
	})
	require.NoError(t, err)
	require.Equal(t, "https://ktpl.kpoint.com/web/videos/gcc-1/play?id=52eutbewxdcu&data=Zmlyc3RfbmFtZTpBbnU7Y29tcGFueTpBY21lOw==", link.URL)

	_, err = f.svc.PlayLink(playlink.Params{PackageID: "x"})
	require.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
}
