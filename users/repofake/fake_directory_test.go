package fakeuserrepo_test

import (
	"testing"

	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/jrsteele09/kpoint-gateway/users"
	fakeuserrepo "github.com/jrsteele09/kpoint-gateway/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestSeededDirectory(t *testing.T) {
	d, err := fakeuserrepo.NewSeededDirectory()
	require.NoError(t, err)

	all, err := d.ListUsers()
	require.NoError(t, err)
	require.Len(t, all, 8)
	require.Equal(t, "user-001", all[0].ID)

	groups, err := d.ListGroups()
	require.NoError(t, err)
	require.Len(t, groups, 5)

	u, err := d.GetUser("user-003")
	require.NoError(t, err)
	require.Equal(t, "Amit Patel", u.Name)
	require.Equal(t, users.RoleAgent, u.Role)
	require.Equal(t, []string{"group-001", "group-004"}, u.GroupIDs)
	require.Equal(t, 2025, u.CreatedAt.Year())

	north, err := d.UsersInGroup("group-001")
	require.NoError(t, err)
	ids := make([]string, 0, len(north))
	for _, m := range north {
		ids = append(ids, m.ID)
	}
	require.Equal(t, []string{"user-001", "user-003", "user-008"}, ids)
}

func TestUnknownLookups(t *testing.T) {
	d := fakeuserrepo.NewFakeDirectory()

	_, err := d.GetUser("nobody")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = d.GetGroup("nowhere")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpsertGeneratesID(t *testing.T) {
	d := fakeuserrepo.NewFakeDirectory()
	u := &users.User{Name: "New Agent"}
	require.NoError(t, d.UpsertUser(u))
	require.NotEmpty(t, u.ID)

	got, err := d.GetUser(u.ID)
	require.NoError(t, err)
	require.Equal(t, users.StatusActive, got.Status)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	d := fakeuserrepo.NewFakeDirectory()
	require.Error(t, d.Load([]byte("users: [")))
}
