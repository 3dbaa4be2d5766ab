package utils_test

import (
	"testing"

	"github.com/jrsteele09/kpoint-gateway/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestToStringSlice(t *testing.T) {
	require.Equal(t, []string{"a", "c"}, utils.ToStringSlice([]any{"a", 1, "c", nil}))
	require.Empty(t, utils.ToStringSlice(nil))
}

func TestDedupe(t *testing.T) {
	require.Equal(t, []string{"g1", "g2"}, utils.Dedupe([]string{"g1", "", "g2", "g1"}))
	require.Empty(t, utils.Dedupe[string](nil))
}

func TestFirstNonEmpty(t *testing.T) {
	require.Equal(t, "b", utils.FirstNonEmpty("", "b", "c"))
	require.Equal(t, "", utils.FirstNonEmpty())
}
