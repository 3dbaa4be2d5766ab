package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/kpoint-gateway/catalog"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderNames(t *testing.T) {
	require.Equal(t, []string{"first_name", "product"},
		catalog.PlaceholderNames("Hello {first_name}, your { product } is ready, {first_name}"))
	require.Empty(t, catalog.PlaceholderNames("no tokens {} { } here"))
}

func TestFieldNameToLabel(t *testing.T) {
	require.Equal(t, "First Name", catalog.FieldNameToLabel("first_name"))
	require.Equal(t, "Policy Number", catalog.FieldNameToLabel("POLICY_number"))
	require.Equal(t, "City", catalog.FieldNameToLabel("city"))
}

func TestExtractFieldNamesKeepsDocumentOrder(t *testing.T) {
	widgets := json.RawMessage(`{
		"kpw_text": {
			"list": [
				{"text": "{first_name}", "track": {"name": "{first_name}"}},
				{"text": "Dear {company}", "nested": [{"text": "{ city }"}]}
			]
		},
		"kpw_label": {"track": {"name": "{zebra} and {apple}"}, "text": 42}
	}`)

	names, err := catalog.ExtractFieldNames(widgets)
	require.NoError(t, err)
	require.Equal(t, []string{"first_name", "company", "city", "zebra", "apple"}, names)
}

func TestExtractFieldNamesEdgeCases(t *testing.T) {
	names, err := catalog.ExtractFieldNames(nil)
	require.NoError(t, err)
	require.Empty(t, names)

	names, err = catalog.ExtractFieldNames(json.RawMessage(`[[{"text":"{a}"}], "plain {ignored}"]`))
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, names)

	_, err = catalog.ExtractFieldNames(json.RawMessage(`{"text": `))
	require.Error(t, err)
}

func TestPackageFields(t *testing.T) {
	withWidgets := catalog.Package{
		WidgetsConfig: json.RawMessage(`{"kpw_text":{"list":[{"text":"{first_name}","track":{"name":"{first_name}"}}]}}`),
		Fields:        []catalog.Field{{Key: "ignored"}},
	}
	fields, err := catalog.PackageFields(withWidgets)
	require.NoError(t, err)
	require.Equal(t, []catalog.Field{{Key: "first_name", Label: "First Name", Type: "text", Required: true}}, fields)

	static := catalog.Package{Fields: []catalog.Field{{Key: "user_name", Label: "User Name", Type: "text", Required: true}}}
	fields, err = catalog.PackageFields(static)
	require.NoError(t, err)
	require.Equal(t, static.Fields, fields)

	fields, err = catalog.PackageFields(catalog.Package{})
	require.NoError(t, err)
	require.NotNil(t, fields)
	require.Empty(t, fields)
}
