package catalog

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/jrsteele09/kpoint-gateway/internal/utils"
	"github.com/pkg/errors"
)

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// PlaceholderNames returns the trimmed {token} names in text, first
// occurrence order, without repeats.
func PlaceholderNames(text string) []string {
	names := make([]string, 0)
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		names = append(names, strings.TrimSpace(m[1]))
	}
	return utils.Dedupe(names)
}

// FieldNameToLabel turns first_name into "First Name".
func FieldNameToLabel(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
	}
	return strings.Join(words, " ")
}

// ExtractFieldNames walks a widgetsConfig document in source order and
// collects placeholders from every "text" string and every "track.name"
// string it finds, at any depth.
func ExtractFieldNames(widgetsConfig json.RawMessage) ([]string, error) {
	if len(bytes.TrimSpace(widgetsConfig)) == 0 {
		return []string{}, nil
	}
	var names []string
	if err := walkWidgets(widgetsConfig, &names); err != nil {
		return nil, errors.Wrap(err, "ExtractFieldNames")
	}
	return utils.Dedupe(names), nil
}

type member struct {
	key   string
	value json.RawMessage
}

func walkWidgets(raw json.RawMessage, names *[]string) error {
	switch firstByte(raw) {
	case '{':
		members, err := orderedMembers(raw)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.key != "text" {
				continue
			}
			var text string
			if json.Unmarshal(m.value, &text) == nil {
				*names = append(*names, PlaceholderNames(text)...)
			}
		}
		for _, m := range members {
			if m.key != "track" || firstByte(m.value) != '{' {
				continue
			}
			var track struct {
				Name *string `json:"name"`
			}
			if json.Unmarshal(m.value, &track) == nil && track.Name != nil {
				*names = append(*names, PlaceholderNames(*track.Name)...)
			}
		}
		for _, m := range members {
			if err := walkWidgets(m.value, names); err != nil {
				return err
			}
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}
		for _, item := range items {
			if err := walkWidgets(item, names); err != nil {
				return err
			}
		}
	}
	return nil
}

// orderedMembers decodes a JSON object keeping its key order.
func orderedMembers(raw json.RawMessage) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		members = append(members, member{key: key, value: value})
	}
	return members, nil
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// FieldsFromWidgets builds required text fields for each placeholder.
func FieldsFromWidgets(widgetsConfig json.RawMessage) ([]Field, error) {
	names, err := ExtractFieldNames(widgetsConfig)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, len(names))
	for _, n := range names {
		fields = append(fields, Field{Key: n, Label: FieldNameToLabel(n), Type: "text", Required: true})
	}
	return fields, nil
}

// PackageFields prefers placeholders found in the package's widgetsConfig
// and falls back to its static field list.
func PackageFields(pkg Package) ([]Field, error) {
	if len(pkg.WidgetsConfig) > 0 {
		return FieldsFromWidgets(pkg.WidgetsConfig)
	}
	if len(pkg.Fields) > 0 {
		return pkg.Fields, nil
	}
	return []Field{}, nil
}
