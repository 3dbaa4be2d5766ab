// Package playlink builds personalized KPOINT player links and the share
// links that carry them.
//
// A play link has the form
//
//	{player}/{videoId}/play?id={packageId}&data={base64}&state={state}
//
// where data is the standard base64 of "key:value;" repeated for every
// field. The player expects the padded base64 verbatim, so data is never
// percent-encoded.
package playlink

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"

	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/pkg/errors"
)

const (
	DefaultMessage      = "Check out this personalized video created just for you!"
	DefaultEmailSubject = "Personalized Video for You"
	DefaultEmailIntro   = "Hi,\n\nI've created a personalized video for you. Click the link below to watch:"

	shareSubject = "Your Personalized Video"
	shareBody    = "I've created a personalized video for you. Click the link below to watch:"
)

// Field is one personalization value. Keys and values must not contain ':'
// or ';' since the data format has no escaping.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Fields keeps the order of a JSON object's members when decoded, so the
// data parameter lists fields the way the caller sent them.
type Fields []Field

func (f *Fields) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []Field
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*f = list
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return apperrors.Validation("fields must be an object of strings")
	}
	out := Fields{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		out = append(out, Field{Key: key, Value: stringify(value)})
	}
	*f = out
	return nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

// FieldsFromMap orders map entries by key.
func FieldsFromMap(m map[string]string) Fields {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Fields, 0, len(m))
	for _, k := range keys {
		out = append(out, Field{Key: k, Value: m[k]})
	}
	return out
}

type Params struct {
	VideoID   string `json:"videoId"`
	PackageID string `json:"packageId"`
	Fields    Fields `json:"fields,omitempty"`
	State     string `json:"state,omitempty"`
}

// Link is a play link with its message and email share links.
type Link struct {
	URL     string `json:"playLink"`
	Message string `json:"whatsappLink"`
	Email   string `json:"emailLink"`
}

type Builder struct {
	playerBaseURL string
}

func NewBuilder(playerBaseURL string) *Builder {
	return &Builder{playerBaseURL: strings.TrimRight(playerBaseURL, "/")}
}

// Build returns the play link for p. Empty fields omit data and an empty
// state omits state.
func (b *Builder) Build(p Params) string {
	var sb strings.Builder
	sb.WriteString(b.playerBaseURL)
	sb.WriteString("/")
	sb.WriteString(p.VideoID)
	sb.WriteString("/play?id=")
	sb.WriteString(p.PackageID)
	if len(p.Fields) > 0 {
		sb.WriteString("&data=")
		sb.WriteString(EncodeData(p.Fields))
	}
	if p.State != "" {
		sb.WriteString("&state=")
		sb.WriteString(p.State)
	}
	return sb.String()
}

// Link validates p and builds the play link with its share links.
func (b *Builder) Link(p Params) (Link, error) {
	if p.VideoID == "" || p.PackageID == "" {
		return Link{}, apperrors.Validation("videoId and packageId are required")
	}
	playURL := b.Build(p)
	return Link{
		URL:     playURL,
		Message: ShareViaMessage(playURL, DefaultMessage),
		Email:   ShareViaEmail(EmailParams{URL: playURL, Subject: shareSubject, Body: shareBody}),
	}, nil
}

// EncodeData serializes fields as "k:v;" pairs in standard base64.
func EncodeData(fields []Field) string {
	var sb strings.Builder
	for _, f := range fields {
		sb.WriteString(f.Key)
		sb.WriteString(":")
		sb.WriteString(f.Value)
		sb.WriteString(";")
	}
	return base64.StdEncoding.EncodeToString([]byte(sb.String()))
}

// Decode reverses EncodeData. The format has no escaping, so a value
// holding ';' cannot round-trip: the text after the ';' is rejected when it
// has no ':' and is read as a separate field when it does.
func Decode(data string) ([]Field, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrap(err, "playlink.Decode base64")
	}
	fields := []Field{}
	for _, seg := range strings.Split(string(raw), ";") {
		if seg == "" {
			continue
		}
		key, value, ok := strings.Cut(seg, ":")
		if !ok {
			return nil, apperrors.Validation("malformed data segment %q", seg)
		}
		fields = append(fields, Field{Key: key, Value: value})
	}
	return fields, nil
}

// DataParam extracts the raw data parameter of a play link. Standard query
// parsing would turn '+' into a space, so the query is split by hand.
func DataParam(playURL string) (string, bool) {
	_, query, ok := strings.Cut(playURL, "?")
	if !ok {
		return "", false
	}
	for _, kv := range strings.Split(query, "&") {
		if v, found := strings.CutPrefix(kv, "data="); found {
			return v, true
		}
	}
	return "", false
}

// ShareViaMessage builds a wa.me share link for playURL.
func ShareViaMessage(playURL, message string) string {
	text := "Check out this personalized video: " + playURL
	if message != "" {
		text = message + "\n" + playURL
	}
	return "https://wa.me/?text=" + EncodeURIComponent(text)
}

type EmailParams struct {
	URL     string
	Subject string
	Body    string
}

// ShareViaEmail builds a mailto link with the play link under the body.
func ShareViaEmail(p EmailParams) string {
	subject := p.Subject
	if subject == "" {
		subject = DefaultEmailSubject
	}
	body := DefaultEmailIntro + "\n\n" + p.URL
	if p.Body != "" {
		body = p.Body + "\n\n" + p.URL
	}
	return "mailto:?subject=" + EncodeURIComponent(subject) + "&body=" + EncodeURIComponent(body)
}

const upperhex = "0123456789ABCDEF"

// EncodeURIComponent percent-encodes every UTF-8 byte except letters,
// digits and -_.!~*'().
func EncodeURIComponent(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&15])
	}
	return sb.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
