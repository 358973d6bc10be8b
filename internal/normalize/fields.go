package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/JakeFAU/cityhall/internal/content"
)

// Scalar is a JSON scalar decoded into its string form. Numbers keep their literal
// spelling, booleans become "true"/"false". Null, objects and arrays read as
// "".
type Scalar string

func (t *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Scalar(s)
	case '{', '[':
		*t = ""
	default:
		*t = Scalar(data)
	}
	return nil
}

func (t Scalar) String() string { return string(t) }

// link is a CMS link value.
type link struct {
	Title Scalar `json:"title"`
	URI   Scalar `json:"uri"`
}

func (l link) toContent() content.Link {
	return content.Link{Title: l.Title.String(), URI: l.URI.String()}
}

func toLinks(in []link) []content.Link {
	out := make([]content.Link, 0, len(in))
	for _, l := range in {
		out = append(out, l.toContent())
	}
	return out
}

// item is one element of a Drupal field array. Every field the normalizer
// reads uses some subset of these keys.
type item struct {
	Value    Scalar `json:"value"`
	TargetID Scalar `json:"target_id"`
	Headline Scalar `json:"headline"`
	Subhead  Scalar `json:"subhead"`
	Links    []link `json:"links"`
	URL      Scalar `json:"url"`
	Alt      Scalar `json:"alt"`
	Citation Scalar `json:"citation"`
	Title    Scalar `json:"title"`
	URI      Scalar `json:"uri"`
	Path     Scalar `json:"path"`
}

func (i item) link() *content.Link {
	if i.Title == "" && i.URI == "" {
		return nil
	}
	l := content.Link{Title: i.Title.String(), URI: i.URI.String()}
	return &l
}

// document is a decoded CMS entity. Lookups are lenient: a field that is
// absent or has an unexpected shape reads as empty.
type document map[string]json.RawMessage

func parseDocument(body []byte) (document, error) {
	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decode document: empty body")
	}
	return doc, nil
}

func (d document) items(name string) []item {
	raw, ok := d[name]
	if !ok {
		return nil
	}
	var out []item
	if err := json.Unmarshal(raw, &out); err == nil {
		return out
	}
	// Fields are arrays, but tolerate a lone object.
	var one item
	if err := json.Unmarshal(raw, &one); err == nil {
		return []item{one}
	}
	return nil
}

func (d document) first(name string) item {
	items := d.items(name)
	if len(items) == 0 {
		return item{}
	}
	return items[0]
}

func (d document) value(name string) string {
	return d.first(name).Value.String()
}

func (d document) meta() content.Meta {
	raw, ok := d["meta"]
	if !ok {
		return content.Meta{}
	}
	var metas []content.Meta
	if err := json.Unmarshal(raw, &metas); err != nil || len(metas) == 0 || metas[0] == nil {
		return content.Meta{}
	}
	return metas[0]
}

func (d document) raw(name string) json.RawMessage {
	raw, ok := d[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return raw
}

// scalar reads a field that may be sent flat or as a one-item field array.
func (d document) scalar(name string) string {
	raw, ok := d[name]
	if !ok {
		return ""
	}
	var flat Scalar
	if json.Unmarshal(raw, &flat) == nil && flat != "" {
		return flat.String()
	}
	return d.value(name)
}

// contentType reads the discriminator from type.0.target_id, falling back to
// a flat type string.
func (d document) contentType() string {
	if t := d.first("type").TargetID.String(); t != "" {
		return t
	}
	var flat Scalar
	if raw, ok := d["type"]; ok && json.Unmarshal(raw, &flat) == nil {
		return flat.String()
	}
	return ""
}

// message returns the error message the CMS puts in failed responses.
func (d document) message() string {
	var msg Scalar
	if raw, ok := d["message"]; ok && json.Unmarshal(raw, &msg) == nil {
		return msg.String()
	}
	return ""
}

// Message extracts an upstream error message from body, if any.
func Message(body []byte) string {
	var doc document
	if json.Unmarshal(body, &doc) != nil {
		return ""
	}
	return doc.message()
}
