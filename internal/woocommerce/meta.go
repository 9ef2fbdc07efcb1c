package woocommerce

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Field looks up a custom field by any of keys, case-insensitively.
// Sources are checked in order: meta_data, the ACF object, then product
// attributes (name lowercased with spaces as underscores). The first
// non-empty value wins.
func (p *Product) Field(keys ...string) (json.RawMessage, bool) {
	for _, key := range keys {
		for _, m := range p.MetaData {
			if strings.EqualFold(m.Key, key) && !isEmptyJSON(m.Value) {
				return m.Value, true
			}
		}
	}

	if acf := p.acfFields(); len(acf) > 0 {
		for _, key := range keys {
			for k, v := range acf {
				if strings.EqualFold(k, key) && !isEmptyJSON(v) {
					return v, true
				}
			}
		}
	}

	for _, key := range keys {
		for _, a := range p.Attributes {
			name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(a.Name)), " ", "_")
			if name == strings.ToLower(key) && len(a.Options) > 0 {
				b, err := json.Marshal(a.Options)
				if err == nil {
					return b, true
				}
			}
		}
	}

	return nil, false
}

// FieldString is Field flattened to text. Arrays are joined with ", ".
func (p *Product) FieldString(keys ...string) (string, bool) {
	raw, ok := p.Field(keys...)
	if !ok {
		return "", false
	}
	s := FlattenJSON(raw)
	return s, s != ""
}

// TagNames returns the tag names joined with spaces.
func (p *Product) TagNames() string {
	return joinTerms(p.Tags)
}

// CategoryNames returns the category names joined with spaces.
func (p *Product) CategoryNames() string {
	return joinTerms(p.Categories)
}

func (p *Product) acfFields() map[string]json.RawMessage {
	if len(p.ACF) == 0 || p.ACF[0] != '{' {
		// ACF returns [] instead of {} for products with no fields.
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(p.ACF, &fields); err != nil {
		return nil
	}
	return fields
}

// FlattenJSON renders a custom field value as plain text. Strings are
// unquoted, numbers keep their literal form, arrays are flattened and
// joined with ", ", objects are returned as compact JSON.
func FlattenJSON(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return ""
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if s := FlattenJSON(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case 'n':
		return ""
	case 't', 'f':
		b, _ := strconv.ParseBool(string(raw))
		if b {
			return "true"
		}
		return ""
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return ""
		}
		return buf.String()
	}
}

func isEmptyJSON(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", `""`, "[]", "{}", "false":
		return true
	}
	return false
}

func joinTerms(terms []Term) string {
	names := make([]string, 0, len(terms))
	for _, t := range terms {
		if t.Name != "" {
			names = append(names, t.Name)
		}
	}
	return strings.Join(names, " ")
}
