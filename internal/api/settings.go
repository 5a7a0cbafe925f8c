package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Settings is the whole settings document: category -> field -> value.
// It is always fetched and saved as a whole; numbers are kept as json.Number
// so values the client never touches round-trip unchanged.
type Settings map[string]map[string]any

// Well-known fields.
const (
	CategoryStorage     = "stockage"
	FieldMainFolder     = "dossier_principal"
	CategoryApplication = "application"
	FieldLaunchOnStart  = "lancement_demarrage"
)

// DecodeSettings parses a settings document.
func DecodeSettings(data []byte) (Settings, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var s Settings
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	if s == nil {
		s = Settings{}
	}
	return s, nil
}

// Get returns the value of category.field and whether it exists.
func (s Settings) Get(category, field string) (any, bool) {
	v, ok := s[category][field]
	return v, ok
}

// Set stores value under category.field, creating the category if needed.
func (s Settings) Set(category, field string, value any) {
	c, ok := s[category]
	if !ok || c == nil {
		c = make(map[string]any)
		s[category] = c
	}
	c[field] = value
}

// Clone returns a deep copy, so local edits never alias the fetched document.
func (s Settings) Clone() Settings {
	if s == nil {
		return nil
	}
	out := make(Settings, len(s))
	for cat, fields := range s {
		if fields == nil {
			out[cat] = nil
			continue
		}
		cf := make(map[string]any, len(fields))
		for k, v := range fields {
			cf[k] = cloneValue(v)
		}
		out[cat] = cf
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = cloneValue(e)
		}
		return l
	default:
		return v
	}
}

// Categories returns the category names in sorted order.
func (s Settings) Categories() []string {
	cats := make([]string, 0, len(s))
	for c := range s {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// Fields returns the field names of category in sorted order.
func (s Settings) Fields(category string) []string {
	fields := make([]string, 0, len(s[category]))
	for f := range s[category] {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Diff lists "category.field" paths whose values differ between a and b.
func Diff(a, b Settings) []string {
	seen := map[string]bool{}
	var out []string
	check := func(x, y Settings) {
		for cat, fields := range x {
			for f, v := range fields {
				key := cat + "." + f
				if seen[key] {
					continue
				}
				seen[key] = true
				w, ok := y.Get(cat, f)
				if !ok || !sameValue(v, w) {
					out = append(out, key)
				}
			}
		}
	}
	check(a, b)
	check(b, a)
	sort.Strings(out)
	return out
}

func sameValue(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}
