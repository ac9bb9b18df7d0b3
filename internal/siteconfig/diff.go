package siteconfig

import (
	"encoding/json"
	"reflect"
	"sort"
)

// Change records one field whose value differs between two configs.
// Field is the JSON name.
type Change struct {
	Field  string `json:"field"`
	Before any    `json:"before"`
	After  any    `json:"after"`
}

// Diff lists the fields that differ between before and after, sorted by name.
func Diff(before, after Config) []Change {
	b, a := fields(before), fields(after)
	names := make([]string, 0, len(a))
	for k := range a {
		names = append(names, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	out := []Change{}
	for _, k := range names {
		if reflect.DeepEqual(b[k], a[k]) {
			continue
		}
		out = append(out, Change{Field: k, Before: b[k], After: a[k]})
	}
	return out
}

// Overrides lists the fields of c that differ from Default.
func Overrides(c Config) []string {
	changes := Diff(Default(), c)
	out := make([]string, len(changes))
	for i, ch := range changes {
		out[i] = ch.Field
	}
	return out
}

func fields(c Config) map[string]any {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
