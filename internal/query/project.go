package query

import (
	"encoding/json"
)

// Project shapes item down to the requested fields by round-tripping it
// through its JSON form. The id field is always kept so list items stay
// addressable. An empty field list returns the full JSON shape unchanged.
func Project(item any, fields []string) (map[string]any, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	var full map[string]any
	if err := json.Unmarshal(raw, &full); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return full, nil
	}

	keep := make(map[string]struct{}, len(fields)+1)
	keep["id"] = struct{}{}
	for _, f := range fields {
		keep[f] = struct{}{}
	}

	out := make(map[string]any, len(keep))
	for k, v := range full {
		if _, ok := keep[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// ProjectList applies Project to every item.
func ProjectList[T any](items []T, fields []string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		m, err := Project(it, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
