package repository

import "encoding/json"

// encodeJSON serializes v for storage in a TEXT column. Empty values
// collapse to the given fallback so columns never hold Go "null" noise.
func encodeJSON(v any, fallback string) (string, error) {
	if v == nil {
		return fallback, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(data)
	if s == "null" {
		return fallback, nil
	}
	return s, nil
}

// decodeJSON deserializes a TEXT column into v, treating empty text as
// the zero value.
func decodeJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}
