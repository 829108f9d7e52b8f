package dto

import (
	"bytes"
	"encoding/json"
)

// NullableString records whether a JSON field was present, and whether it
// carried null. A plain *string cannot tell `{}` from `{"f": null}`.
type NullableString struct {
	Set   bool
	Valid bool
	Value string
}

func NewNullableString(v string) NullableString {
	return NullableString{Set: true, Valid: true, Value: v}
}

// IsNull reports an explicit null.
func (n NullableString) IsNull() bool {
	return n.Set && !n.Valid
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Valid = false
		n.Value = ""
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}
