package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a server-assigned record identifier
type ID int64

// String formats the id for use in request paths
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// UnmarshalJSON accepts both numeric and quoted ids, since the gateway
// renders 64-bit integers as strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", data, err)
	}
	*id = ID(v)
	return nil
}

// ParseID parses a user supplied identifier
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return ID(v), nil
}

// Entity is implemented by every record a collection store holds
type Entity interface {
	EntityID() ID
}

var (
	_ json.Unmarshaler = (*ID)(nil)
	_ Entity           = Fish{}
	_ Entity           = TankStatistic{}
)
