package render

import (
	"bytes"
	"encoding/json"
)

// undefinedToken is what Undefined marshals to before Encode rewrites it.
// The NUL bytes keep it from colliding with real string content.
const undefinedToken = `"\u0000tether:undefined\u0000"`

type undefined struct{}

// MarshalJSON implements json.Marshaler.
func (undefined) MarshalJSON() ([]byte, error) {
	return []byte(undefinedToken), nil
}

// Undefined renders as the JavaScript token undefined in Encode output. With
// plain json.Marshal it is an unlikely string.
var Undefined any = undefined{}

// Encode returns the JSON encoding of v, with every Undefined written
// unquoted as undefined. The output is meant for script bodies, not for JSON
// parsers.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.ReplaceAll(data, []byte(undefinedToken), []byte("undefined")), nil
}
