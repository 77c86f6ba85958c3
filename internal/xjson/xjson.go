package xjson

import (
	stdjson "encoding/json"
	"io"

	gjson "github.com/goccy/go-json"
)

// Marshal, Unmarshal and Decode are the single import site for JSON so the codec can be
// swapped without touching callers.

func Marshal(v interface{}) ([]byte, error) {
	return gjson.Marshal(v)
}

func Unmarshal(data []byte, v interface{}) error {
	return gjson.Unmarshal(data, v)
}

func Decode(r io.Reader, v interface{}) error {
	return gjson.NewDecoder(r).Decode(v)
}

type RawMessage = stdjson.RawMessage
