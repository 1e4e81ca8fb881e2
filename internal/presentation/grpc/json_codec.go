package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// The admin messages are plain structs, so the service speaks JSON on the
// wire. Clients select it with the "application/grpc+json" content subtype.
func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}
