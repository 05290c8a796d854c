package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// ProtoCodec encodes Protocol Buffers messages. Values passed to it must implement
// proto.Message.
type ProtoCodec struct {
	// Deterministic requests stable map ordering in the encoded output.
	Deterministic bool
}

// NewProtoCodec creates a new ProtoCodec.
func NewProtoCodec() *ProtoCodec {
	return &ProtoCodec{}
}

// ContentType returns the protobuf media type.
func (c *ProtoCodec) ContentType() string {
	return "application/x-protobuf"
}

// Marshal encodes v, which must be a proto.Message.
func (c *ProtoCodec) Marshal(v any) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("codec: %T does not implement proto.Message", v)
	}
	return proto.MarshalOptions{Deterministic: c.Deterministic}.Marshal(msg)
}

// Unmarshal decodes data into v, which must be a proto.Message.
func (c *ProtoCodec) Unmarshal(data []byte, v any) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("codec: %T does not implement proto.Message", v)
	}
	return proto.Unmarshal(data, msg)
}
