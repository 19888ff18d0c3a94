package rewardsv1

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
)

// CodecName is the gRPC content-subtype under which messages travel. The
// codec replaces grpc's default "proto" codec: rewards.v1 messages use their
// own protobuf encoders and any other proto.Message is handed to proto.
const CodecName = "proto"

// wireMessage is implemented by every rewards.v1 message. Field numbers are
// listed in rewards.proto.
type wireMessage interface {
	appendWire(b []byte) []byte
	// consumeField decodes one field value from b and reports the bytes read.
	// Zero marks an unknown field, negative values are protowire error codes.
	consumeField(num protowire.Number, typ protowire.Type, b []byte) int
}

type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case wireMessage:
		return m.appendWire(nil), nil
	case proto.Message:
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("rewardsv1: marshal %T: not a protobuf message", v)
}

func (codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case wireMessage:
		if n := decode(data, m); n < 0 {
			return fmt.Errorf("rewardsv1: unmarshal %T: %w", v, protowire.ParseError(n))
		}
		return nil
	case proto.Message:
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("rewardsv1: unmarshal %T: not a protobuf message", v)
}

func (codec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(codec{})
}

// CallOption pins client calls to the rewards codec.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(CodecName)
}

func decode(b []byte, m wireMessage) int {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return n
		}
		b = b[n:]
		n = m.consumeField(num, typ, b)
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return n
		}
		b = b[n:]
	}
	return 0
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendStrings(b []byte, num protowire.Number, vs []string) []byte {
	for _, v := range vs {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, v)
	}
	return b
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendMessage(b []byte, num protowire.Number, m wireMessage) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.appendWire(nil))
}

func consumeString(typ protowire.Type, b []byte, dst *string) int {
	if typ != protowire.BytesType {
		return 0
	}
	v, n := protowire.ConsumeString(b)
	if n >= 0 {
		*dst = v
	}
	return n
}

func consumeStrings(typ protowire.Type, b []byte, dst *[]string) int {
	var v string
	n := consumeString(typ, b, &v)
	if n > 0 {
		*dst = append(*dst, v)
	}
	return n
}

func consumeUint64(typ protowire.Type, b []byte, dst *uint64) int {
	if typ != protowire.VarintType {
		return 0
	}
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		*dst = v
	}
	return n
}

func consumeUint32(typ protowire.Type, b []byte, dst *uint32) int {
	var v uint64
	n := consumeUint64(typ, b, &v)
	if n > 0 {
		*dst = uint32(v)
	}
	return n
}

func consumeBool(typ protowire.Type, b []byte, dst *bool) int {
	var v uint64
	n := consumeUint64(typ, b, &v)
	if n > 0 {
		*dst = protowire.DecodeBool(v)
	}
	return n
}

func consumeMessage(typ protowire.Type, b []byte, m wireMessage) int {
	if typ != protowire.BytesType {
		return 0
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n
	}
	if code := decode(v, m); code < 0 {
		return code
	}
	return n
}
