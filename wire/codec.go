// Package wire provides the canonical binary encoding used across the module.
//
// Every byte sequence that gets hashed or signed (transaction bytes, signature
// metadata) and every message that crosses the network is encoded here, so the
// encoding must be deterministic: the handle is configured for canonical
// output and strict decoding.
package wire

import (
	"fmt"
	"io"

	"github.com/algorand/go-codec/codec"
)

// CodecHandle is used to instantiate msgpack encoders and decoders with our
// settings (canonical, paranoid about decoding errors).
var CodecHandle *codec.MsgpackHandle

func init() {
	CodecHandle = new(codec.MsgpackHandle)
	CodecHandle.ErrorIfNoField = true
	CodecHandle.ErrorIfNoArrayExpand = true
	CodecHandle.Canonical = true
	CodecHandle.WriteExt = true
	CodecHandle.PositiveIntUnsigned = true
}

// Encode returns the canonical msgpack encoding of obj.
func Encode(obj interface{}) ([]byte, error) {
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, CodecHandle)
	if err := enc.Encode(obj); err != nil {
		return nil, fmt.Errorf("encoding %T: %w", obj, err)
	}
	return buf, nil
}

// MustEncode is Encode for objects that cannot fail to encode,
// e.g. plain structs of scalars, byte slices and slices thereof.
func MustEncode(obj interface{}) []byte {
	buf, err := Encode(obj)
	if err != nil {
		panic(err)
	}
	return buf
}

// Decode decodes the canonical msgpack encoding into objptr.
func Decode(buf []byte, objptr interface{}) error {
	dec := codec.NewDecoderBytes(buf, CodecHandle)
	if err := dec.Decode(objptr); err != nil {
		return fmt.Errorf("decoding %T: %w", objptr, err)
	}
	return nil
}

// DecodeFrom decodes one object from the reader.
func DecodeFrom(r io.Reader, objptr interface{}) error {
	dec := codec.NewDecoder(r, CodecHandle)
	if err := dec.Decode(objptr); err != nil {
		return fmt.Errorf("decoding %T: %w", objptr, err)
	}
	return nil
}
