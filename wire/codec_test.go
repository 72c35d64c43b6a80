package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string            `codec:"name"`
	Tags  map[string]string `codec:"tags"`
	Bytes []byte            `codec:"bytes"`
}

func TestEncodeIsCanonical(t *testing.T) {
	p := payload{
		Name:  "state",
		Tags:  map[string]string{"b": "2", "a": "1", "c": "3"},
		Bytes: []byte{1, 2, 3},
	}

	first, err := Encode(&p)
	require.NoError(t, err)
	for range 32 {
		again, err := Encode(&p)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestRoundTrip(t *testing.T) {
	p := payload{Name: "state", Bytes: []byte{1, 2, 3}}

	data := MustEncode(&p)
	var got payload
	require.NoError(t, Decode(data, &got))
	assert.Equal(t, p, got)

	got = payload{}
	require.NoError(t, DecodeFrom(bytes.NewReader(data), &got))
	assert.Equal(t, p, got)
}

func TestDecodeGarbage(t *testing.T) {
	var got payload
	require.Error(t, Decode([]byte{0xc1, 0xff, 0x00}, &got))
}
