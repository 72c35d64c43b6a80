package schemes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iykyk-syn/restate/crypto"
	"github.com/iykyk-syn/restate/crypto/ed25519"
	"github.com/iykyk-syn/restate/crypto/nistp256"
	"github.com/iykyk-syn/restate/crypto/secp256k1"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	payload := []byte("replace state 42 of tx deadbeef")
	for _, s := range List() {
		t.Run(s.CodeName, func(t *testing.T) {
			pair, err := GenerateKeys(s.CodeName)
			require.NoError(t, err)

			sig, err := Sign(pair.Private, payload)
			require.NoError(t, err)

			ok, err := Verify(pair.Public, sig, payload)
			require.NoError(t, err)
			assert.True(t, ok)
			require.NoError(t, VerifyStrict(pair.Public, sig, payload))

			// a mismatch is a boolean false, but a strict failure
			tampered := append([]byte("tampered "), payload...)
			ok, err = Verify(pair.Public, sig, tampered)
			require.NoError(t, err)
			assert.False(t, ok)
			err = VerifyStrict(pair.Public, sig, tampered)
			require.ErrorIs(t, err, crypto.ErrVerificationFailed)
		})
	}
}

func TestEmptyInputs(t *testing.T) {
	for _, s := range List() {
		t.Run(s.CodeName, func(t *testing.T) {
			pair, err := GenerateKeys(s.CodeName)
			require.NoError(t, err)

			_, err = Sign(pair.Private, nil)
			require.ErrorIs(t, err, crypto.ErrEmptyPayload)

			sig, err := Sign(pair.Private, []byte("payload"))
			require.NoError(t, err)

			_, err = Verify(pair.Public, sig, nil)
			require.ErrorIs(t, err, crypto.ErrEmptyPayload)
			_, err = Verify(pair.Public, nil, []byte("payload"))
			require.ErrorIs(t, err, crypto.ErrEmptySignature)
			require.ErrorIs(t, VerifyStrict(pair.Public, sig, nil), crypto.ErrEmptyPayload)
			require.ErrorIs(t, VerifyStrict(pair.Public, nil, []byte("payload")), crypto.ErrEmptySignature)
		})
	}
}

func TestByKey(t *testing.T) {
	for _, s := range List() {
		pair, err := GenerateKeys(s.CodeName)
		require.NoError(t, err)

		inferred, err := ByKey(pair.Public)
		require.NoError(t, err)
		assert.Equal(t, s.CodeName, inferred.CodeName)

		inferred, err = ByKey(pair.Private)
		require.NoError(t, err)
		assert.Equal(t, s.CodeName, inferred.CodeName)
	}
}

func TestRegistry(t *testing.T) {
	assert.Len(t, List(), 5)
	assert.Equal(t, ed25519.CodeName, Default().CodeName)
	assert.True(t, Supported(secp256k1.CodeName))
	assert.False(t, Supported("DSA_SHA1"))

	_, err := ByName("DSA_SHA1")
	require.ErrorIs(t, err, crypto.ErrUnsupportedScheme)
	_, err = GenerateKeys("DSA_SHA1")
	require.ErrorIs(t, err, crypto.ErrUnsupportedScheme)

	pair, err := Generate()
	require.NoError(t, err)
	assert.Equal(t, ed25519.CodeName, pair.Private.Type())
}

func TestKeyCodecRoundTrip(t *testing.T) {
	payload := []byte("codec round trip payload")
	for _, s := range List() {
		t.Run(s.CodeName, func(t *testing.T) {
			pair, err := GenerateKeys(s.CodeName)
			require.NoError(t, err)

			privDER, err := EncodePrivateKey(pair.Private)
			require.NoError(t, err)
			pubDER, err := EncodePublicKey(pair.Public)
			require.NoError(t, err)

			// scheme-unspecified trial decode must land on the original
			// scheme, including telling the two elliptic curves apart
			priv, err := DecodePrivateKey(privDER)
			require.NoError(t, err)
			assert.Equal(t, s.CodeName, priv.Type())
			pub, err := DecodePublicKey(pubDER)
			require.NoError(t, err)
			assert.Equal(t, s.CodeName, pub.Type())
			assert.True(t, pub.Equals(pair.Public.Bytes()))

			// decoded keys must be interchangeable with the originals
			sig, err := Sign(priv, payload)
			require.NoError(t, err)
			require.NoError(t, VerifyStrict(pair.Public, sig, payload))
			sig, err = Sign(pair.Private, payload)
			require.NoError(t, err)
			require.NoError(t, VerifyStrict(pub, sig, payload))
		})
	}
}

func TestKeyCodecDirectPath(t *testing.T) {
	pair, err := GenerateKeys(nistp256.CodeName)
	require.NoError(t, err)

	privDER, err := EncodePrivateKey(pair.Private)
	require.NoError(t, err)
	pubDER, err := EncodePublicKey(pair.Public)
	require.NoError(t, err)

	priv, err := DecodePrivateKeyAs(nistp256.CodeName, privDER)
	require.NoError(t, err)
	assert.Equal(t, nistp256.CodeName, priv.Type())

	// the direct path never falls back to another scheme
	_, err = DecodePrivateKeyAs(secp256k1.CodeName, privDER)
	require.Error(t, err)
	_, err = DecodePublicKeyAs(secp256k1.CodeName, pubDER)
	require.Error(t, err)
	_, err = DecodePrivateKeyAs("DSA_SHA1", privDER)
	require.ErrorIs(t, err, crypto.ErrUnsupportedScheme)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := DecodePrivateKey([]byte("not a PKCS#8 container"))
	require.ErrorIs(t, err, crypto.ErrKeyDecode)
	_, err = DecodePublicKey([]byte("not a SubjectPublicKeyInfo"))
	require.ErrorIs(t, err, crypto.ErrKeyDecode)
}

func TestSignAs(t *testing.T) {
	pair, err := GenerateKeys(ed25519.CodeName)
	require.NoError(t, err)

	_, err = SignAs(ed25519.CodeName, pair.Private, []byte("payload"))
	require.NoError(t, err)
	_, err = SignAs(nistp256.CodeName, pair.Private, []byte("payload"))
	require.ErrorIs(t, err, crypto.ErrSchemeMismatch)
	_, err = SignAs("DSA_SHA1", pair.Private, []byte("payload"))
	require.ErrorIs(t, err, crypto.ErrUnsupportedScheme)
}

func TestEnvelopes(t *testing.T) {
	pair, err := Generate()
	require.NoError(t, err)

	meta := crypto.MetaData{
		SchemeCodeName: pair.Private.Type(),
		PubKey:         pair.Public.Bytes(),
		Payload:        []byte("content digest"),
	}
	env, err := SignEnvelope(pair.Private, meta)
	require.NoError(t, err)
	require.NoError(t, VerifyEnvelope(pair.Public, env))

	// envelope bound to a different key
	other, err := Generate()
	require.NoError(t, err)
	require.ErrorIs(t, VerifyEnvelope(other.Public, env), crypto.ErrKeyMismatch)

	// metadata declaring a scheme the key does not belong to
	meta.SchemeCodeName = nistp256.CodeName
	_, err = SignEnvelope(pair.Private, meta)
	require.ErrorIs(t, err, crypto.ErrSchemeMismatch)
}
