package signing_test

import (
	"testing"

	"github.com/baltmart/storefront/pkg/signing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_SignVerify_RoundTrip(t *testing.T) {
	codec := signing.NewCodec("s3cret")

	payload := map[string]string{
		"orderid":  "ref-1234",
		"amount":   "1000",
		"currency": "EUR",
		"status":   "1",
	}

	sig := codec.Sign(payload)
	require.NotEmpty(t, sig)
	assert.True(t, codec.Verify(payload, sig))
}

func TestCodec_Sign_Deterministic(t *testing.T) {
	codec := signing.NewCodec("s3cret")

	payload := map[string]string{"a": "1", "b": "2"}
	assert.Equal(t, codec.Sign(payload), codec.Sign(payload))
}

func TestCodec_Sign_KeyOrderIndependent(t *testing.T) {
	codec := signing.NewCodec("s3cret")

	// Maps iterate in random order; signing must canonicalize by key name.
	first := codec.Sign(map[string]string{"zeta": "z", "alpha": "a", "mid": "m"})
	second := codec.Sign(map[string]string{"alpha": "a", "mid": "m", "zeta": "z"})
	assert.Equal(t, first, second)
}

func TestCodec_Sign_ExcludesSignatureField(t *testing.T) {
	codec := signing.NewCodec("s3cret")

	without := codec.Sign(map[string]string{"a": "1"})
	with := codec.Sign(map[string]string{"a": "1", signing.SignatureField: "garbage"})
	assert.Equal(t, without, with)
}

func TestCodec_Verify_PayloadMutation(t *testing.T) {
	codec := signing.NewCodec("s3cret")

	payload := map[string]string{
		"orderid": "ref-1234",
		"amount":  "1000",
	}
	sig := codec.Sign(payload)

	mutated := map[string]string{
		"orderid": "ref-1234",
		"amount":  "1001", // single byte changed
	}
	assert.False(t, codec.Verify(mutated, sig))
}

func TestCodec_Verify_SignatureMutation(t *testing.T) {
	codec := signing.NewCodec("s3cret")

	payload := map[string]string{"orderid": "ref-1234"}
	sig := codec.Sign(payload)

	// Flip the last character.
	last := sig[len(sig)-1]
	flipped := byte('0')
	if last == '0' {
		flipped = '1'
	}
	mutated := sig[:len(sig)-1] + string(flipped)

	assert.False(t, codec.Verify(payload, mutated))
}

func TestCodec_Verify_EmptySignature(t *testing.T) {
	codec := signing.NewCodec("s3cret")
	assert.False(t, codec.Verify(map[string]string{"a": "1"}, ""))
}

func TestCodec_Verify_WrongSecret(t *testing.T) {
	signer := signing.NewCodec("right-secret")
	verifier := signing.NewCodec("wrong-secret")

	payload := map[string]string{"orderid": "ref-1234"}
	assert.False(t, verifier.Verify(payload, signer.Sign(payload)))
}

func TestCodec_ProviderConventions(t *testing.T) {
	payload := map[string]string{"a": "1", "b": "2"}

	md5Hex := signing.NewCodec("k")
	sha256B64 := signing.NewCodec("k",
		signing.WithAlgorithm(signing.AlgorithmSHA256),
		signing.WithEncoding(signing.EncodingBase64),
	)
	prefixed := signing.NewCodec("k",
		signing.WithSecretPlacement(signing.SecretPrefix),
	)

	assert.NotEqual(t, md5Hex.Sign(payload), sha256B64.Sign(payload))
	assert.NotEqual(t, md5Hex.Sign(payload), prefixed.Sign(payload))
	assert.True(t, sha256B64.Verify(payload, sha256B64.Sign(payload)))
	assert.True(t, prefixed.Verify(payload, prefixed.Sign(payload)))
}

func TestCodec_SeparatorMatters(t *testing.T) {
	pipe := signing.NewCodec("k")
	amp := signing.NewCodec("k", signing.WithSeparator("&"))

	// Without a separator "ab"+"c" and "a"+"bc" would collide.
	first := pipe.Sign(map[string]string{"x": "ab", "y": "c"})
	second := pipe.Sign(map[string]string{"x": "a", "y": "bc"})
	assert.NotEqual(t, first, second)

	assert.NotEqual(t, pipe.Sign(map[string]string{"x": "ab", "y": "c"}), amp.Sign(map[string]string{"x": "ab", "y": "c"}))
}
