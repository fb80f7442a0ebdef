// Package signing computes and verifies provider message-authentication
// signatures over canonical key/value payloads.
package signing

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"sort"
	"strings"
)

// Algorithm selects the digest used by a provider.
type Algorithm string

const (
	AlgorithmMD5    Algorithm = "md5"
	AlgorithmSHA256 Algorithm = "sha256"
)

// Encoding selects how the digest bytes are rendered.
type Encoding string

const (
	EncodingHex    Encoding = "hex"
	EncodingBase64 Encoding = "base64"
)

// SecretPlacement selects where the shared secret enters the canonical string.
type SecretPlacement string

const (
	SecretPrefix SecretPlacement = "prefix"
	SecretSuffix SecretPlacement = "suffix"
)

// SignatureField is the payload key that carries the signature itself.
// It is always excluded from canonicalization.
const SignatureField = "sign"

// Codec signs and verifies payloads for a single provider convention.
// A Codec is pure: the same payload and secret always produce the same
// signature, and no state is retained between calls.
type Codec struct {
	secret    string
	algorithm Algorithm
	encoding  Encoding
	placement SecretPlacement
	separator string
}

// Option configures a Codec.
type Option func(*Codec)

// WithAlgorithm sets the digest algorithm.
func WithAlgorithm(a Algorithm) Option {
	return func(c *Codec) { c.algorithm = a }
}

// WithEncoding sets the signature encoding.
func WithEncoding(e Encoding) Option {
	return func(c *Codec) { c.encoding = e }
}

// WithSecretPlacement sets whether the secret is prepended or appended
// to the canonical string.
func WithSecretPlacement(p SecretPlacement) Option {
	return func(c *Codec) { c.placement = p }
}

// WithSeparator sets the value separator used in canonicalization.
func WithSeparator(sep string) Option {
	return func(c *Codec) { c.separator = sep }
}

// NewCodec creates a codec for the given shared secret. Defaults match the
// payment provider convention: MD5 digest, hex encoding, secret appended,
// values joined with "|".
func NewCodec(secret string, opts ...Option) *Codec {
	c := &Codec{
		secret:    secret,
		algorithm: AlgorithmMD5,
		encoding:  EncodingHex,
		placement: SecretSuffix,
		separator: "|",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sign computes the signature over the canonical form of payload.
// The SignatureField key is ignored if present.
func (c *Codec) Sign(payload map[string]string) string {
	canonical := c.canonicalize(payload)

	var digest []byte
	switch c.algorithm {
	case AlgorithmSHA256:
		sum := sha256.Sum256([]byte(canonical))
		digest = sum[:]
	default:
		sum := md5.Sum([]byte(canonical))
		digest = sum[:]
	}

	if c.encoding == EncodingBase64 {
		return base64.StdEncoding.EncodeToString(digest)
	}
	return hex.EncodeToString(digest)
}

// Verify recomputes the signature for payload and compares it against the
// provided one. The comparison is constant-time so verification cannot leak
// secret-dependent timing.
func (c *Codec) Verify(payload map[string]string, signature string) bool {
	if signature == "" {
		return false
	}
	expected := c.Sign(payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// canonicalize builds the string to digest: payload values sorted by key,
// joined with the separator, with the secret placed per provider convention.
func (c *Codec) canonicalize(payload map[string]string) string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		if key == SignatureField {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, key := range keys {
		values = append(values, payload[key])
	}
	joined := strings.Join(values, c.separator)

	if c.placement == SecretPrefix {
		return c.secret + joined
	}
	return joined + c.secret
}
