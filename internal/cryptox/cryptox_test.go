package cryptox

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_DeterministicPerSalt(t *testing.T) {
	k1 := DeriveKey([]byte("passphrase"), []byte("salt-1"))
	k2 := DeriveKey([]byte("passphrase"), []byte("salt-1"))
	k3 := DeriveKey([]byte("passphrase"), []byte("salt-2"))

	assert.Len(t, k1, 32)
	assert.True(t, bytes.Equal(k1, k2), "same inputs must give the same key")
	assert.False(t, bytes.Equal(k1, k3), "different salts must give different keys")
}

func TestHashPassword_RoundTrip(t *testing.T) {
	h := HashPassword("correct horse")
	require.True(t, strings.HasPrefix(h, "$argon2id$v=19$m=65536,t=1,p=4$"), h)

	ok, err := CheckPassword(h, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(h, "battery staple")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_Salted(t *testing.T) {
	assert.NotEqual(t, HashPassword("same"), HashPassword("same"))
}

func TestCheckPassword_Malformed(t *testing.T) {
	for _, bad := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1,t=1,p=1$AAAA$AAAA",
		"$argon2id$v=18$m=65536,t=1,p=4$AAAA$AAAA",
		"$argon2id$v=19$garbage$AAAA$AAAA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$AAAA",
		"$argon2id$v=19$m=65536,t=1,p=4$AAAA$!!!",
	} {
		_, err := CheckPassword(bad, "x")
		assert.ErrorIs(t, err, ErrMalformedHash, bad)
	}
}

func TestSealOpen(t *testing.T) {
	key := DeriveKey([]byte("file passphrase"), []byte("file salt"))

	sealed, err := Seal(key, []byte("hello bob"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "hello bob")

	again, err := Seal(key, []byte("hello bob"))
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := Open(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, "hello bob", string(plain))
}

func TestOpen_Failures(t *testing.T) {
	key := DeriveKey([]byte("k"), []byte("s"))
	sealed, err := Seal(key, []byte("payload"))
	require.NoError(t, err)

	_, err = Open(key, sealed[:5])
	assert.ErrorIs(t, err, ErrCiphertextTooShort)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = Open(key, tampered)
	assert.Error(t, err)

	_, err = Open(DeriveKey([]byte("other"), []byte("s")), sealed)
	assert.Error(t, err)

	_, err = Seal([]byte("short"), []byte("x"))
	assert.Error(t, err)
}

func TestKeyDigest(t *testing.T) {
	d1 := KeyDigest([]byte("secret"), "1111111111")
	d2 := KeyDigest([]byte("secret"), "1111111111")
	d3 := KeyDigest([]byte("other"), "1111111111")
	d4 := KeyDigest([]byte("secret"), "2222222222")

	assert.Len(t, d1, 64)
	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
	assert.NotEqual(t, d1, d4)
	assert.NotContains(t, d1, "1111111111")
}
