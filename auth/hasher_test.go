package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashVerifyRoundtrip(t *testing.T) {
	digest, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(digest, "$argon2id$"))
	require.True(t, VerifyPassword("correct horse battery staple", digest))
	require.False(t, VerifyPassword("correct horse battery stable", digest))
}

func TestHashUsesDistinctSalts(t *testing.T) {
	first, err := HashPassword("same password")
	require.NoError(t, err)
	second, err := HashPassword("same password")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.True(t, VerifyPassword("same password", first))
	require.True(t, VerifyPassword("same password", second))
}

func TestVerifyMalformedDigest(t *testing.T) {
	malformed := []string{
		"",
		"plainly not a digest",
		"$argon2id$",
		"$argon2i$v=19$m=65536,t=3,p=2$YWJjZGVmZ2hpamtsbW5vcA$YWJjZA",
		"$argon2id$v=18$m=65536,t=3,p=2$YWJjZGVmZ2hpamtsbW5vcA$YWJjZA",
		"$argon2id$v=19$m=0,t=0,p=0$YWJjZGVmZ2hpamtsbW5vcA$YWJjZA",
		"$argon2id$v=19$m=65536,t=3,p=2$not*base64$YWJjZA",
		"$argon2id$v=19$m=65536,t=3,p=2$YWJjZGVmZ2hpamtsbW5vcA$not*base64",
		"$argon2id$v=19$m=65536,t=3,p=2$$",
	}
	for _, digest := range malformed {
		if VerifyPassword("anything", digest) {
			t.Fatalf("digest %q should not verify", digest)
		}
	}
}

func TestDecoyDigestParses(t *testing.T) {
	// the decoy must be structurally valid so the unknown-email login
	// path burns a real verification
	salt, key, time, memory, threads, ok := parseDigest(decoyDigest)
	require.True(t, ok)
	require.Len(t, salt, saltLen)
	require.Len(t, key, argonKeyLen)
	require.EqualValues(t, argonTime, time)
	require.EqualValues(t, argonMemory, memory)
	require.EqualValues(t, argonThreads, threads)
}
