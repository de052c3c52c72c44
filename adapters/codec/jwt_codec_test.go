package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calyptra/gatehouse/core"
)

var testSecret = []byte("test-secret-do-not-use-in-production")

func TestMintVerifyRoundTrip(t *testing.T) {
	c, err := New(testSecret)
	require.NoError(t, err)

	token, err := c.Mint("alice", core.PurposeAccess, 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	info, err := c.Verify(token, core.PurposeAccess)
	require.NoError(t, err)
	require.Equal(t, "alice", info.Subject)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), info.ExpiresAt, 5*time.Second)
}

func TestVerifyExpired(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c, err := NewWithTimeFunc(testSecret, func() time.Time { return current })
	require.NoError(t, err)

	token, err := c.Mint("alice", core.PurposeAccess, 900*time.Second)
	require.NoError(t, err)

	_, err = c.Verify(token, core.PurposeAccess)
	require.NoError(t, err)

	current = current.Add(901 * time.Second)
	_, err = c.Verify(token, core.PurposeAccess)
	require.ErrorIs(t, err, core.ErrExpired)
}

func TestVerifyTamperedToken(t *testing.T) {
	c, err := New(testSecret)
	require.NoError(t, err)

	token, err := c.Mint("alice", core.PurposeAccess, time.Minute)
	require.NoError(t, err)

	// Flip one character in the signature segment. Not the very last one:
	// its low bits are unused by base64 and a flip there can decode to the
	// same signature.
	raw := []byte(token)
	pos := len(raw) - 2
	if raw[pos] == 'A' {
		raw[pos] = 'B'
	} else {
		raw[pos] = 'A'
	}

	_, err = c.Verify(string(raw), core.PurposeAccess)
	require.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestVerifyWrongSecret(t *testing.T) {
	c1, err := New(testSecret)
	require.NoError(t, err)
	c2, err := New([]byte("another-secret"))
	require.NoError(t, err)

	token, err := c1.Mint("alice", core.PurposeAccess, time.Minute)
	require.NoError(t, err)

	_, err = c2.Verify(token, core.PurposeAccess)
	require.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestVerifyPurposeMismatch(t *testing.T) {
	c, err := New(testSecret)
	require.NoError(t, err)

	refresh, err := c.Mint("alice", core.PurposeRefresh, time.Hour)
	require.NoError(t, err)

	// A refresh token must not be usable where an access token is expected.
	_, err = c.Verify(refresh, core.PurposeAccess)
	require.ErrorIs(t, err, core.ErrMalformed)

	access, err := c.Mint("alice", core.PurposeAccess, time.Minute)
	require.NoError(t, err)
	_, err = c.Verify(access, core.PurposeRefresh)
	require.ErrorIs(t, err, core.ErrMalformed)
}

func TestVerifyGarbage(t *testing.T) {
	c, err := New(testSecret)
	require.NoError(t, err)

	for _, token := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, err = c.Verify(token, core.PurposeAccess)
		require.ErrorIs(t, err, core.ErrMalformed, "token %q", token)
	}
}

func TestMintedTokensAreUnique(t *testing.T) {
	c, err := New(testSecret)
	require.NoError(t, err)

	a, err := c.Mint("alice", core.PurposeRefresh, time.Hour)
	require.NoError(t, err)
	b, err := c.Mint("alice", core.PurposeRefresh, time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestNewMissingSecret(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestStripBearer(t *testing.T) {
	require.Equal(t, "abc", core.StripBearer("Bearer abc"))
	require.Equal(t, "abc", core.StripBearer("abc"))
}
