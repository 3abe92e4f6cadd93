package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestURLSignerRoundTrip(t *testing.T) {
	signer, err := NewURLSigner("media-secret")
	require.NoError(t, err)

	token, err := signer.Sign("ceremony/photo.jpg", time.Hour)
	require.NoError(t, err)

	objectPath, ok := signer.Verify(token)
	require.True(t, ok)
	require.Equal(t, "ceremony/photo.jpg", objectPath)
}

func TestURLSignerExpiry(t *testing.T) {
	now := time.Now()
	clock := &now
	signer, err := NewURLSigner("media-secret", WithSignerClock(func() time.Time { return *clock }))
	require.NoError(t, err)

	token, err := signer.Sign("ceremony/photo.jpg", time.Minute)
	require.NoError(t, err)

	*clock = now.Add(59 * time.Second)
	_, ok := signer.Verify(token)
	require.True(t, ok)

	*clock = now.Add(time.Minute)
	_, ok = signer.Verify(token)
	require.False(t, ok)
}

func TestURLSignerRejectsTamperedTokens(t *testing.T) {
	signer, err := NewURLSigner("media-secret")
	require.NoError(t, err)

	token, err := signer.Sign("ceremony/photo.jpg", time.Hour)
	require.NoError(t, err)

	payload, sig, found := strings.Cut(token, ".")
	require.True(t, found)

	other, err := signer.Sign("reception/other.jpg", time.Hour)
	require.NoError(t, err)
	otherPayload, _, _ := strings.Cut(other, ".")

	// Signature from one token cannot authorise another path.
	_, ok := signer.Verify(otherPayload + "." + sig)
	require.False(t, ok)

	for _, bad := range []string{"", ".", payload, payload + ".", "." + sig, "not-a-token"} {
		_, ok := signer.Verify(bad)
		require.False(t, ok, "token %q", bad)
	}
}

func TestURLSignerDifferentSecret(t *testing.T) {
	a, err := NewURLSigner("secret-a")
	require.NoError(t, err)
	b, err := NewURLSigner("secret-b")
	require.NoError(t, err)

	token, err := a.Sign("ceremony/photo.jpg", time.Hour)
	require.NoError(t, err)

	_, ok := b.Verify(token)
	require.False(t, ok)
}

func TestNewURLSignerRequiresSecret(t *testing.T) {
	_, err := NewURLSigner("   ")
	require.Error(t, err)
}
