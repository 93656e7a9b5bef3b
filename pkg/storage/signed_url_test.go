package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("export-1", "exports/attendance.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	id, key, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "export-1", id)
	assert.Equal(t, "exports/attendance.csv", key)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("export-1", "exports/attendance.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, _, err = signer.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedURLSignerTampered(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("export-1", "exports/attendance.csv")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Hour)
	_, _, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrTokenSignature)

	_, _, err = signer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestSignedURLSignerRejectsBadInput(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	_, _, err := signer.Generate("", "key")
	assert.Error(t, err)
	_, _, err = signer.Generate("a.b", "key")
	assert.Error(t, err)
	_, _, err = NewSignedURLSigner("", time.Hour).Generate("id", "key")
	assert.Error(t, err)
}
