package auth

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvToken, "")
	return home
}

func TestGetWithoutTokenReturnsErrNoToken(t *testing.T) {
	isolate(t)
	_, err := Get()
	assert.ErrorIs(t, err, ErrNoToken)

	tok, err := Optional()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	require.NoError(t, Set("file-token", nil))
	t.Setenv(EnvToken, "Bearer env-token")

	ti, err := Get()
	require.NoError(t, err)
	assert.Equal(t, "env-token", ti.Token)
	assert.Equal(t, "env", ti.Source)
}

func TestSetWritesOwnerOnlyFile(t *testing.T) {
	home := isolate(t)
	require.NoError(t, Set("  bearer abc  ", nil))

	p := filepath.Join(home, ".tada", "credentials.json")
	fi, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	ti, err := Get()
	require.NoError(t, err)
	assert.Equal(t, "abc", ti.Token)
	assert.Equal(t, "file", ti.Source)
	assert.Nil(t, ti.ExpiresAt)
}

func TestSetRejectsEmpty(t *testing.T) {
	isolate(t)
	assert.Error(t, Set("  ", nil))
}

func TestDeleteIsIdempotent(t *testing.T) {
	isolate(t)
	require.NoError(t, Set("abc", nil))
	require.NoError(t, Delete())
	require.NoError(t, Delete())

	_, err := Get()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestJWTPayloadAndExpiry(t *testing.T) {
	isolate(t)
	payload := `{"sub":"42","exp":1893456000}`
	token := "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".sig"

	got, ok := JWTPayload(token)
	require.True(t, ok)
	assert.Equal(t, payload, got)

	_, ok = JWTPayload("opaque-token")
	assert.False(t, ok)

	require.NoError(t, Set(token, nil))
	ti, err := Get()
	require.NoError(t, err)
	require.NotNil(t, ti.ExpiresAt)
	assert.Equal(t, time.Unix(1893456000, 0).UTC(), ti.ExpiresAt.UTC())
}
