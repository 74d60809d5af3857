package authUtils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Generate("64b7f0c2a1b2c3d4e5f60718", "volunteer")
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", claims.UserID)
	assert.Equal(t, "volunteer", claims.Role)
}

func TestTokenIssuer_RejectsOtherSecret(t *testing.T) {
	a, _ := NewTokenIssuer("secret-a", time.Hour)
	b, _ := NewTokenIssuer("secret-b", time.Hour)

	token, err := a.Generate("user", "citizen")
	require.NoError(t, err)

	_, err = b.Parse(token)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Generate("user", "citizen")
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.Error(t, err)
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.Error(t, err)
}
