package cloudmc

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAPIKeyAuthenticator_MissingKey(t *testing.T) {
	_, err := NewAPIKeyAuthenticator("")

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "api_key", cfgErr.Field)
	assert.Equal(t, "configuration", ErrorKind(err))
}

func TestAPIKeyAuthenticator_SetsOnlyItsHeader(t *testing.T) {
	auth, err := NewAPIKeyAuthenticator("k-123")
	require.NoError(t, err)

	h := http.Header{}
	h.Set("X-Request-Id", "r1")
	h.Add("Accept", "application/json")
	auth.Authenticate(h)

	assert.Equal(t, "k-123", h.Get(APIKeyHeader))
	assert.Equal(t, "r1", h.Get("X-Request-Id"))
	assert.Equal(t, "application/json", h.Get("Accept"))
	assert.Len(t, h, 3)
}

func TestAPIKeyAuthenticatorFactory(t *testing.T) {
	_, err := APIKeyAuthenticatorFactory(Options{})
	require.Error(t, err)

	auth, err := APIKeyAuthenticatorFactory(Options{APIKey: "k"})
	require.NoError(t, err)
	h := http.Header{}
	auth.Authenticate(h)
	assert.Equal(t, "k", h.Get("MC-Api-Key"))
}

func TestBearerAuthenticator(t *testing.T) {
	_, err := NewBearerAuthenticator("")
	require.Error(t, err)

	auth, err := NewBearerAuthenticator("tok")
	require.NoError(t, err)
	h := http.Header{}
	auth.Authenticate(h)
	assert.Equal(t, "Bearer tok", h.Get("Authorization"))
}

func TestAuthenticatorFunc(t *testing.T) {
	var auth Authenticator = AuthenticatorFunc(func(h http.Header) {
		h.Set("X-Signature", "sig")
	})
	h := http.Header{}
	auth.Authenticate(h)
	assert.Equal(t, "sig", h.Get("X-Signature"))
}
