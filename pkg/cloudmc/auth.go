package cloudmc

import "net/http"

// APIKeyHeader carries the API key on every request.
const APIKeyHeader = "MC-Api-Key"

// Authenticator decorates outgoing request headers with credentials.
// Implementations set their credential header and leave all others alone.
type Authenticator interface {
	Authenticate(h http.Header)
}

// AuthenticatorFunc adapts a plain function to Authenticator.
type AuthenticatorFunc func(h http.Header)

// Authenticate calls f(h).
func (f AuthenticatorFunc) Authenticate(h http.Header) { f(h) }

// AuthenticatorFactory builds the authenticator for a client from its options.
type AuthenticatorFactory func(opts Options) (Authenticator, error)

// APIKeyAuthenticator sends a static API key in the MC-Api-Key header.
type APIKeyAuthenticator struct {
	apiKey string
}

// NewAPIKeyAuthenticator returns a ConfigurationError if apiKey is empty.
func NewAPIKeyAuthenticator(apiKey string) (*APIKeyAuthenticator, error) {
	if apiKey == "" {
		return nil, &ConfigurationError{Field: "api_key", Reason: "no API key provided"}
	}
	return &APIKeyAuthenticator{apiKey: apiKey}, nil
}

func (a *APIKeyAuthenticator) Authenticate(h http.Header) {
	h.Set(APIKeyHeader, a.apiKey)
}

// APIKeyAuthenticatorFactory is the default AuthenticatorFactory.
func APIKeyAuthenticatorFactory(opts Options) (Authenticator, error) {
	return NewAPIKeyAuthenticator(opts.APIKey)
}

// BearerAuthenticator sends "Authorization: Bearer <token>".
type BearerAuthenticator struct {
	token string
}

// NewBearerAuthenticator returns a ConfigurationError if token is empty.
func NewBearerAuthenticator(token string) (*BearerAuthenticator, error) {
	if token == "" {
		return nil, &ConfigurationError{Field: "token", Reason: "no bearer token provided"}
	}
	return &BearerAuthenticator{token: token}, nil
}

func (a *BearerAuthenticator) Authenticate(h http.Header) {
	h.Set("Authorization", "Bearer "+a.token)
}
