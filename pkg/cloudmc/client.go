package cloudmc

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Options configures a Client. Authenticator and Resolver are factories so
// alternate credential schemes or resolution strategies can be plugged in
// per client; nil means APIKeyAuthenticatorFactory and PollingResolverFactory.
type Options struct {
	// Endpoint is filled in by New from its endpoint argument.
	Endpoint string

	// APIKey is read by APIKeyAuthenticatorFactory.
	APIKey string

	Authenticator AuthenticatorFactory
	Resolver      ResolverFactory

	// HTTPClient overrides the default instrumented client.
	HTTPClient *http.Client
	// Timeout applies to the default client only. Default: 30 seconds.
	Timeout time.Duration

	Polling PollingConfig
	Logger  hclog.Logger
	Metrics *Metrics
}

// Client is the entry point of the library. It is safe for concurrent use;
// its configuration is read-only after New.
type Client struct {
	endpoint   string
	dispatcher *Dispatcher
}

// New creates a client for the API at endpoint. It fails with a
// ConfigurationError when the endpoint or a required credential is missing.
func New(endpoint string, opts Options) (*Client, error) {
	endpoint = strings.TrimRight(endpoint, "/")
	if endpoint == "" {
		return nil, &ConfigurationError{Field: "endpoint", Reason: "no endpoint provided"}
	}
	if u, err := url.Parse(endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &ConfigurationError{Field: "endpoint", Reason: "must be an absolute URL, got " + endpoint}
	}
	opts.Endpoint = endpoint

	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.Authenticator == nil {
		opts.Authenticator = APIKeyAuthenticatorFactory
	}
	if opts.Resolver == nil {
		opts.Resolver = PollingResolverFactory
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = NewHTTPClient(opts.Timeout)
	}

	auth, err := opts.Authenticator(opts)
	if err != nil {
		return nil, err
	}
	fetcher := NewHTTPFetcher(opts.HTTPClient, auth, opts.Logger.Named("fetcher"))

	resolver, err := opts.Resolver(opts, fetcher)
	if err != nil {
		return nil, err
	}

	return &Client{
		endpoint:   endpoint,
		dispatcher: NewDispatcher(endpoint, fetcher, resolver, opts.Logger, opts.Metrics),
	}, nil
}

// Endpoint returns the API base URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Dispatcher exposes the low-level dispatcher.
func (c *Client) Dispatcher() *Dispatcher { return c.dispatcher }

// Service selects a service/environment pair.
func (c *Client) Service(serviceCode, environmentName string) *Environment {
	return &Environment{
		client: c,
		coord: ServiceCoordinate{
			ServiceCode:     serviceCode,
			EnvironmentName: environmentName,
		},
	}
}

// Environment is a client bound to one ServiceCoordinate.
type Environment struct {
	client *Client
	coord  ServiceCoordinate
}

// Coordinate returns the service/environment pair.
func (e *Environment) Coordinate() ServiceCoordinate { return e.coord }

// Entity selects an entity type, e.g. "instances".
func (e *Environment) Entity(entityType string) *Entity {
	return &Entity{
		dispatcher: e.client.dispatcher,
		target:     e.coord.Entity(entityType),
	}
}
