package cloudmc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Fetcher performs one authenticated request/response round trip and
// returns the decoded JSON body.
type Fetcher interface {
	Fetch(ctx context.Context, method, url string, body any) (any, error)
}

// HTTPFetcher is the default Fetcher, backed by an http.Client.
type HTTPFetcher struct {
	httpClient    *http.Client
	authenticator Authenticator
	logger        hclog.Logger
}

// NewHTTPFetcher creates a fetcher that decorates every request with auth.
// A nil httpClient gets the default instrumented client.
func NewHTTPFetcher(httpClient *http.Client, auth Authenticator, logger hclog.Logger) *HTTPFetcher {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &HTTPFetcher{
		httpClient:    httpClient,
		authenticator: auth,
		logger:        logger,
	}
}

// NewHTTPClient returns an http.Client traced with OpenTelemetry.
// A zero timeout means 30 seconds.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(transport),
	}
}

// Fetch sends the request and decodes the response. Every failure is a
// *TransportError.
func (f *HTTPFetcher) Fetch(ctx context.Context, method, url string, body any) (any, error) {
	bodyReader, err := encodeBody(body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: fmt.Errorf("marshaling body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	if f.authenticator != nil {
		f.authenticator.Authenticate(req.Header)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}
	f.logger.Debug("api request", "method", method, "url", url, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil, nil
	}
	var decoded any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, &TransportError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        fmt.Errorf("parsing response: %w", err),
		}
	}
	return decoded, nil
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return bytes.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}
