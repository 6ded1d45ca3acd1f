package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/obsidianstack/showroom/pkg/types"
	"github.com/obsidianstack/showroom/viewer/internal/config"
)

var (
	errMalformed = errors.New("malformed JSON body")
	errNotArray  = errors.New("response body is not a JSON array")
)

// Fetcher retrieves one collection from a fixed endpoint.
type Fetcher struct {
	endpoint string
	client   *http.Client
}

// New returns a Fetcher bound to src.Endpoint.
func New(src config.Source) (*Fetcher, error) {
	if src.Endpoint == "" {
		return nil, fmt.Errorf("fetcher: endpoint is required")
	}
	return &Fetcher{
		endpoint: src.Endpoint,
		client:   buildHTTPClient(src),
	}, nil
}

// Endpoint returns the URL this Fetcher requests.
func (f *Fetcher) Endpoint() string { return f.endpoint }

// Fetch performs one GET against the endpoint and decodes the body as an
// ordered collection. The body is not schema-checked: any JSON array is
// accepted and its elements are kept verbatim.
func (f *Fetcher) Fetch(ctx context.Context) (types.Collection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, f.fail(0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, f.fail(resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, f.fail(0, fmt.Errorf("read body: %w", err))
	}

	records, err := decode(body)
	if err != nil {
		return nil, f.fail(0, err)
	}
	slog.Debug("fetcher: collection received", "endpoint", f.endpoint, "records", len(records))
	return records, nil
}

func (f *Fetcher) fail(status int, err error) *FetchError {
	return &FetchError{Endpoint: f.endpoint, StatusCode: status, Err: err}
}

// decode splits a JSON array into verbatim records.
func decode(body []byte) (types.Collection, error) {
	if !gjson.ValidBytes(body) {
		return nil, errMalformed
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, errNotArray
	}
	out := make(types.Collection, 0)
	doc.ForEach(func(_, value gjson.Result) bool {
		out = append(out, types.NewRecord([]byte(value.Raw)))
		return true
	})
	return out, nil
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.Header, t.auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "basic":
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.auth.Username, t.auth.Password())
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs the client for src. A zero Timeout leaves the
// request unbounded.
func buildHTTPClient(src config.Source) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: src.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}
	return &http.Client{
		Transport: &authRoundTripper{base: transport, auth: src.Auth},
		Timeout:   src.Timeout,
	}
}
