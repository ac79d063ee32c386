package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/socially/internal/shared"
	"golang.org/x/oauth2"
)

// maxErrorBody bounds the response text kept on a [shared.StatusError].
const maxErrorBody = 512

// StaticToken returns an [oauth2.TokenSource] for a fixed bearer token, or nil when token is empty.
func StaticToken(token string) oauth2.TokenSource {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

// bearer reads the current access token from ts.
func bearer(ts oauth2.TokenSource, what string) (string, error) {
	if ts == nil {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingCredential, what)
	}
	tok, err := ts.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", shared.ErrMissingCredential, what, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingCredential, what)
	}
	return tok.AccessToken, nil
}

// apiClient builds requests against one provider base URL and checks response status.
type apiClient struct {
	provider  string
	baseURL   *url.URL
	transport Transport
	logger    *log.Logger
}

func newAPIClient(provider, baseURL string, transport Transport, logger *log.Logger) (*apiClient, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base url %q", shared.ErrInvalidConfig, baseURL)
	}
	if transport == nil {
		transport = NewHTTPTransport(TransportOpts{Logger: logger})
	}
	return &apiClient{provider: provider, baseURL: u, transport: transport, logger: logger}, nil
}

// resolve turns an endpoint path, an absolute next-page URL, or a host-relative cursor into a request URL.
func (c *apiClient) resolve(path string, query url.Values) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: invalid path %q: %v", shared.ErrMalformedRequest, path, err)
	}

	u := c.baseURL.ResolveReference(ref)
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			q[k] = vs
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// send performs one request and returns the response when its status is 2xx.
func (c *apiClient) send(ctx context.Context, method, path string, query url.Values, header http.Header, body any) (*Response, error) {
	target, err := c.resolve(path, query)
	if err != nil {
		return nil, err
	}

	if header == nil {
		header = http.Header{}
	}
	header.Set("Accept", "application/json")

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to encode request body: %v", shared.ErrMalformedRequest, err)
		}
		header.Set("Content-Type", "application/json")
	}

	resp, err := c.transport.Send(ctx, &Request{
		Provider: c.provider,
		Method:   method,
		URL:      target,
		Header:   header,
		Body:     payload,
	})
	if err != nil {
		if shared.Classify(err) == shared.KindUnknown {
			return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
		}
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := strings.TrimSpace(string(resp.Body))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		c.logger.Debug("provider rejected request", "provider", c.provider, "method", method, "url", target, "status", resp.StatusCode)
		return nil, &shared.StatusError{StatusCode: resp.StatusCode, Method: method, URL: target, Body: text}
	}

	return resp, nil
}

// getJSON performs a GET and decodes the body into T. A 204 or empty body is [shared.ErrNoData].
func getJSON[T any](ctx context.Context, c *apiClient, path string, query url.Values, header http.Header) (T, error) {
	var zero T

	resp, err := c.send(ctx, http.MethodGet, path, query, header, nil)
	if err != nil {
		return zero, err
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(resp.Body)) == 0 {
		return zero, fmt.Errorf("%w: %s returned no content", shared.ErrNoData, path)
	}

	return decodeJSON[T](resp.Body)
}

// pathSegment escapes a single id for use in a path, rejecting empty ids.
func pathSegment(name, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: empty %s", shared.ErrMalformedRequest, name)
	}
	return url.PathEscape(id), nil
}
