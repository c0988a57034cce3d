package host

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Results of the http_request import. Anything other than HTTPResultOK means
// no response block was allocated.
const (
	HTTPResultOK int32 = iota
	HTTPResultInvalidRequest
	HTTPResultHostNotAllowed
	HTTPResultTransportFailure
	HTTPResultOutOfMemory
)

// Variable names of the HTTP convention.
const (
	requestPrefix       = "request:"
	requestMethod       = "request:method"
	requestURL          = "request:url"
	requestHeaderPrefix = "request:header:"
	requestBody         = "request:body"

	responsePrefix       = "response:"
	responseBody         = "response:body"
	responseHeaderPrefix = "response:header:"
)

// pendingRequest is the request assembled from the request:* variables.
type pendingRequest struct {
	header http.Header
	method string
	url    string
	body   []byte
}

// HTTPRequest performs the request described by the request:* variables.
// The request variables are consumed, stale response variables are cleared,
// and on success the returned offset names a block holding the body whose
// status is available through HTTPStatusCode.
func (s *Session) HTTPRequest(ctx context.Context) (int32, uint64) {
	req, err := s.takeRequest()
	s.clearVars(responsePrefix)
	if err != nil {
		s.logger.Warn("invalid HTTP request", "function", s.function, "error", err)
		return HTTPResultInvalidRequest, 0
	}

	target, _ := url.Parse(req.url)
	if !hostAllowed(target.Hostname(), s.cfg.allowedHosts) {
		s.logger.Warn("HTTP host not allowed", "function", s.function, "host", target.Hostname())
		return HTTPResultHostNotAllowed, 0
	}

	resp, err := s.do(ctx, req)
	if err != nil {
		s.logger.Warn("HTTP request failed", "function", s.function, "method", req.method, "url", req.url, "error", err)
		return HTTPResultTransportFailure, 0
	}

	offset := s.kernel.allocBytes(resp.body)
	if offset == 0 {
		s.logger.Warn("host memory budget exhausted", "requested", len(resp.body), "limit", s.cfg.maxMemoryBytes)
		return HTTPResultOutOfMemory, 0
	}
	s.statuses[offset] = int32(resp.status)
	s.vars[responseBody] = resp.body
	for name, values := range resp.header {
		s.vars[responseHeaderPrefix+http.CanonicalHeaderKey(name)] = []byte(strings.Join(values, ", "))
	}

	s.logger.Debug("HTTP request completed",
		"function", s.function,
		"method", req.method,
		"url", req.url,
		"status", resp.status,
		"bytes", len(resp.body),
		"truncated", resp.truncated,
	)
	return HTTPResultOK, offset
}

// takeRequest builds a request from the request:* variables and removes them.
func (s *Session) takeRequest() (pendingRequest, error) {
	defer s.clearVars(requestPrefix)

	req := pendingRequest{
		method: strings.ToUpper(string(s.vars[requestMethod])),
		url:    string(s.vars[requestURL]),
		header: make(http.Header),
	}
	if req.method == "" {
		req.method = http.MethodGet
	}
	if body, ok := s.vars[requestBody]; ok {
		req.body = body
	}

	names := make([]string, 0)
	for name := range s.vars {
		if strings.HasPrefix(name, requestHeaderPrefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		req.header.Set(strings.TrimPrefix(name, requestHeaderPrefix), string(s.vars[name]))
	}

	if req.url == "" {
		return req, fmt.Errorf("%w: %s is not set", ErrInvalidRequest, requestURL)
	}
	u, err := url.Parse(req.url)
	if err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return req, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidRequest, u.Scheme)
	}
	if u.Hostname() == "" {
		return req, fmt.Errorf("%w: missing host in %q", ErrInvalidRequest, req.url)
	}
	return req, nil
}

func (s *Session) clearVars(prefix string) {
	for name := range s.vars {
		if strings.HasPrefix(name, prefix) {
			delete(s.vars, name)
		}
	}
}

type completedResponse struct {
	header    http.Header
	body      []byte
	status    int
	truncated bool
}

func (s *Session) do(ctx context.Context, req pendingRequest) (completedResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.httpTimeout)
	defer cancel()

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return completedResponse{}, err
	}
	httpReq.Header = req.header

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return completedResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	return readHTTPResponse(resp, s.cfg.maxHTTPResponseBytes)
}

// readHTTPResponse reads the body with size limiting. Bodies over limit are truncated.
func readHTTPResponse(resp *http.Response, limit int64) (completedResponse, error) {
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return completedResponse{}, fmt.Errorf("reading response body: %w", err)
	}

	out := completedResponse{
		status: resp.StatusCode,
		header: resp.Header,
		body:   b,
	}
	if int64(len(b)) > limit {
		out.body = b[:limit]
		out.truncated = true
	}
	if out.body == nil {
		out.body = []byte{}
	}
	return out, nil
}

// createHTTPClient creates the client used by the HTTP primitive.
// Redirects are followed up to ten hops.
func createHTTPClient(cfg config) *http.Client {
	rt := cfg.transport
	if rt != nil && cfg.ssrfProtection {
		rt = &addressCheckTransport{base: rt, allowPrivate: cfg.allowPrivate}
	}
	if rt == nil {
		transport := &http.Transport{
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
		rt = transport
		if cfg.ssrfProtection {
			rt = &dnsPinningTransport{base: transport, allowPrivate: cfg.allowPrivate}
		}
	}

	return &http.Client{
		Timeout:   cfg.httpTimeout,
		Transport: rt,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			if !hostAllowed(req.URL.Hostname(), cfg.allowedHosts) {
				return fmt.Errorf("%w: redirect to %s", ErrHostNotAllowed, req.URL.Hostname())
			}
			return nil
		},
	}
}

// addressCheckTransport rejects blocked addresses before handing the request
// to a caller-supplied transport. The connection itself is not pinned.
type addressCheckTransport struct {
	base         http.RoundTripper
	allowPrivate bool
}

func (t *addressCheckTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if _, err := resolveAddress(req.URL.Hostname(), t.allowPrivate); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// dnsPinningTransport resolves DNS once, validates the address and connects
// directly to it, so a rebinding resolver cannot swap the target mid-request.
type dnsPinningTransport struct {
	base         *http.Transport
	allowPrivate bool
}

func (t *dnsPinningTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	hostname := req.URL.Hostname()
	ip, err := resolveAddress(hostname, t.allowPrivate)
	if err != nil {
		return nil, err
	}

	port := req.URL.Port()
	if port == "" {
		port = "80"
		if req.URL.Scheme == "https" {
			port = "443"
		}
	}

	pinned := t.base.Clone()
	pinned.DialContext = func(ctx context.Context, network, _ string) (net.Conn, error) {
		return (&net.Dialer{}).DialContext(ctx, network, net.JoinHostPort(ip, port))
	}
	if req.URL.Scheme == "https" {
		if pinned.TLSClientConfig == nil {
			pinned.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		// SNI and certificate checks still use the original name.
		pinned.TLSClientConfig.ServerName = hostname
	}
	return pinned.RoundTrip(req)
}
