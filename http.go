package pdk

import (
	"fmt"
	"net/textproto"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a package-level singleton; validators cache struct metadata.
var validate = validator.New()

// HTTP methods accepted by SendRequest.
const (
	MethodGet     = "GET"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodDelete  = "DELETE"
	MethodPatch   = "PATCH"
	MethodHead    = "HEAD"
	MethodOptions = "OPTIONS"
)

// Variable names of the host HTTP convention.
const (
	varRequestMethod        = "request:method"
	varRequestURL           = "request:url"
	varRequestHeaderPrefix  = "request:header:"
	varRequestBody          = "request:body"
	varResponseBody         = "response:body"
	varResponseHeaderPrefix = "response:header:"
)

// HTTPRequest describes one outbound request. A nil Body sends no body;
// a non-nil empty Body is sent as an empty body.
type HTTPRequest struct {
	Headers map[string]string
	Method  string `validate:"required,oneof=GET POST PUT DELETE PATCH HEAD OPTIONS"`
	URL     string `validate:"required,url"`
	Body    []byte
}

// NewHTTPRequest creates a request with no headers and no body.
func NewHTTPRequest(method, url string) *HTTPRequest {
	return &HTTPRequest{
		Method:  strings.ToUpper(method),
		URL:     url,
		Headers: map[string]string{},
	}
}

// SetHeader sets a request header, replacing any previous value.
func (r *HTTPRequest) SetHeader(name, value string) *HTTPRequest {
	if r.Headers == nil {
		r.Headers = map[string]string{}
	}
	r.Headers[name] = value
	return r
}

// SetBody sets the request body.
func (r *HTTPRequest) SetBody(body []byte) *HTTPRequest {
	r.Body = body
	return r
}

// HTTPResponse is a response held by the host. Status, body and headers are
// fetched from the host on each call. Close must be called to release the
// host block; after Close every accessor returns its zero value.
type HTTPResponse struct {
	memory *Memory
}

// Status returns the HTTP status code.
func (r *HTTPResponse) Status() int {
	if r.closed() {
		return 0
	}
	return int(current.HTTPStatusCode(r.memory.Offset()))
}

// Body returns the response body.
func (r *HTTPResponse) Body() []byte {
	if r.closed() {
		return nil
	}
	b, _ := GetVar(varResponseBody)
	return b
}

// Header returns the value of a response header and whether the response
// carried it. Multiple values are joined with ", ".
func (r *HTTPResponse) Header(name string) (string, bool) {
	if r.closed() {
		return "", false
	}
	return GetVarString(varResponseHeaderPrefix + textproto.CanonicalMIMEHeaderKey(name))
}

// Close releases the response block. Further calls are no-ops.
func (r *HTTPResponse) Close() {
	if r == nil {
		return
	}
	r.memory.Free()
}

func (r *HTTPResponse) closed() bool {
	return r == nil || r.memory == nil || r.memory.Released()
}

// SendRequest writes req into the request:* variables and asks the host to
// perform it. A non-zero host status yields an *HTTPError and no response.
func SendRequest(req *HTTPRequest) (*HTTPResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid HTTP request: %w", err)
	}

	SetVarString(varRequestMethod, req.Method)
	SetVarString(varRequestURL, req.URL)

	names := make([]string, 0, len(req.Headers))
	for name := range req.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		SetVarString(varRequestHeaderPrefix+name, req.Headers[name])
	}
	if req.Body != nil {
		SetVar(varRequestBody, req.Body)
	}

	status, offset := current.HTTPRequest(0)
	if status != 0 {
		if offset != 0 {
			current.Free(offset)
		}
		return nil, &HTTPError{Code: status, Method: req.Method, URL: req.URL}
	}
	return &HTTPResponse{memory: FindMemory(offset)}, nil
}

// Do sends req and passes the response to fn. The response is closed on
// every exit path.
func Do(req *HTTPRequest, fn func(*HTTPResponse) error) error {
	resp, err := SendRequest(req)
	if err != nil {
		return err
	}
	defer resp.Close()
	return fn(resp)
}
