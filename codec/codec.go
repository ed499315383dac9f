// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package codec converts between HTTP/1.x bytes on a connection and the
// fully buffered [Request] and [Response] values handed across goroutines.
package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpguts"
)

// DefaultMaxBodyBytes bounds a request body unless [MaxBodyBytes] says otherwise.
const DefaultMaxBodyBytes int64 = 10 << 20

// Request is an HTTP request whose body has already been read in full.
type Request struct {
	Method     string
	URL        *url.URL
	Proto      string
	ProtoMajor int
	ProtoMinor int
	Header     http.Header
	Body       []byte
	Host       string

	// RemoteAddr is the peer address of the connection the request arrived on.
	RemoteAddr string
}

// Path returns the URI path of the request as it was sent, so an
// escaped "/" stays part of its segment.
func (r *Request) Path() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.EscapedPath()
}

// ProtoAtLeast reports whether the request protocol is at least major.minor.
func (r *Request) ProtoAtLeast(major, minor int) bool {
	return r.ProtoMajor > major || r.ProtoMajor == major && r.ProtoMinor >= minor
}

// Response is an HTTP response with an in-memory body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewResponse returns a response with an empty, non-nil header.
func NewResponse(code int, body []byte) *Response {
	return &Response{
		StatusCode: code,
		Header:     make(http.Header),
		Body:       body,
	}
}

type readOptions struct {
	maxBodyBytes int64
}

// ReadOption configures [ReadRequest].
type ReadOption func(*readOptions)

// MaxBodyBytes limits the size of a request body. Non-positive values are ignored.
func MaxBodyBytes(n int64) ReadOption {
	return func(ro *readOptions) {
		if n <= 0 {
			return
		}
		ro.maxBodyBytes = n
	}
}

// ReadError is returned by [ReadRequest] when the bytes on the
// connection could not be turned into a [Request].
type ReadError struct {
	Status Status
	Cause  error
}

// Error implements the [builtin.error] interface.
func (e ReadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Status, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ReadError) Unwrap() []error {
	return []error{e.Status, e.Cause}
}

// ErrBodyTooLarge is the cause of a [ReadError] for oversized bodies.
var ErrBodyTooLarge = errors.New("request body too large")

// ReadRequest reads one request from r. It returns a nil request and
// nil error if the peer closed the connection before sending any bytes.
func ReadRequest(r *bufio.Reader, opts ...ReadOption) (*Request, error) {
	ro := &readOptions{
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(ro)
	}

	hr, err := http.ReadRequest(r)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, ReadError{Status: StatusBadRequest, Cause: err}
	}
	defer hr.Body.Close()

	body, err := io.ReadAll(io.LimitReader(hr.Body, ro.maxBodyBytes+1))
	if err != nil {
		return nil, ReadError{Status: StatusBadRequest, Cause: err}
	}
	if int64(len(body)) > ro.maxBodyBytes {
		return nil, ReadError{Status: StatusRequestEntityTooLarge, Cause: ErrBodyTooLarge}
	}

	req := &Request{
		Method:     hr.Method,
		URL:        hr.URL,
		Proto:      hr.Proto,
		ProtoMajor: hr.ProtoMajor,
		ProtoMinor: hr.ProtoMinor,
		Header:     hr.Header,
		Body:       body,
		Host:       hr.Host,
	}
	return req, nil
}

// SendResponse serializes resp as HTTP/1.1 onto w and flushes it.
func SendResponse(resp *Response, w *bufio.Writer) error {
	hr := &http.Response{
		StatusCode:    resp.StatusCode,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        resp.Header,
		ContentLength: int64(len(resp.Body)),
		Body:          io.NopCloser(bytes.NewReader(resp.Body)),
	}
	if hr.Header == nil {
		hr.Header = make(http.Header)
	}

	err := hr.Write(w)
	if err != nil {
		return err
	}
	return w.Flush()
}

// KeepAliveRequested reports whether the client asked to reuse the connection.
// HTTP/1.1 and later default to persistent connections, HTTP/1.0 must opt in.
func KeepAliveRequested(req *Request) bool {
	tokens := req.Header["Connection"]
	if req.ProtoAtLeast(1, 1) {
		return !httpguts.HeaderValuesContainsToken(tokens, "close")
	}
	return httpguts.HeaderValuesContainsToken(tokens, "keep-alive")
}

// KeepAliveDenied reports whether resp explicitly closes the connection.
func KeepAliveDenied(resp *Response) bool {
	return httpguts.HeaderValuesContainsToken(resp.Header["Connection"], "close")
}

// KeepAliveGranted reports whether resp explicitly keeps the connection open.
func KeepAliveGranted(resp *Response) bool {
	if KeepAliveDenied(resp) {
		return false
	}
	return httpguts.HeaderValuesContainsToken(resp.Header["Connection"], "keep-alive")
}

// HeaderIfMissing sets the header name to value unless it is already present.
func HeaderIfMissing(resp *Response, name, value string) {
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	if _, exists := resp.Header[http.CanonicalHeaderKey(name)]; exists {
		return
	}
	resp.Header.Set(name, value)
}

// ErrorResponse synthesizes the plain text response sent for a failed request.
func ErrorResponse(status Status) *Response {
	resp := NewResponse(status.Code(), []byte(status.Error()))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Header.Set("Connection", "close")
	return resp
}
