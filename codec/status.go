// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package codec

import (
	"errors"
	"fmt"
	"net/http"
)

// Status is an HTTP status code used as an error value.
type Status int

const (
	StatusBadRequest            Status = http.StatusBadRequest
	StatusNotFound              Status = http.StatusNotFound
	StatusMethodNotAllowed      Status = http.StatusMethodNotAllowed
	StatusRequestEntityTooLarge Status = http.StatusRequestEntityTooLarge
	StatusInternalServerError   Status = http.StatusInternalServerError
	StatusServiceUnavailable    Status = http.StatusServiceUnavailable
)

// Code returns the numeric status code.
func (s Status) Code() int {
	return int(s)
}

// Reason returns the canonical reason phrase, or "Unknown".
func (s Status) Reason() string {
	text := http.StatusText(int(s))
	if text == "" {
		return "Unknown"
	}
	return text
}

// Error implements the [builtin.error] interface as "<code> <reason>".
func (s Status) Error() string {
	return fmt.Sprintf("%d %s", int(s), s.Reason())
}

// StatusOf returns the [Status] carried by err, or
// [StatusInternalServerError] if err carries none.
func StatusOf(err error) Status {
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return StatusInternalServerError
}
