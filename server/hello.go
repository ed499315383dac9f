// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"context"
	"net/http"

	"github.com/z5labs/tickhttp/codec"
)

// DefaultAddr is the address served when none is configured.
const DefaultAddr = "[::]:80"

// HelloHandler answers every request with "Hello world".
func HelloHandler[S any](ctx context.Context, _ S, req *codec.Request) (*codec.Response, error) {
	resp := codec.NewResponse(http.StatusOK, []byte("Hello world"))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return resp, nil
}
