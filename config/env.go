// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"strings"

	"github.com/z5labs/tickhttp/config/key"
)

// Env represents a Source where its underlying values
// are extracted from environment variables.
type Env struct {
	prefix  string
	environ func() []string
}

// FromEnv returns a Source which applies every environment variable
// whose name starts with prefix. The prefix is stripped and the rest of
// the name is split on "_" into nested keys, lower-cased, so with the
// prefix "TICKHTTP_" the variable TICKHTTP_HTTP_ADDR sets "http.addr".
func FromEnv(prefix string) Env {
	return Env{
		prefix:  prefix,
		environ: os.Environ,
	}
}

// Apply implements the Source interface.
func (src Env) Apply(store Store) error {
	for _, pair := range src.environ() {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, ok := strings.CutPrefix(k, src.prefix)
		if !ok || name == "" {
			continue
		}

		parts := strings.Split(strings.ToLower(name), "_")
		chain := make(key.Chain, len(parts))
		for i, p := range parts {
			chain[i] = key.Name(p)
		}
		err := store.Set(chain, v)
		if err != nil {
			return err
		}
	}
	return nil
}
