// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/z5labs/tickhttp/config/key"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readFunc func([]byte) (int, error)

func (f readFunc) Read(b []byte) (int, error) {
	return f(b)
}

type serverConfig struct {
	Logging struct {
		Level slog.Level `config:"level"`
	} `config:"logging"`

	HTTP struct {
		Addr            string        `config:"addr"`
		ResponseTimeout time.Duration `config:"responseTimeout"`
		KeepAlive       struct {
			Timeout time.Duration `config:"timeout"`
			Max     int           `config:"max"`
		} `config:"keepAlive"`
	} `config:"http"`
}

func TestManager_Unmarshal(t *testing.T) {
	t.Run("will decode nested yaml", func(t *testing.T) {
		src := FromYaml(strings.NewReader(`
logging:
  level: warn
http:
  addr: ":8080"
  responseTimeout: 2s
  keepAlive:
    timeout: 30s
    max: 1000
`))

		m, err := Read(src)
		require.NoError(t, err)

		var cfg serverConfig
		err = m.Unmarshal(&cfg)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, slog.LevelWarn, cfg.Logging.Level) {
			return
		}
		if !assert.Equal(t, ":8080", cfg.HTTP.Addr) {
			return
		}
		if !assert.Equal(t, 2*time.Second, cfg.HTTP.ResponseTimeout) {
			return
		}
		if !assert.Equal(t, 30*time.Second, cfg.HTTP.KeepAlive.Timeout) {
			return
		}
		if !assert.Equal(t, 1000, cfg.HTTP.KeepAlive.Max) {
			return
		}
	})

	t.Run("will let later sources override earlier ones", func(t *testing.T) {
		base := FromJson(strings.NewReader(`{"http": {"addr": ":8080", "keepAlive": {"max": 10}}}`))
		override := Map{"http": map[string]any{"addr": ":9090"}}

		m, err := Read(base, override)
		require.NoError(t, err)

		var cfg serverConfig
		require.NoError(t, m.Unmarshal(&cfg))
		if !assert.Equal(t, ":9090", cfg.HTTP.Addr) {
			return
		}
		if !assert.Equal(t, 10, cfg.HTTP.KeepAlive.Max) {
			return
		}
	})

	t.Run("will return a TypeCoercionError", func(t *testing.T) {
		t.Run("if a duration is malformed", func(t *testing.T) {
			m, err := Read(Map{"http": map[string]any{"responseTimeout": "soon"}})
			require.NoError(t, err)

			var cfg serverConfig
			err = m.Unmarshal(&cfg)

			var terr TypeCoercionError
			if !assert.ErrorAs(t, err, &terr) {
				return
			}
		})
	})
}

func TestRead(t *testing.T) {
	t.Run("will return an InvalidYamlError", func(t *testing.T) {
		t.Run("if the yaml is malformed", func(t *testing.T) {
			_, err := Read(FromYaml(strings.NewReader("http: [")))

			var yerr InvalidYamlError
			if !assert.ErrorAs(t, err, &yerr) {
				return
			}
		})
	})

	t.Run("will return an InvalidJsonError", func(t *testing.T) {
		t.Run("if the json is malformed", func(t *testing.T) {
			_, err := Read(FromJson(strings.NewReader("{")))

			var jerr InvalidJsonError
			if !assert.ErrorAs(t, err, &jerr) {
				return
			}
		})
	})

	t.Run("will return the source error", func(t *testing.T) {
		srcErr := errors.New("unavailable")
		_, err := Read(SourceFunc(func(Store) error {
			return srcErr
		}))
		if !assert.ErrorIs(t, err, srcErr) {
			return
		}
	})
}

func TestMap_Set(t *testing.T) {
	t.Run("will create intermediate maps", func(t *testing.T) {
		m := make(Map)
		err := m.Set(key.Parse("http.keepAlive.max"), 5)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, 5, m["http"].(map[string]any)["keepAlive"].(map[string]any)["max"]) {
			return
		}
	})

	t.Run("will return an UnexpectedKeyValueTypeError", func(t *testing.T) {
		t.Run("if a value is nested under a non-map", func(t *testing.T) {
			m := Map{"http": "nope"}
			err := m.Set(key.Parse("http.addr"), ":80")

			var uerr UnexpectedKeyValueTypeError
			if !assert.ErrorAs(t, err, &uerr) {
				return
			}
			if !assert.Equal(t, "http", uerr.Key) {
				return
			}
		})
	})

	t.Run("will return an EmptyKeyChainError", func(t *testing.T) {
		err := make(Map).Set(key.Chain{}, 1)

		var eerr EmptyKeyChainError
		if !assert.ErrorAs(t, err, &eerr) {
			return
		}
	})
}

func TestEnv_Apply(t *testing.T) {
	t.Run("will nest prefixed variables", func(t *testing.T) {
		src := Env{
			prefix: "TICKHTTP_",
			environ: func() []string {
				return []string{
					"TICKHTTP_HTTP_ADDR=:7070",
					"HOME=/root",
					"TICKHTTP_=ignored",
					"malformed",
				}
			},
		}

		m, err := Read(src)
		require.NoError(t, err)

		var cfg serverConfig
		require.NoError(t, m.Unmarshal(&cfg))
		if !assert.Equal(t, ":7070", cfg.HTTP.Addr) {
			return
		}
		if !assert.NotContains(t, m.store, "home") {
			return
		}
	})
}

func TestRenderTextTemplate(t *testing.T) {
	t.Run("will render template functions before decoding", func(t *testing.T) {
		src := FromYaml(RenderTextTemplate(
			strings.NewReader(`http:
  addr: "{{ lookup "ADDR" | default ":8080" }}"
`),
			TemplateFunc("lookup", func(string) string { return "" }),
			TemplateFunc("default", func(def string, v string) string {
				if v == "" {
					return def
				}
				return v
			}),
		))

		m, err := Read(src)
		require.NoError(t, err)

		var cfg serverConfig
		require.NoError(t, m.Unmarshal(&cfg))
		if !assert.Equal(t, ":8080", cfg.HTTP.Addr) {
			return
		}
	})
}
