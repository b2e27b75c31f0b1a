// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config turns viper settings into a validated types.Config.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/citeformat/internal/cache"
	"github.com/pdiddy/citeformat/internal/crossref"
	"github.com/pdiddy/citeformat/internal/format"
	"github.com/pdiddy/citeformat/pkg/types"
)

// Defaults returns the configuration used when nothing is set.
func Defaults() types.Config {
	return types.Config{
		Crossref: crossref.DefaultConfig(),
		Cache: types.CacheConfig{
			Backend:   types.CacheNone,
			SearchTTL: cache.DefaultSearchTTL,
		},
		Output: types.OutputConfig{
			Style:  "plain",
			Format: types.OutputConsole,
		},
		Server: types.ServerConfig{
			Addr:       ":8080",
			SessionTTL: time.Hour,
		},
	}
}

// SetDefaults registers every known key on v. Keys must be registered for
// AutomaticEnv to reach them during Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Defaults()

	v.SetDefault("crossref.base_url", d.Crossref.BaseURL)
	v.SetDefault("crossref.timeout", d.Crossref.Timeout)
	v.SetDefault("crossref.user_agent", d.Crossref.UserAgent)
	v.SetDefault("crossref.contact_email", d.Crossref.ContactEmail)
	v.SetDefault("crossref.rate_delay", d.Crossref.RateDelay)
	v.SetDefault("crossref.max_retries", d.Crossref.MaxRetries)
	v.SetDefault("crossref.backoff_base", d.Crossref.BackoffBase)
	v.SetDefault("crossref.retry_after_default", d.Crossref.RetryAfterDefault)
	v.SetDefault("crossref.rows", d.Crossref.Rows)

	v.SetDefault("cache.backend", string(d.Cache.Backend))
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("cache.search_ttl", d.Cache.SearchTTL)
	v.SetDefault("cache.upstash_url", "")
	v.SetDefault("cache.upstash_token", "")

	v.SetDefault("output.style", d.Output.Style)
	v.SetDefault("output.format", string(d.Output.Format))

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.session_ttl", d.Server.SessionTTL)
}

// Load decodes v into a Config. It does not validate; callers fold in
// secrets first and then call Validate.
func Load(v *viper.Viper) (types.Config, error) {
	SetDefaults(v)
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Validate checks cfg and reports every failing key in one error.
func Validate(cfg types.Config) error {
	if err := newValidator().Struct(cfg); err != nil {
		return formatError(err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New()

	// Report keys by their config names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		if i := strings.IndexByte(name, ','); i >= 0 {
			name = name[:i]
		}
		return name
	})

	_ = v.RegisterValidation("citestyle", func(fl validator.FieldLevel) bool {
		_, ok := format.Lookup(fl.Field().String())
		return ok
	})

	return v
}

func formatError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, keyPath(e.Namespace())+" "+friendlyMessage(e))
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// keyPath drops Go type and embedded field names from a validator
// namespace, leaving the dotted config key.
func keyPath(ns string) string {
	var keep []string
	for _, seg := range strings.Split(ns, ".") {
		if seg == "" || unicode.IsUpper([]rune(seg)[0]) {
			continue
		}
		keep = append(keep, seg)
	}
	return strings.Join(keep, ".")
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "citestyle":
		return fmt.Sprintf("%q is not a known citation style", e.Value())
	default:
		return "is invalid"
	}
}
