package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout (default 15s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// UserAgent is the product token sent in the User-Agent header
	// (e.g. "citeformat/1.0"). The contact address is appended.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// ContactEmail identifies the operator to CrossRef's polite pool.
	ContactEmail string `json:"contact_email" yaml:"contact_email" mapstructure:"contact_email" validate:"required,email"`
}

// CrossrefConfig holds settings for the metadata client.
type CrossrefConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the CrossRef REST API root (default https://api.crossref.org).
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// RateDelay is the minimum gap between consecutive requests (default 1s).
	RateDelay time.Duration `json:"rate_delay" yaml:"rate_delay" mapstructure:"rate_delay" validate:"gte=0"`

	// MaxRetries is the number of attempts per request (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=1"`

	// BackoffBase is the exponential backoff base in seconds (default 2.0).
	BackoffBase float64 `json:"backoff_base" yaml:"backoff_base" mapstructure:"backoff_base" validate:"gte=1"`

	// RetryAfterDefault is the wait used when a 429 carries no Retry-After (default 60s).
	RetryAfterDefault time.Duration `json:"retry_after_default" yaml:"retry_after_default" mapstructure:"retry_after_default" validate:"gte=0"`

	// Rows is the number of search candidates requested (default 3).
	Rows int `json:"rows" yaml:"rows" mapstructure:"rows" validate:"gte=1,lte=20"`
}

// CacheBackend selects the metadata cache implementation.
type CacheBackend string

const (
	CacheNone    CacheBackend = "none"
	CacheSQLite  CacheBackend = "sqlite"
	CacheBadger  CacheBackend = "badger"
	CacheUpstash CacheBackend = "upstash"
)

// CacheConfig holds settings for the metadata cache.
type CacheConfig struct {
	// Backend is one of none, sqlite, badger, upstash (default none).
	Backend CacheBackend `json:"backend" yaml:"backend" mapstructure:"backend" validate:"oneof=none sqlite badger upstash"`

	// Path is the database file (sqlite) or directory (badger).
	Path string `json:"path" yaml:"path" mapstructure:"path" validate:"required_if=Backend sqlite,required_if=Backend badger"`

	// SearchTTL bounds how long search results are cached (default 7 days).
	SearchTTL time.Duration `json:"search_ttl" yaml:"search_ttl" mapstructure:"search_ttl" validate:"gte=0"`

	// UpstashURL is the Upstash Redis REST endpoint.
	UpstashURL string `json:"upstash_url,omitempty" yaml:"upstash_url,omitempty" mapstructure:"upstash_url" validate:"omitempty,url"`

	// UpstashToken is the Upstash REST bearer token.
	UpstashToken string `json:"upstash_token,omitempty" yaml:"upstash_token,omitempty" mapstructure:"upstash_token"`
}

// OutputFormat selects the rendered document type.
type OutputFormat string

const (
	OutputConsole  OutputFormat = "console"
	OutputMarkdown OutputFormat = "markdown"
	OutputHTML     OutputFormat = "html"
	OutputPDF      OutputFormat = "pdf"
	OutputCSL      OutputFormat = "csl"
)

// Extension returns the file extension for the format, or "" for console.
func (f OutputFormat) Extension() string {
	switch f {
	case OutputMarkdown:
		return ".md"
	case OutputHTML:
		return ".html"
	case OutputPDF:
		return ".pdf"
	case OutputCSL:
		return ".yaml"
	default:
		return ""
	}
}

// OutputConfig holds rendering defaults.
type OutputConfig struct {
	// Style is the citation style key or menu number (default "plain").
	Style string `json:"style" yaml:"style" mapstructure:"style" validate:"required,citestyle"`

	// Format is one of console, markdown, html, pdf, csl (default console).
	Format OutputFormat `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=console markdown html pdf csl"`
}

// ServerConfig holds settings for the HTTP shell.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr" validate:"required"`

	// SessionTTL is how long an untouched session is kept (default 1h).
	SessionTTL time.Duration `json:"session_ttl" yaml:"session_ttl" mapstructure:"session_ttl" validate:"gt=0"`
}

// Config groups all component configurations.
type Config struct {
	Crossref CrossrefConfig `json:"crossref" yaml:"crossref" mapstructure:"crossref"`
	Cache    CacheConfig    `json:"cache" yaml:"cache" mapstructure:"cache"`
	Output   OutputConfig   `json:"output" yaml:"output" mapstructure:"output"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
}
