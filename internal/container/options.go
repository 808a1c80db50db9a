package container

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidOptions is returned when the options cannot start the service.
var ErrInvalidOptions = errors.New("invalid options")

// Options are read from flags and SERVICE_* environment variables.
type Options struct {
	Port       int    `default:"8888"    help:"Port to listen on"                                        short:"p" yaml:"port"`
	RateLimit  int    `                  help:"Requests admitted per one-second window (required)"       short:"l" yaml:"rateLimit"`
	Storage    string `                  help:"Storage location: memory:// or postgres://... (required)" short:"s" yaml:"storage"`
	RedisAddr  string `                  help:"Redis address; enables record cache and events"           short:"r" yaml:"redisAddr"`
	CacheTTL   int    `default:"300"     help:"Record cache TTL in seconds, 0 for none"                            yaml:"cacheTtl"`
	CORSOrigin string `default:"*"       help:"Access-Control-Allow-Origin value"                                  yaml:"corsOrigin"`
	TLSCert    string `                  help:"TLS certificate file"                                               yaml:"tlsCert"`
	TLSKey     string `                  help:"TLS private key file"                                               yaml:"tlsKey"`
	LogFormat  string `default:"console" help:"Log format: console or json"                                        yaml:"logFormat"`
	Config     string `                  help:"Optional YAML file filling options left unset"            short:"c" yaml:"-"`
}

// LoadFile fills every zero-valued option from the YAML file at path.
func (o *Options) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read configuration file %s: %w", path, err)
	}

	var file Options
	if err := yaml.Unmarshal(content, &file); err != nil {
		return fmt.Errorf("parse configuration file %s: %w", path, err)
	}

	o.merge(&file)

	return nil
}

func (o *Options) merge(file *Options) {
	if o.Port == 0 {
		o.Port = file.Port
	}

	if o.RateLimit == 0 {
		o.RateLimit = file.RateLimit
	}

	if o.Storage == "" {
		o.Storage = file.Storage
	}

	if o.RedisAddr == "" {
		o.RedisAddr = file.RedisAddr
	}

	if o.CacheTTL == 0 {
		o.CacheTTL = file.CacheTTL
	}

	if o.CORSOrigin == "" {
		o.CORSOrigin = file.CORSOrigin
	}

	if o.TLSCert == "" {
		o.TLSCert = file.TLSCert
	}

	if o.TLSKey == "" {
		o.TLSKey = file.TLSKey
	}

	if o.LogFormat == "" {
		o.LogFormat = file.LogFormat
	}
}

// Validate reports the first option that prevents startup.
func (o *Options) Validate() error {
	if o.RateLimit <= 0 {
		return fmt.Errorf("%w: rate limit must be a positive integer, got %d", ErrInvalidOptions, o.RateLimit)
	}

	if o.Storage == "" {
		return fmt.Errorf("%w: storage location is required", ErrInvalidOptions)
	}

	if _, err := url.Parse(o.Storage); err != nil {
		return fmt.Errorf("%w: storage location: %w", ErrInvalidOptions, err)
	}

	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidOptions, o.Port)
	}

	if o.CacheTTL < 0 {
		return fmt.Errorf("%w: cache ttl must not be negative", ErrInvalidOptions)
	}

	if (o.TLSCert == "") != (o.TLSKey == "") {
		return fmt.Errorf("%w: tls cert and key must be set together", ErrInvalidOptions)
	}

	switch o.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidOptions, o.LogFormat)
	}

	return nil
}

// TLS reports whether the server should terminate TLS.
func (o *Options) TLS() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}
