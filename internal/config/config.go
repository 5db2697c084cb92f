// Package config loads engine configuration from the environment, an
// optional .env file and an optional JSON routes file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/nfrund/hashrouter/internal/pubsub"
	"github.com/nfrund/hashrouter/internal/routehandler"
)

// Config holds all configuration for the application.
type Config struct {
	LogFormat string `validate:"oneof=text json"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	HTTPAddr  string `validate:"required"`
	// RoutesFile is an optional JSON file with extra redirects and titles.
	RoutesFile string
	// InitialHash is the location simulated windows start at.
	InitialHash string `validate:"omitempty,startswith=#"`

	Router  RouterConfig
	Tracing pubsub.TracingConfig
}

// RouterConfig holds the routing pipeline settings.
type RouterConfig struct {
	MaxRedirects    int           `validate:"gte=0"`
	LoadDebounce    time.Duration `validate:"gte=0"`
	LoadingDebounce time.Duration `validate:"gte=0"`
	TitleDebounce   time.Duration `validate:"gte=0"`
	StateDebounce   time.Duration `validate:"gte=0"`
}

// Handler converts the settings for routehandler.
func (r RouterConfig) Handler() routehandler.Config {
	return routehandler.Config{
		LoadDebounce:    r.LoadDebounce,
		LoadingDebounce: r.LoadingDebounce,
		TitleDebounce:   r.TitleDebounce,
		StateDebounce:   r.StateDebounce,
		MaxRedirects:    r.MaxRedirects,
	}
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	hc := routehandler.DefaultConfig()
	return &Config{
		LogFormat:   "text",
		LogLevel:    "info",
		HTTPAddr:    ":8080",
		InitialHash: "#/",
		Router: RouterConfig{
			MaxRedirects:    hc.MaxRedirects,
			LoadDebounce:    hc.LoadDebounce,
			LoadingDebounce: hc.LoadingDebounce,
			TitleDebounce:   hc.TitleDebounce,
			StateDebounce:   hc.StateDebounce,
		},
		Tracing: pubsub.DefaultTracingConfig(),
	}
}

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// New loads .env, if present, and then the process environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a validated configuration from lookup.
func FromEnv(lookup LookupFunc) (*Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	p.str("LOG_FORMAT", &cfg.LogFormat)
	p.str("LOG_LEVEL", &cfg.LogLevel)
	p.str("HTTP_ADDR", &cfg.HTTPAddr)
	p.str("ROUTES_FILE", &cfg.RoutesFile)
	p.str("INITIAL_HASH", &cfg.InitialHash)

	p.integer("ROUTER_MAX_REDIRECTS", &cfg.Router.MaxRedirects)
	p.duration("ROUTER_LOAD_DEBOUNCE", &cfg.Router.LoadDebounce)
	p.duration("ROUTER_LOADING_DEBOUNCE", &cfg.Router.LoadingDebounce)
	p.duration("ROUTER_TITLE_DEBOUNCE", &cfg.Router.TitleDebounce)
	p.duration("ROUTER_STATE_DEBOUNCE", &cfg.Router.StateDebounce)

	p.boolean("PUBSUB_TRACING_ENABLED", &cfg.Tracing.Enabled)
	p.str("PUBSUB_TRACING_SERVICE_NAME", &cfg.Tracing.ServiceName)
	p.str("PUBSUB_TRACING_ZIPKIN_URL", &cfg.Tracing.ZipkinURL)

	if len(p.errs) > 0 {
		return nil, fmt.Errorf("parse environment: %w", errors.Join(p.errs...))
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks cfg against its validation tags.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return &ValidationError{Fields: fields, Err: err}
}

type parser struct {
	lookup LookupFunc
	errs   []error
}

func (p *parser) get(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *parser) integer(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func (p *parser) boolean(key string, dst *bool) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = b
}

func (p *parser) duration(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}
