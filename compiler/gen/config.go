package gen

import (
	"github.com/rs/zerolog"

	"github.com/tuanknguyen/tablegen/schema"
)

// Config assembles everything one generation run needs: the schema, the
// language backend, and the per-language plugin set. A Config is built once
// per run; nothing in it is shared mutable state across runs.
type Config struct {
	Schema    *schema.Schema
	Backend   *Backend
	Mapper    TypeMapper
	Samples   SampleProvider
	Formatter UsageFormatter
	Resolver  ParamResolver
	Emitter   Emitter
	Logger    zerolog.Logger
}

// Option configures a generation run.
type Option func(*Config) error

// NewConfig builds and checks a Config. The type mapping completeness gate
// runs here, before any generation work: an incomplete mapper never reaches
// emission.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{Logger: zerolog.Nop()}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	switch {
	case c.Schema == nil:
		return nil, NewConfigError("Schema", nil, "schema is required")
	case c.Backend == nil:
		return nil, NewConfigError("Backend", nil, "language backend is required")
	case c.Mapper == nil:
		return nil, NewConfigError("Mapper", nil, "type mapper is required")
	case c.Samples == nil:
		return nil, NewConfigError("Samples", nil, "sample provider is required")
	case c.Formatter == nil:
		return nil, NewConfigError("Formatter", nil, "usage formatter is required")
	case c.Resolver == nil:
		return nil, NewConfigError("Resolver", nil, "parameter resolver is required")
	case c.Emitter == nil:
		return nil, NewConfigError("Emitter", nil, "emitter is required")
	}
	if err := ValidateCompleteness(c.Backend.Lang, c.Mapper); err != nil {
		return nil, err
	}
	return c, nil
}

// WithSchema sets the schema to generate from.
func WithSchema(s *schema.Schema) Option {
	return func(c *Config) error {
		if s == nil {
			return NewConfigError("Schema", nil, "schema cannot be nil")
		}
		c.Schema = s
		return nil
	}
}

// WithBackend sets the language backend.
func WithBackend(b *Backend) Option {
	return func(c *Config) error {
		if b == nil {
			return NewConfigError("Backend", nil, "backend cannot be nil")
		}
		c.Backend = b
		return nil
	}
}

// WithMapper sets the type mapping contract.
func WithMapper(m TypeMapper) Option {
	return func(c *Config) error {
		c.Mapper = m
		return nil
	}
}

// WithSamples sets the sample value provider.
func WithSamples(s SampleProvider) Option {
	return func(c *Config) error {
		c.Samples = s
		return nil
	}
}

// WithFormatter sets the usage value formatter.
func WithFormatter(f UsageFormatter) Option {
	return func(c *Config) error {
		c.Formatter = f
		return nil
	}
}

// WithResolver sets the example parameter resolver.
func WithResolver(r ParamResolver) Option {
	return func(c *Config) error {
		c.Resolver = r
		return nil
	}
}

// WithEmitter sets the language emitter.
func WithEmitter(e Emitter) Option {
	return func(c *Config) error {
		c.Emitter = e
		return nil
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}
