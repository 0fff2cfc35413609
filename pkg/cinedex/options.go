package cinedex

import "go.uber.org/zap"

type clientConfig struct {
	logger   *zap.Logger
	builtins bool
}

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(cfg *clientConfig) { f(cfg) }

// WithLogger attaches a zap logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(cfg *clientConfig) { cfg.logger = logger })
}

// WithoutBuiltins starts the engine with empty sort and filter registries
// so the embedding application installs its own catalog of algorithms.
func WithoutBuiltins() Option {
	return optionFunc(func(cfg *clientConfig) { cfg.builtins = false })
}
