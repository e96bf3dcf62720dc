package mdplug

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Manager.
type Option func(*managerConfig)

// managerConfig holds the internal configuration for a Manager.
type managerConfig struct {
	logger           *zap.Logger
	effectLogger     *zap.Logger
	metrics          *Metrics
	plugins          []*Plugin
	patternCacheSize int
}

// defaultManagerConfig returns the default manager configuration.
func defaultManagerConfig() *managerConfig {
	return &managerConfig{
		patternCacheSize: DefaultPatternCacheSize,
	}
}

// WithLogger sets the diagnostic logger for the manager.
// Default: zap.NewNop()
func WithLogger(logger *zap.Logger) Option {
	return func(c *managerConfig) {
		c.logger = logger
	}
}

// WithEffectLogger sets the logger that receives Log and DebugLog effects.
// Default: the manager logger
func WithEffectLogger(logger *zap.Logger) Option {
	return func(c *managerConfig) {
		c.effectLogger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(c *managerConfig) {
		c.metrics = m
	}
}

// WithPlugins loads plugins in order when the manager is created.
func WithPlugins(plugins ...*Plugin) Option {
	return func(c *managerConfig) {
		c.plugins = append(c.plugins, plugins...)
	}
}

// WithPatternCacheSize bounds the manager's compiled-pattern memo.
// Default: 256
func WithPatternCacheSize(size int) Option {
	return func(c *managerConfig) {
		if size > 0 {
			c.patternCacheSize = size
		}
	}
}
