package invoke

import (
	"github.com/jonwraymond/cmdbridge/bridge"
	"github.com/jonwraymond/cmdbridge/cache"
	"github.com/jonwraymond/cmdbridge/errclass"
	"github.com/jonwraymond/cmdbridge/observe"
	"github.com/jonwraymond/cmdbridge/resilience"
)

// Option configures an Invoker.
type Option func(*config)

type config struct {
	call           bridge.CallFunc
	host           bridge.Host
	fallback       bridge.Transport
	cache          cache.Cache
	cacheSet       bool
	keyer          cache.Keyer
	classification Classification
	timeouts       resilience.TimeoutPolicy
	logger         observe.Logger
	middleware     *observe.Middleware
	classifier     *errclass.Classifier
	debug          bool
}

// WithNative sets the native call primitive and the host object whose
// markers decide whether it is usable.
func WithNative(call bridge.CallFunc, host bridge.Host) Option {
	return func(c *config) {
		c.call = call
		c.host = host
	}
}

// WithFallback sets the transport used when the native bridge is missing,
// typically a *fallback.Client.
func WithFallback(t bridge.Transport) Option {
	return func(c *config) {
		c.fallback = t
	}
}

// WithCache replaces the default in-memory cache. A nil cache disables
// caching.
func WithCache(ca cache.Cache) Option {
	return func(c *config) {
		c.cache = ca
		c.cacheSet = true
	}
}

// WithKeyer replaces the cache key builder.
func WithKeyer(k cache.Keyer) Option {
	return func(c *config) {
		c.keyer = k
	}
}

// WithClassification sets the cacheable and long-running command sets.
func WithClassification(cl Classification) Option {
	return func(c *config) {
		c.classification = cl
	}
}

// WithTimeoutPolicy sets the per-class timeout budgets.
func WithTimeoutPolicy(p resilience.TimeoutPolicy) Option {
	return func(c *config) {
		c.timeouts = p
	}
}

// WithLogger sets the logger. Default: no logging.
func WithLogger(l observe.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithMiddleware sets the tracing and metrics middleware.
func WithMiddleware(m *observe.Middleware) Option {
	return func(c *config) {
		c.middleware = m
	}
}

// WithClassifier replaces the error classifier.
func WithClassifier(cl *errclass.Classifier) Option {
	return func(c *config) {
		c.classifier = cl
	}
}

// WithDebug turns on per-call debug logging of commands, arguments and
// cache outcomes, and adds technical details to failure logs.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.debug = debug
	}
}
