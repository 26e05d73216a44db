package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/cmdbridge/bridge"
	"github.com/jonwraymond/cmdbridge/cache"
	"github.com/jonwraymond/cmdbridge/errclass"
	"github.com/jonwraymond/cmdbridge/observe"
	"github.com/jonwraymond/cmdbridge/resilience"
)

// ErrDecodeResult indicates a result could not be decoded into the
// requested type.
var ErrDecodeResult = errors.New("invoke: cannot decode result")

// Invoker issues commands through the native bridge or the HTTP fallback.
// It is safe for concurrent use.
type Invoker struct {
	selector   *bridge.Selector
	cache      cache.Cache
	cacheMW    *cache.Middleware
	classes    classes
	timeouts   resilience.TimeoutPolicy
	logger     observe.Logger
	middleware *observe.Middleware
	classifier *errclass.Classifier
	debug      bool
	execute    observe.ExecuteFunc
}

// New builds an Invoker. It fails when the classification sets overlap.
func New(opts ...Option) (*Invoker, error) {
	cfg := config{
		timeouts: resilience.DefaultTimeoutPolicy(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.classification.Validate(); err != nil {
		return nil, err
	}
	if !cfg.cacheSet {
		cfg.cache = cache.NewMemoryCache(cache.DefaultPolicy())
	}
	if cfg.logger == nil {
		cfg.logger = observe.NopLogger()
	}
	if cfg.middleware == nil {
		cfg.middleware = observe.NopMiddleware()
	}
	if cfg.classifier == nil {
		cfg.classifier = errclass.NewClassifier()
	}

	var native *bridge.Native
	if cfg.call != nil {
		native = bridge.NewNative(cfg.call, cfg.host)
	}

	inv := &Invoker{
		selector:   bridge.NewSelector(native, cfg.fallback),
		cache:      cfg.cache,
		classes:    cfg.classification.compile(),
		timeouts:   cfg.timeouts,
		logger:     cfg.logger,
		middleware: cfg.middleware,
		classifier: cfg.classifier,
		debug:      cfg.debug,
	}
	inv.cacheMW = cache.NewMiddleware(cfg.cache, cfg.keyer, inv.classes.isCacheable)
	inv.execute = inv.middleware.Wrap(inv.run)
	return inv, nil
}

// Selector returns the transport selector, for health reporting.
func (inv *Invoker) Selector() *bridge.Selector {
	return inv.selector
}

// Invoke runs command with args.
//
// On failure the error is an *errclass.Error, except when no transport is
// configured at all, which returns bridge.ErrNotConfigured unclassified.
func (inv *Invoker) Invoke(ctx context.Context, command string, args map[string]any) (json.RawMessage, error) {
	meta := inv.meta(command)
	log := inv.logger.WithCommand(meta)

	if inv.debug {
		log.Debug(ctx, "invoking command", observe.Field{Key: "args", Value: observe.RedactArgs(args)})
	}

	result, err := inv.execute(ctx, meta, args)
	if err == nil {
		return result, nil
	}

	if errors.Is(err, bridge.ErrNotConfigured) {
		log.Error(ctx, "no transport available", observe.Field{Key: "error", Value: err.Error()})
		return nil, err
	}

	var ce *errclass.Error
	if errors.As(err, &ce) {
		inv.logFailure(ctx, log, ce.Info)
	}
	return nil, err
}

// run is the observed body of Invoke: cache lookup, transport selection and
// the timed call. Failures leave here classified.
func (inv *Invoker) run(ctx context.Context, meta observe.CommandMeta, args map[string]any) (json.RawMessage, error) {
	result, outcome, err := inv.cacheMW.Execute(ctx, meta.Name, args, inv.call)

	if outcome != cache.OutcomeBypass {
		observe.AnnotateSpan(ctx, "cache.outcome", outcome.String())
		if inv.debug {
			inv.logger.WithCommand(meta).Debug(ctx, "cache "+outcome.String())
		}
	}
	if outcome == cache.OutcomeHit {
		inv.middleware.RecordCacheHit(ctx, meta)
	}

	if err != nil {
		if errors.Is(err, bridge.ErrNotConfigured) {
			return nil, err
		}
		return nil, errclass.NewError(meta.Name, inv.classifier.Classify(err))
	}
	return result, nil
}

// call sends one command over the selected transport within its budget.
func (inv *Invoker) call(ctx context.Context, command string, args map[string]any) (json.RawMessage, error) {
	t, err := inv.selector.Select()
	if err != nil {
		return nil, err
	}
	observe.AnnotateSpan(ctx, "command.transport", t.Name())

	timeout := resilience.NewTimeout(resilience.TimeoutConfig{
		Timeout: inv.timeouts.Budget(inv.classes.classOf(command)),
		Op:      command,
	})
	return resilience.ExecuteValue(ctx, timeout, func(ctx context.Context) (json.RawMessage, error) {
		return t.Call(ctx, command, args)
	})
}

func (inv *Invoker) meta(command string) observe.CommandMeta {
	return observe.CommandMeta{
		Name:      command,
		Class:     inv.classes.classOf(command).String(),
		Cacheable: inv.classes.isCacheable(command),
	}
}

func (inv *Invoker) logFailure(ctx context.Context, log observe.Logger, info errclass.Info) {
	fields := []observe.Field{
		{Key: "error", Value: info.Message},
		{Key: "category", Value: info.Category.String()},
		{Key: "retryable", Value: info.Retryable},
		{Key: "suggestion", Value: info.Suggestion},
		{Key: "error_time", Value: info.Timestamp.Format(time.RFC3339)},
	}
	if inv.debug && info.TechnicalDetails != "" {
		fields = append(fields, observe.Field{Key: "technical_details", Value: info.TechnicalDetails})
	}
	log.Error(ctx, "command failed", fields...)
}

// ClearCache drops cached results. With no commands the whole cache is
// cleared; otherwise every entry of each named command is.
func (inv *Invoker) ClearCache(ctx context.Context, commands ...string) error {
	if inv.cache == nil {
		return nil
	}
	if len(commands) == 0 {
		if inv.debug {
			inv.logger.Debug(ctx, "cache cleared")
		}
		return inv.cache.Clear(ctx)
	}
	for _, cmd := range commands {
		if err := inv.cache.ClearCommand(ctx, cmd); err != nil {
			return fmt.Errorf("invoke: clear cache for %s: %w", cmd, err)
		}
		if inv.debug {
			inv.logger.WithCommand(inv.meta(cmd)).Debug(ctx, "cache cleared")
		}
	}
	return nil
}

// DefaultRetry returns a retry policy that retries only failures
// classified as retryable: three attempts with exponential backoff and
// jitter.
func DefaultRetry() *resilience.Retry {
	return resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts: 3,
		Jitter:      true,
		RetryIf:     errclass.IsRetryable,
	})
}

// InvokeRetrying runs Invoke under r, or DefaultRetry when r is nil.
// Each attempt is a full invocation, so cached results short-circuit and
// every failed attempt is logged.
func (inv *Invoker) InvokeRetrying(ctx context.Context, command string, args map[string]any, r *resilience.Retry) (json.RawMessage, error) {
	if r == nil {
		r = DefaultRetry()
	}

	var result json.RawMessage
	err := r.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = inv.Invoke(ctx, command, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Call invokes command and decodes its result into T.
func Call[T any](ctx context.Context, inv *Invoker, command string, args map[string]any) (T, error) {
	var out T
	raw, err := inv.Invoke(ctx, command, args)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %w", ErrDecodeResult, command, err)
	}
	return out, nil
}
