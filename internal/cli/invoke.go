package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/cmdbridge/cache"
	"github.com/jonwraymond/cmdbridge/errclass"
	"github.com/jonwraymond/cmdbridge/fallback"
	"github.com/jonwraymond/cmdbridge/invoke"
	"github.com/jonwraymond/cmdbridge/observe"
)

// ErrInvalidArgs indicates the json-args argument is not a JSON object.
var ErrInvalidArgs = errors.New("cli: args must be a JSON object")

type invokeOptions struct {
	url       string
	class     string
	retry     bool
	cacheable bool
}

func newInvokeCmd(a *app) *cobra.Command {
	var o invokeOptions

	cmd := &cobra.Command{
		Use:   "invoke <command> [json-args]",
		Short: "Invoke a backend command through the HTTP fallback endpoint",
		Example: `  cmdbridge invoke get_status
  cmdbridge invoke start_proxy '{"port": 8080}' --class long`,
		Args: cobra.RangeArgs(1, 2),
	}
	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		return a.runInvoke(cmd, o, args)
	})

	cmd.Flags().StringVar(&o.url, "url", "", "fallback base URL (default from CMDBRIDGE_FALLBACK_URL)")
	cmd.Flags().StringVar(&o.class, "class", "default", "duration class: default|long|very_long")
	cmd.Flags().BoolVar(&o.retry, "retry", false, "retry failures classified as retryable")
	cmd.Flags().BoolVar(&o.cacheable, "cacheable", false, "serve repeats from the result cache (CMDBRIDGE_CACHE_*)")
	return cmd
}

func (a *app) runInvoke(cmd *cobra.Command, o invokeOptions, args []string) error {
	command := args[0]
	var cmdArgs map[string]any
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &cmdArgs); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArgs, err)
		}
	}

	classification, err := classify(command, o.class)
	if err != nil {
		return err
	}
	if o.cacheable {
		classification.Cacheable = []string{command}
	}
	client, err := a.fallbackClient(o.url)
	if err != nil {
		return err
	}
	mw, err := observe.MiddlewareFromObserver(a.obs)
	if err != nil {
		return err
	}
	inv, err := a.newInvoker(client, classification, mw)
	if err != nil {
		return err
	}

	var result json.RawMessage
	if o.retry {
		result, err = inv.InvokeRetrying(cmd.Context(), command, cmdArgs, nil)
	} else {
		result, err = inv.Invoke(cmd.Context(), command, cmdArgs)
	}
	if err != nil {
		a.reportFailure(err)
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, result, "", "  "); err != nil {
		out.Reset()
		out.Write(result)
	}
	out.WriteByte('\n')
	_, err = a.stdout.Write(out.Bytes())
	return err
}

// newInvoker builds an Invoker over client whose result cache follows the
// configured cache policy.
func (a *app) newInvoker(client *fallback.Client, classification invoke.Classification, mw *observe.Middleware) (*invoke.Invoker, error) {
	return invoke.New(
		invoke.WithFallback(client),
		invoke.WithCache(cache.NewMemoryCache(a.cfg.CachePolicy())),
		invoke.WithClassification(classification),
		invoke.WithTimeoutPolicy(a.cfg.TimeoutPolicy()),
		invoke.WithLogger(a.logger),
		invoke.WithMiddleware(mw),
		invoke.WithDebug(a.cfg.DebugEnabled()),
	)
}

// classify places command in the set matching class.
func classify(command, class string) (invoke.Classification, error) {
	switch class {
	case "", "default":
		return invoke.Classification{}, nil
	case "long":
		return invoke.Classification{LongRunning: []string{command}}, nil
	case "very_long":
		return invoke.Classification{VeryLongRunning: []string{command}}, nil
	default:
		return invoke.Classification{}, fmt.Errorf("cli: unknown class %q", class)
	}
}

type failureReport struct {
	Error      string `json:"error"`
	Category   string `json:"category"`
	Suggestion string `json:"suggestion"`
	Retryable  bool   `json:"retryable"`
}

// reportFailure prints a classified failure as JSON on stderr.
func (a *app) reportFailure(err error) {
	info, ok := errclass.InfoOf(err)
	if !ok {
		return
	}
	enc := json.NewEncoder(a.stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(failureReport{
		Error:      info.Message,
		Category:   info.Category.String(),
		Suggestion: info.Suggestion,
		Retryable:  info.Retryable,
	})
}
