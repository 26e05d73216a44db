package cache_test

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonwraymond/cmdbridge/cache"
)

func ExampleNewMemoryCache() {
	c := cache.NewMemoryCache(cache.DefaultPolicy())
	ctx := context.Background()

	_ = c.Set(ctx, "list_apis", json.RawMessage(`["chat"]`))

	entry, ok := c.Get(ctx, "list_apis")
	fmt.Println(ok, string(entry.Data), entry.AccessCount)
	// Output:
	// true ["chat"] 2
}

func ExampleMiddleware_Execute() {
	c := cache.NewMemoryCache(cache.DefaultPolicy())
	mw := cache.NewMiddleware(c, nil, func(command string) bool {
		return command == "list_apis"
	})

	calls := 0
	backend := func(context.Context, string, map[string]any) (json.RawMessage, error) {
		calls++
		return json.RawMessage(`[]`), nil
	}

	ctx := context.Background()
	_, first, _ := mw.Execute(ctx, "list_apis", nil, backend)
	_, second, _ := mw.Execute(ctx, "list_apis", nil, backend)
	_ = c.ClearCommand(ctx, "list_apis")
	_, third, _ := mw.Execute(ctx, "list_apis", nil, backend)

	fmt.Println(first, second, third, calls)
	// Output:
	// miss hit miss 2
}
