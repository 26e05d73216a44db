package cache

import (
	"strings"
	"testing"
)

func TestDefaultKeyer_Key(t *testing.T) {
	keyer := NewDefaultKeyer()

	tests := []struct {
		name    string
		command string
		args    map[string]any
		want    string
	}{
		{name: "no args", command: "list_apis", args: nil, want: "list_apis"},
		{name: "empty args", command: "list_apis", args: map[string]any{}, want: "list_apis"},
		{name: "args", command: "get_api", args: map[string]any{"id": 7}, want: `get_api:{"id":7}`},
		{
			name:    "sorted nested",
			command: "search",
			args:    map[string]any{"z": 1, "a": map[string]any{"y": true, "b": []any{"x", 2}}},
			want:    `search:{"a":{"b":["x",2],"y":true},"z":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyer.Key(tt.command, tt.args)
			if err != nil {
				t.Fatalf("Key() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultKeyer_Deterministic(t *testing.T) {
	keyer := NewDefaultKeyer()
	args := map[string]any{"b": 2, "a": 1, "c": map[string]any{"e": 5, "d": 4}}

	first, _ := keyer.Key("cmd", args)
	for i := 0; i < 50; i++ {
		got, _ := keyer.Key("cmd", args)
		if got != first {
			t.Fatalf("Key() not deterministic: %q vs %q", got, first)
		}
	}
}

func TestDefaultKeyer_LongArgsHashed(t *testing.T) {
	keyer := NewDefaultKeyer()
	args := map[string]any{"blob": strings.Repeat("x", MaxKeyLength)}

	got, err := keyer.Key("upload", args)
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if !strings.HasPrefix(got, "upload:sha256-") {
		t.Errorf("Key() = %q, want hashed form", got)
	}
	if len(got) > MaxKeyLength {
		t.Errorf("Key() length %d exceeds MaxKeyLength", len(got))
	}
	if !belongsTo(got, "upload") {
		t.Error("hashed key must still belong to its command")
	}
}

func TestDefaultKeyer_EmptyCommand(t *testing.T) {
	if _, err := NewDefaultKeyer().Key("", nil); err != ErrInvalidKey {
		t.Errorf("Key(\"\") error = %v, want ErrInvalidKey", err)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		want error
	}{
		{"list_apis", nil},
		{"", ErrInvalidKey},
		{"   ", ErrInvalidKey},
		{"a\rb", ErrInvalidKey},
		{strings.Repeat("k", MaxKeyLength+1), ErrKeyTooLong},
	}
	for _, tt := range tests {
		if got := ValidateKey(tt.key); got != tt.want {
			t.Errorf("ValidateKey(%.20q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
