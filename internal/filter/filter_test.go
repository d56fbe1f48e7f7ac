package filter

import (
	"runtime"
	"testing"

	"github.com/ferrum-editor/ferrum/internal/types"
)

func TestValue(t *testing.T) {
	cfg := types.DefaultConfig()

	tests := []struct {
		name    string
		query   string
		want    string
		wantErr bool
	}{
		{"number", "terminal.port", "22", false},
		{"string unquoted", "explorer.root", "C:", false},
		{"missing field", "terminal.nope", "null", false},
		{"projection", "[editor.fontSize, terminal.port]", "[\n  14,\n  22\n]", false},
		{"invalid", "terminal.[", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Value(cfg, tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Value() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Value() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValue_EmptyQueryReturnsDocument(t *testing.T) {
	got, err := Value(map[string]int{"a": 1}, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "{\n  \"a\": 1\n}" {
		t.Errorf("Value() = %q", got)
	}
}

func TestApply_FilterThenQuery(t *testing.T) {
	body := `{"items":[{"n":"a","on":true},{"n":"b","on":false}]}`

	got, err := Apply(body, "items[?on]", "[].n")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got != "[\n  \"a\"\n]" {
		t.Errorf("Apply() = %q", got)
	}
}

func TestApply_ShellQuery(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	got, err := Apply(`{"a":1}`, "", "$(wc -c | tr -d ' ')")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got != "7" {
		t.Errorf("Apply() = %q, want 7", got)
	}
}

func TestIsShellCommand(t *testing.T) {
	if !IsShellCommand("$(jq .)") || IsShellCommand("terminal.port") {
		t.Error("IsShellCommand() misclassified")
	}
	if !IsValidJMESPath("a.b") || IsValidJMESPath("a.[") {
		t.Error("IsValidJMESPath() misclassified")
	}
}
