package keybinds

import (
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      ValidationError
		expected string
	}{
		{
			name:     "conflict error",
			err:      ValidationError{Type: "conflict", Context: ContextEditor, Key: "ctrl+s", Message: "bound to both save and undo"},
			expected: "[conflict] ctrl+s in context 'editor': bound to both save and undo",
		},
		{
			name:     "invalid error",
			err:      ValidationError{Type: "invalid", Context: ContextGlobal, Key: "", Message: "empty key"},
			expected: "[invalid]  in context 'global': empty key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidationResult_String(t *testing.T) {
	empty := &ValidationResult{}
	if empty.String() != "No issues found" {
		t.Errorf("String() = %q", empty.String())
	}

	r := &ValidationResult{}
	r.addError("conflict", ContextEditor, "ctrl+s", "dup")
	r.addWarning(ContextGlobal, "ctrl+c", "reserved")
	out := r.String()
	if !strings.Contains(out, "Errors (1)") || !strings.Contains(out, "Warnings (1)") {
		t.Errorf("String() = %q", out)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name         string
		config       *Config
		wantErrors   int
		wantWarnings int
		wantType     string
	}{
		{
			name:   "valid override",
			config: &Config{Editor: map[string]string{"save": "ctrl+s,ctrl+w"}},
		},
		{
			name:       "unknown action",
			config:     &Config{Editor: map[string]string{"explode": "ctrl+x"}},
			wantErrors: 1,
			wantType:   "invalid",
		},
		{
			name:       "same key for two actions",
			config:     &Config{Editor: map[string]string{"save": "ctrl+s", "undo": "ctrl+s"}},
			wantErrors: 1,
			wantType:   "conflict",
		},
		{
			name:       "bare modifier",
			config:     &Config{Global: map[string]string{"quit": "ctrl+"}},
			wantErrors: 1,
			wantType:   "invalid",
		},
		{
			name:         "reserved key rebound",
			config:       &Config{Global: map[string]string{"quit": "ctrl+c"}},
			wantWarnings: 1,
		},
		{
			name:         "empty key list",
			config:       &Config{Recent: map[string]string{"submit": ""}},
			wantWarnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewValidator().ValidateConfig(tt.config)
			if len(result.Errors) != tt.wantErrors {
				t.Fatalf("errors = %v, want %d", result.Errors, tt.wantErrors)
			}
			if len(result.Warnings) != tt.wantWarnings {
				t.Errorf("warnings = %v, want %d", result.Warnings, tt.wantWarnings)
			}
			if tt.wantType != "" && result.Errors[0].Type != tt.wantType {
				t.Errorf("error type = %s, want %s", result.Errors[0].Type, tt.wantType)
			}
		})
	}
}

func TestValidateRegistry(t *testing.T) {
	if result := NewValidator().ValidateRegistry(NewDefaultRegistry()); result.HasWarnings() {
		t.Errorf("defaults produce warnings:\n%s", result.String())
	}

	r := NewDefaultRegistry()
	r.Register(ContextEditor, "ctrl+r", ActionUndo)
	r.Register(ContextGlobal, "ctrl+c", ActionQuit)

	result := NewValidator().ValidateRegistry(r)
	if len(result.Warnings) != 2 {
		t.Errorf("warnings = %v, want shadowing and reserved key", result.Warnings)
	}
}

func TestFindConflicts(t *testing.T) {
	config := &Config{Settings: map[string]string{"next_field": "tab", "prev_field": "tab"}}
	conflicts := FindConflicts(config)
	if len(conflicts) != 1 {
		t.Fatalf("FindConflicts() = %v", conflicts)
	}
	if !strings.Contains(conflicts[0], "settings") {
		t.Errorf("conflict %q does not name the context", conflicts[0])
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"ctrl+s", false},
		{"f2", false},
		{" ", false},
		{"", true},
		{"alt+", true},
	}

	for _, tt := range tests {
		if err := ValidateKey(tt.key); (err != nil) != tt.wantErr {
			t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
		}
	}
}
