package keybinds

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError represents a keybinding validation error
type ValidationError struct {
	Type    string // "conflict", "invalid", "warning"
	Context Context
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s in context '%s': %s", e.Type, e.Key, e.Context, e.Message)
}

// ValidationResult contains all validation errors and warnings
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any errors
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any warnings
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of validation results
func (r *ValidationResult) String() string {
	var sb strings.Builder

	if len(r.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("Errors (%d):\n", len(r.Errors)))
		for _, err := range r.Errors {
			sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
		}
	}

	if len(r.Warnings) > 0 {
		sb.WriteString(fmt.Sprintf("Warnings (%d):\n", len(r.Warnings)))
		for _, warn := range r.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn.Error()))
		}
	}

	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}

	return sb.String()
}

func (r *ValidationResult) addError(typ string, context Context, key, msg string) {
	r.Errors = append(r.Errors, ValidationError{Type: typ, Context: context, Key: key, Message: msg})
}

func (r *ValidationResult) addWarning(context Context, key, msg string) {
	r.Warnings = append(r.Warnings, ValidationError{Type: "warning", Context: context, Key: key, Message: msg})
}

// Validator validates keybinding configurations
type Validator struct {
	// reservedKeys must keep their default action in the global context
	reservedKeys map[string]Action
}

// NewValidator creates a new keybinding validator
func NewValidator() *Validator {
	return &Validator{
		reservedKeys: map[string]Action{
			"ctrl+c": ActionQuitForce,
		},
	}
}

// ValidateConfig checks a user configuration before it is applied
func (v *Validator) ValidateConfig(config *Config) *ValidationResult {
	result := &ValidationResult{}

	for context, section := range config.sections() {
		actions := make([]string, 0, len(section))
		for action := range section {
			actions = append(actions, action)
		}
		sort.Strings(actions)

		owner := make(map[string]string)
		for _, name := range actions {
			if !Action(name).IsKnown() {
				result.addError("invalid", context, "", fmt.Sprintf("unknown action %q", name))
				continue
			}

			keys := SplitKeys(section[name])
			if len(keys) == 0 {
				result.addWarning(context, "", fmt.Sprintf("action %q left unbound", name))
			}
			for _, key := range keys {
				if err := ValidateKey(key); err != nil {
					result.addError("invalid", context, key, err.Error())
					continue
				}
				if prev, taken := owner[key]; taken && prev != name {
					result.addError("conflict", context, key, fmt.Sprintf("bound to both %s and %s", prev, name))
					continue
				}
				owner[key] = name

				if reserved, ok := v.reservedKeys[key]; ok && Action(name) != reserved {
					result.addWarning(context, key, "reserved key rebound (may cause issues)")
				}
			}
		}
	}

	return result
}

// ValidateRegistry reports context bindings that shadow a different global binding
func (v *Validator) ValidateRegistry(registry *Registry) *ValidationResult {
	result := &ValidationResult{}

	global := make(map[string]Action)
	for _, b := range registry.List(ContextGlobal) {
		global[b.Key] = b.Action
	}

	for _, context := range Contexts() {
		if context == ContextGlobal {
			continue
		}
		for _, b := range registry.List(context) {
			if globalAction, ok := global[b.Key]; ok && globalAction != b.Action {
				result.addWarning(context, b.Key, fmt.Sprintf("shadows global binding (%s -> %s)", globalAction, b.Action))
			}
		}
	}

	for key, action := range v.reservedKeys {
		if bound, ok := registry.Match(ContextGlobal, key); !ok || bound != action {
			result.addWarning(ContextGlobal, key, fmt.Sprintf("reserved key no longer triggers %s", action))
		}
	}

	return result
}

// FindConflicts lists the conflicting keybindings in a config
func FindConflicts(config *Config) []string {
	result := NewValidator().ValidateConfig(config)

	var conflicts []string
	for _, err := range result.Errors {
		if err.Type == "conflict" {
			conflicts = append(conflicts, err.Error())
		}
	}
	sort.Strings(conflicts)
	return conflicts
}

// ValidateKey checks if a key string is valid
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	for _, mod := range []string{"ctrl+", "alt+", "shift+", "super+"} {
		if key == mod {
			return fmt.Errorf("modifier without key: %s", key)
		}
	}

	return nil
}
