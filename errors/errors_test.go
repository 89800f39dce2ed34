package errors

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseBuiltin,
				Kind:    KindTypeMismatch,
				Builtin: "units.parse",
				Detail:  "operand 1 must be string",
			},
			contains: []string{"[builtin]", "type_mismatch", "units.parse", "operand 1 must be string"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindInvalidData,
				Detail: "compile module",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "invalid_data", "compile module", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !containsSubstring(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := TypeMismatch("sprintf", "bad operand")

	if !errors.Is(err, &Error{Phase: PhaseBuiltin, Kind: KindTypeMismatch}) {
		t.Error("Is did not match same phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseBuiltin, Kind: KindDomain}) {
		t.Error("Is matched different kind")
	}
}

func TestSoft(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "type mismatch", err: TypeMismatch("abs", "not a number"), want: true},
		{name: "domain", err: Domain("rand.intn", "negative bound"), want: true},
		{name: "parse", err: Parse("semver.compare", "bad version"), want: true},
		{name: "unsupported", err: Unsupported("yaml.marshal"), want: true},
		{name: "builtin missing", err: BuiltinMissing("custom.fn"), want: true},
		{name: "abort", err: Abort("boom"), want: false},
		{name: "load", err: Load("compile", errors.New("x")), want: false},
		{name: "plain error", err: errors.New("plain"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSoft(tt.err); got != tt.want {
				t.Errorf("IsSoft() = %v, want %v", got, tt.want)
			}
		})
	}
}

func containsSubstring(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
