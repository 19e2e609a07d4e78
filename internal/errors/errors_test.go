package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := NewPrismError(MalformedGraph, "node has no id", nil)
	if got := err.Error(); got != "[MALFORMED_GRAPH] node has no id" {
		t.Errorf("Error() = %q", got)
	}

	cause := stderrors.New("unexpected end of JSON input")
	wrapped := NewPrismError(ParseError, "parse nodes.json", cause)
	if !strings.Contains(wrapped.Error(), "unexpected end of JSON input") {
		t.Errorf("cause missing from message: %q", wrapped.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := NewPrismError(InternalError, "wrapper", cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is did not reach the cause")
	}
}

func TestSuggestedFixes(t *testing.T) {
	err := NewPrismError(GraphMissing, "no graph", nil)
	if len(err.SuggestedFixes) == 0 {
		t.Fatal("GraphMissing should carry suggested fixes")
	}
	if err.SuggestedFixes[0].Command != "prism analyze ." {
		t.Errorf("fix command = %q", err.SuggestedFixes[0].Command)
	}
	if !err.SuggestedFixes[0].Safe {
		t.Error("analyze suggestion should be marked safe")
	}

	if fixes := NewPrismError(Validation, "bad plan", nil).SuggestedFixes; len(fixes) != 0 {
		t.Errorf("Validation should have no canned fixes, got %v", fixes)
	}
}

func TestWithDetails(t *testing.T) {
	err := NewPrismError(Validation, "bad op", nil).WithDetails(map[string]int{"opIndex": 2})
	if err.Details == nil {
		t.Error("details not attached")
	}
}
