package errors

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestLaymanError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeLookupMiss, "window not found")
	if err.Code != ErrCodeLookupMiss {
		t.Errorf("expected code %s, got %s", ErrCodeLookupMiss, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeIPCFailed, "get_tree failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeIPCFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeLookupMiss) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("kind", "window").WithDetail("id", 100)
	if detailed.Details["kind"] != "window" {
		t.Error("WithDetail should add details")
	}
}

func TestIsFollowsNestedCauses(t *testing.T) {
	inner := UnknownLayout("Nope", "1", []string{"MasterStack", "none"})
	outer := AlgorithmFailure("MasterStack", "1", inner)
	wrapped := fmt.Errorf("dispatch: %w", outer)

	if !Is(wrapped, ErrCodeAlgorithmFailure) {
		t.Error("Is should see the outer code through fmt wrapping")
	}
	if !Is(wrapped, ErrCodeUnknownLayout) {
		t.Error("Is should see the code of a nested cause")
	}
	if GetCode(wrapped) != ErrCodeAlgorithmFailure {
		t.Errorf("expected outer code, got %s", GetCode(wrapped))
	}
}

func TestErrorConstructors(t *testing.T) {
	err := UnknownLayout("Spiral", "3", []string{"MasterStack", "none"})
	if err.Code != ErrCodeUnknownLayout {
		t.Errorf("expected code %s, got %s", ErrCodeUnknownLayout, err.Code)
	}
	if !strings.Contains(err.Message, "Available layouts: MasterStack, none") {
		t.Errorf("UnknownLayout should list available layouts, got %q", err.Message)
	}
	if !IsConfiguration(err) {
		t.Error("UnknownLayout should be a configuration error")
	}

	err = InvalidOption("masterWidth", 120, "must be between 0 and 100 exclusive")
	if err.Code != ErrCodeConfigInvalid {
		t.Errorf("expected code %s, got %s", ErrCodeConfigInvalid, err.Code)
	}
	if err.Details["key"] != "masterWidth" {
		t.Error("InvalidOption should include key detail")
	}

	err = ControlTimeout("layout set MasterStack", 10*time.Second)
	if err.Details["timeout"] != "10s" {
		t.Errorf("ControlTimeout should include timeout detail, got %v", err.Details["timeout"])
	}
	if IsConfiguration(err) {
		t.Error("ControlTimeout is not a configuration error")
	}
}

func TestMessage(t *testing.T) {
	if got := Message(New(ErrCodeInvalidInput, "bad input")); got != "bad input" {
		t.Errorf("unexpected message %q", got)
	}
	if got := Message(fmt.Errorf("plain")); got != "plain" {
		t.Errorf("unexpected message %q", got)
	}
	if got := Message(nil); got != "" {
		t.Errorf("expected empty message, got %q", got)
	}
}
