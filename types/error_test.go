package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrPluginHTTPError, "plugin returned 502").
		WithCause(root).
		WithHTTPStatus(502).
		WithPlugin("search")

	if GetErrorCode(err) != ErrPluginHTTPError {
		t.Fatalf("expected code %s, got %s", ErrPluginHTTPError, GetErrorCode(err))
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if err.Plugin != "search" || err.HTTPStatus != 502 {
		t.Fatalf("builder fields not set: %+v", err)
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestGetErrorCode_PlainError(t *testing.T) {
	t.Parallel()

	if got := GetErrorCode(errors.New("plain")); got != "" {
		t.Fatalf("expected empty code for plain error, got %s", got)
	}
}

func TestGetErrorCode_WrappedChain(t *testing.T) {
	t.Parallel()

	inner := NewError(ErrPluginTimeout, "describe timed out")
	wrapped := fmt.Errorf("discovery attempt 2: %w", inner)

	if got := GetErrorCode(wrapped); got != ErrPluginTimeout {
		t.Fatalf("expected code %s through the wrap chain, got %q", ErrPluginTimeout, got)
	}
}
