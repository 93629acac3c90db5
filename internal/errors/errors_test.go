package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	err := NewInvalidParameter("kernel size must be odd")

	if !IsKind(err, KindInvalidParameter) {
		t.Error("expected invalid_parameter kind")
	}
	if IsKind(err, KindDecode) {
		t.Error("did not expect decode kind")
	}
}

func TestIsKindSeesThroughWrapping(t *testing.T) {
	inner := NewDecode("bad header", stderrors.New("truncated"))
	wrapped := fmt.Errorf("loading sample: %w", inner)

	if !IsKind(wrapped, KindDecode) {
		t.Error("expected kind to survive fmt.Errorf wrapping")
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := stderrors.New("native failure")
	err := NewProcessing("thresholding failed", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestIsKindOnPlainError(t *testing.T) {
	if IsKind(stderrors.New("plain"), KindProcessing) {
		t.Error("plain errors carry no kind")
	}
}
