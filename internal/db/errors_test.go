package db

import (
	"context"
	"errors"
	"testing"
)

func TestError_WrapsOperation(t *testing.T) {
	err := error(&Error{Op: OpScan, Err: context.DeadlineExceeded})

	if err.Error() != "SCAN: context deadline exceeded" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected errors.Is to reach the wrapped error")
	}
	var dbErr *Error
	if !errors.As(err, &dbErr) || dbErr.Op != OpScan {
		t.Errorf("expected *Error with op %q, got %#v", OpScan, err)
	}
}
