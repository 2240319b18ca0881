package vfs

import (
	"errors"
	"fmt"
	"testing"
)

func TestError(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("uploading: %w", WrapError(KindBackendWrite, cause, "writing %s", "a.txt"))

	if !errors.Is(err, ErrBackendWrite) {
		t.Error("errors.Is(err, ErrBackendWrite) = false")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) = true")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if KindOf(err) != KindBackendWrite {
		t.Errorf("KindOf() = %q, want %q", KindOf(err), KindBackendWrite)
	}
	if got, want := err.Error(), "uploading: writing a.txt: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := fmt.Errorf("database unreachable")
	if KindOf(plain) != "" {
		t.Errorf("KindOf(plain) = %q, want empty", KindOf(plain))
	}

	inUse := &Error{Kind: KindInUse, Message: "file in use", Usages: []Usage{{ContentID: 1}}}
	var target *Error
	if !errors.As(error(inUse), &target) || len(target.Usages) != 1 {
		t.Error("usages not recoverable with errors.As")
	}
	if !errors.Is(inUse, ErrInUse) {
		t.Error("errors.Is(inUse, ErrInUse) = false")
	}
}
