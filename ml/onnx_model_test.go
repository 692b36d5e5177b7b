package ml

import (
	"errors"
	"testing"
)

func TestEnsureONNXEnvironmentRetriesAfterFailure(t *testing.T) {
	orig := initONNXEnv
	defer func() { initONNXEnv = orig }()

	calls := 0
	initONNXEnv = func() error {
		calls++
		if calls == 1 {
			return errors.New("libonnxruntime.so: cannot open shared object file")
		}
		return nil
	}

	if err := ensureONNXEnvironment(); err == nil {
		t.Fatal("expected first initialization to fail")
	}
	if err := ensureONNXEnvironment(); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 initialization attempts, got %d", calls)
	}
}
