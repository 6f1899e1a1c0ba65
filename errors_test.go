// errors_test.go: tests for structured error construction and helpers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	goerrors "errors"
	"testing"
	"time"
)

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"invalid capacity", NewErrInvalidCapacity(2), "XANTHOS_INVALID_CAPACITY"},
		{"invalid ratio", NewErrInvalidRatio(1.5, 0.1), "XANTHOS_INVALID_RATIO"},
		{"invalid ttl", NewErrInvalidTTL(-time.Second), "XANTHOS_INVALID_TTL"},
		{"invalid buffer size", NewErrInvalidBufferSize(-1), "XANTHOS_INVALID_BUFFER_SIZE"},
		{"misconfigured policy", NewErrMisconfiguredPolicy("detail"), "XANTHOS_MISCONFIGURED_POLICY"},
		{"empty key", NewErrEmptyKey("TryGet"), "XANTHOS_EMPTY_KEY"},
		{"factory failed", NewErrFactoryFailed("k", goerrors.New("x")), "XANTHOS_FACTORY_FAILED"},
		{"factory cancelled", NewErrFactoryCancelled("k"), "XANTHOS_FACTORY_CANCELLED"},
		{"invalid factory", NewErrInvalidFactory("k"), "XANTHOS_INVALID_FACTORY"},
		{"internal", NewErrInternal("op", nil), "XANTHOS_INTERNAL_ERROR"},
		{"panic recovered", NewErrPanicRecovered("op", "boom"), "XANTHOS_PANIC_RECOVERED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := GetErrorCode(tt.err); string(code) != tt.code {
				t.Errorf("GetErrorCode = %q, want %q", code, tt.code)
			}
			if tt.err.Error() == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestIsConfigError(t *testing.T) {
	configErrs := []error{
		NewErrInvalidCapacity(0),
		NewErrInvalidRatio(0, 0),
		NewErrInvalidTTL(0),
		NewErrInvalidBufferSize(0),
		NewErrMisconfiguredPolicy(""),
	}
	for _, err := range configErrs {
		if !IsConfigError(err) {
			t.Errorf("IsConfigError(%v) = false, want true", err)
		}
	}

	if IsConfigError(nil) {
		t.Error("IsConfigError(nil) = true")
	}
	if IsConfigError(NewErrEmptyKey("op")) {
		t.Error("IsConfigError(empty key) = true")
	}
	if IsConfigError(goerrors.New("plain")) {
		t.Error("IsConfigError(plain error) = true")
	}
}

func TestIsFactoryError(t *testing.T) {
	for _, err := range []error{
		NewErrFactoryFailed("k", goerrors.New("x")),
		NewErrFactoryCancelled("k"),
		NewErrInvalidFactory("k"),
	} {
		if !IsFactoryError(err) {
			t.Errorf("IsFactoryError(%v) = false, want true", err)
		}
	}
	if IsFactoryError(NewErrInvalidCapacity(0)) {
		t.Error("IsFactoryError(config error) = true")
	}
}

func TestIsEmptyKey(t *testing.T) {
	if !IsEmptyKey(NewErrEmptyKey("GetOrAdd")) {
		t.Error("IsEmptyKey = false, want true")
	}
	if IsEmptyKey(nil) {
		t.Error("IsEmptyKey(nil) = true")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(NewErrFactoryFailed("k", goerrors.New("x"))) {
		t.Error("factory failure should be retryable")
	}
	if IsRetryable(NewErrInvalidCapacity(0)) {
		t.Error("configuration errors are not retryable")
	}
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) = true")
	}
}

func TestGetErrorContext(t *testing.T) {
	err := NewErrInvalidCapacity(2)
	ctx := GetErrorContext(err)
	if ctx == nil {
		t.Fatal("GetErrorContext = nil")
	}
	if ctx["provided_capacity"] != 2 {
		t.Errorf("context provided_capacity = %v, want 2", ctx["provided_capacity"])
	}
	if ctx["minimum_required"] != MinCapacity {
		t.Errorf("context minimum_required = %v, want %d", ctx["minimum_required"], MinCapacity)
	}

	if GetErrorContext(nil) != nil {
		t.Error("GetErrorContext(nil) != nil")
	}
	if GetErrorContext(goerrors.New("plain")) != nil {
		t.Error("GetErrorContext(plain) != nil")
	}
}

func TestGetErrorCode_PlainError(t *testing.T) {
	if code := GetErrorCode(goerrors.New("plain")); code != "" {
		t.Errorf("GetErrorCode(plain) = %q, want empty", code)
	}
	if code := GetErrorCode(nil); code != "" {
		t.Errorf("GetErrorCode(nil) = %q, want empty", code)
	}
}

func TestFactoryFailedWrapsCause(t *testing.T) {
	cause := goerrors.New("connection refused")
	err := NewErrFactoryFailed("user:1", cause)

	if !goerrors.Is(err, cause) {
		t.Error("wrapped factory error lost its cause")
	}
}
