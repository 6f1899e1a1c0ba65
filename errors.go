// errors.go: structured error handling for xanthos cache operations
//
// This file provides structured error types using the go-errors library,
// enabling rich error context, categorization, and standardized error codes
// for all cache operations.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package xanthos

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for Xanthos cache operations
const (
	// Configuration errors
	ErrCodeInvalidConfig       errors.ErrorCode = "XANTHOS_INVALID_CONFIG"
	ErrCodeInvalidCapacity     errors.ErrorCode = "XANTHOS_INVALID_CAPACITY"
	ErrCodeInvalidRatio        errors.ErrorCode = "XANTHOS_INVALID_RATIO"
	ErrCodeInvalidTTL          errors.ErrorCode = "XANTHOS_INVALID_TTL"
	ErrCodeInvalidBufferSize   errors.ErrorCode = "XANTHOS_INVALID_BUFFER_SIZE"
	ErrCodeMisconfiguredPolicy errors.ErrorCode = "XANTHOS_MISCONFIGURED_POLICY"

	// Operation errors
	ErrCodeEmptyKey errors.ErrorCode = "XANTHOS_EMPTY_KEY"

	// Factory errors
	ErrCodeFactoryFailed    errors.ErrorCode = "XANTHOS_FACTORY_FAILED"
	ErrCodeFactoryCancelled errors.ErrorCode = "XANTHOS_FACTORY_CANCELLED"
	ErrCodeInvalidFactory   errors.ErrorCode = "XANTHOS_INVALID_FACTORY"

	// Internal errors
	ErrCodeInternalError  errors.ErrorCode = "XANTHOS_INTERNAL_ERROR"
	ErrCodePanicRecovered errors.ErrorCode = "XANTHOS_PANIC_RECOVERED"
)

// Common error messages
const (
	msgInvalidCapacity     = "invalid capacity: must allow at least one entry per segment"
	msgInvalidRatio        = "invalid segment ratio: hot and cold ratios must be in (0, 1) and sum below 1"
	msgInvalidTTL          = "invalid TTL: must be positive and representable"
	msgInvalidBufferSize   = "invalid buffer size: must be greater than 0"
	msgMisconfiguredPolicy = "misconfigured policy: expiration modes are mutually exclusive"
	msgEmptyKey            = "key cannot be empty"
	msgFactoryFailed       = "value factory failed"
	msgFactoryCancelled    = "value factory was cancelled"
	msgInvalidFactory      = "value factory cannot be nil"
	msgInternalError       = "internal cache error"
	msgPanicRecovered      = "panic recovered in cache operation"
)

// NewErrInvalidCapacity creates an error for an unusable capacity
func NewErrInvalidCapacity(capacity int) error {
	return errors.NewWithContext(ErrCodeInvalidCapacity, msgInvalidCapacity, map[string]interface{}{
		"provided_capacity": capacity,
		"minimum_required":  MinCapacity,
	})
}

// NewErrInvalidRatio creates an error for out-of-range segment ratios
func NewErrInvalidRatio(hot, cold float64) error {
	return errors.NewWithContext(ErrCodeInvalidRatio, msgInvalidRatio, map[string]interface{}{
		"hot_ratio":  hot,
		"cold_ratio": cold,
	})
}

// NewErrInvalidTTL creates an error for a TTL that is non-positive or would
// overflow after conversion to ticks
func NewErrInvalidTTL(ttl interface{}) error {
	return errors.NewWithContext(ErrCodeInvalidTTL, msgInvalidTTL, map[string]interface{}{
		"provided_ttl": fmt.Sprintf("%v", ttl),
		"maximum_ttl":  fmt.Sprintf("%v", maxTTL),
	})
}

// NewErrInvalidBufferSize creates an error for a non-positive buffer bound
func NewErrInvalidBufferSize(size int) error {
	return errors.NewWithField(ErrCodeInvalidBufferSize, msgInvalidBufferSize, "provided_size", size)
}

// NewErrMisconfiguredPolicy creates an error for mutually exclusive
// expiration settings
func NewErrMisconfiguredPolicy(detail string) error {
	return errors.NewWithField(ErrCodeMisconfiguredPolicy, msgMisconfiguredPolicy, "detail", detail)
}

// NewErrEmptyKey creates an error when key is empty
func NewErrEmptyKey(operation string) error {
	return errors.NewWithField(ErrCodeEmptyKey, msgEmptyKey, "operation", operation)
}

// NewErrFactoryFailed creates an error when the value factory fails
func NewErrFactoryFailed(key string, cause error) error {
	return errors.Wrap(cause, ErrCodeFactoryFailed, msgFactoryFailed).
		WithContext("key", key).
		AsRetryable()
}

// NewErrFactoryCancelled creates an error when the factory is cancelled
func NewErrFactoryCancelled(key string) error {
	return errors.NewWithField(ErrCodeFactoryCancelled, msgFactoryCancelled, "key", key)
}

// NewErrInvalidFactory creates an error when the value factory is nil
func NewErrInvalidFactory(key string) error {
	return errors.NewWithField(ErrCodeInvalidFactory, msgInvalidFactory, "key", key)
}

// NewErrInternal creates a generic internal error
func NewErrInternal(operation string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInternalError, msgInternalError).
			WithContext("operation", operation).
			WithSeverity("warning")
	}
	return errors.NewWithField(ErrCodeInternalError, msgInternalError, "operation", operation).
		WithSeverity("warning")
}

// NewErrPanicRecovered creates an error when a panic is recovered
func NewErrPanicRecovered(operation string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"operation":   operation,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// IsConfigError checks if error is a configuration error
func IsConfigError(err error) bool {
	return errors.HasCode(err, ErrCodeInvalidConfig) ||
		errors.HasCode(err, ErrCodeInvalidCapacity) ||
		errors.HasCode(err, ErrCodeInvalidRatio) ||
		errors.HasCode(err, ErrCodeInvalidTTL) ||
		errors.HasCode(err, ErrCodeInvalidBufferSize) ||
		errors.HasCode(err, ErrCodeMisconfiguredPolicy)
}

// IsEmptyKey checks if error is an empty key error
func IsEmptyKey(err error) bool {
	return errors.HasCode(err, ErrCodeEmptyKey)
}

// IsFactoryError checks if error is a factory error
func IsFactoryError(err error) bool {
	return errors.HasCode(err, ErrCodeFactoryFailed) ||
		errors.HasCode(err, ErrCodeFactoryCancelled) ||
		errors.HasCode(err, ErrCodeInvalidFactory)
}

// IsRetryable checks if the error can be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts context from an error
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var xerr *errors.Error
	if goerrors.As(err, &xerr) {
		return xerr.Context
	}
	return nil
}
