package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := New(ErrorTypeRateLimit, "rate limit exceeded", 429)

	expected := "rate_limit error (code 429): rate limit exceeded"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}

func TestErrorIsMatchesType(t *testing.T) {
	err := fmt.Errorf("wrapping: %w", NewSend("photo rejected"))

	if !stderrors.Is(err, &Error{Type: ErrorTypeSend}) {
		t.Error("Expected wrapped send error to match ErrorTypeSend")
	}
	if stderrors.Is(err, &Error{Type: ErrorTypeDelete}) {
		t.Error("Send error should not match ErrorTypeDelete")
	}
}

func TestErrorAs(t *testing.T) {
	wrapped := fmt.Errorf("provider call: %w", FromStatusCode(503, "upstream down"))

	var typed *Error
	if !stderrors.As(wrapped, &typed) {
		t.Fatal("Expected errors.As to unwrap *Error")
	}
	if typed.Type != ErrorTypeServerError {
		t.Errorf("Expected server_error, got %s", typed.Type)
	}
	if typed.Code != 503 {
		t.Errorf("Expected code 503, got %d", typed.Code)
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError}
	for _, et := range retryable {
		if !IsRetryable(et) {
			t.Errorf("Expected %s to be retryable", et)
		}
	}

	terminal := []ErrorType{ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing, ErrorTypeUnknown, ErrorTypeSend, ErrorTypeMalformedPost}
	for _, et := range terminal {
		if IsRetryable(et) {
			t.Errorf("Expected %s to not be retryable", et)
		}
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	tests := []struct {
		code      int
		retryable bool
	}{
		{0, true},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
		{599, true},
		{401, false},
		{403, false},
		{404, false},
		{400, false},
		{200, false},
	}

	for _, tt := range tests {
		if got := IsRetryableStatusCode(tt.code); got != tt.retryable {
			t.Errorf("IsRetryableStatusCode(%d) = %v, want %v", tt.code, got, tt.retryable)
		}
	}
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code     int
		expected ErrorType
	}{
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{502, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		err := FromStatusCode(tt.code, "boom")
		if err.Type != tt.expected {
			t.Errorf("FromStatusCode(%d) type = %s, want %s", tt.code, err.Type, tt.expected)
		}
		if err.Code != tt.code {
			t.Errorf("FromStatusCode(%d) code = %d", tt.code, err.Code)
		}
	}
}
