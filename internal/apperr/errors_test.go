package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"AINewsAgent/internal/apperr"
)

func TestNewMalformed(t *testing.T) {
	err := apperr.NewMalformed("expected a list of articles")

	if err.Error() != "expected a list of articles" {
		t.Errorf("expected 'expected a list of articles', got %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Errorf("expected nil unwrap, got %v", err.Unwrap())
	}
}

func TestNewMalformedWrap(t *testing.T) {
	inner := fmt.Errorf("unexpected token")
	err := apperr.NewMalformedWrap("decode batch", inner)

	if err.Error() != "decode batch: unexpected token" {
		t.Errorf("expected 'decode batch: unexpected token', got %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to return inner error")
	}
}

func TestStorageError_SurvivesFmtWrapping(t *testing.T) {
	inner := errors.New("connection refused")
	wrapped := fmt.Errorf("rank: %w", apperr.NewStorage("has been posted", inner))

	if !apperr.IsStorage(wrapped) {
		t.Fatal("IsStorage should find StorageError through wrapping")
	}
	if !errors.Is(wrapped, inner) {
		t.Fatal("errors.Is should reach the driver error")
	}
}

func TestIsTransient(t *testing.T) {
	transient := fmt.Errorf("publish: %w", &apperr.TransientPlatformError{Platform: "twitter", StatusCode: 429, Err: errors.New("slow down")})
	permanent := fmt.Errorf("publish: %w", &apperr.PlatformError{Platform: "twitter", StatusCode: 403, Body: "forbidden"})

	if !apperr.IsTransient(transient) {
		t.Error("expected 429 error to be transient")
	}
	if apperr.IsTransient(permanent) {
		t.Error("expected 403 error to be permanent")
	}
}
