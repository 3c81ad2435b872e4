package testutil

import (
	"errors"
	"testing"

	apperrors "financehub/internal/errors"
	"financehub/internal/money"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertMoney compares amounts by value, so 5 and 5.00 are equal.
func AssertMoney(t *testing.T, expected string, actual money.Money) {
	t.Helper()

	want := money.MustParse(expected)
	if !want.Equal(actual) {
		t.Errorf("expected amount %s, got %s", want, actual)
	}
}
