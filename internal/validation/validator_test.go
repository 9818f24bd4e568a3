package validation

import (
	"errors"
	"testing"
)

type signupPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5"`
	Name     string `json:"name" validate:"max=10"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(signupPayload{Email: "nope", Password: "pw", Name: "a very long name"})
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if len(verr.Fields) != 3 {
		t.Fatalf("expected three field errors, got %v", verr.Fields)
	}
	if verr.Fields["password"] != "ensure this field has at least 5 characters" {
		t.Fatalf("unexpected password message %q", verr.Fields["password"])
	}
	if verr.Fields["email"] != "enter a valid email address" {
		t.Fatalf("unexpected email message %q", verr.Fields["email"])
	}
}

func TestStructPassesValidPayload(t *testing.T) {
	if err := Struct(signupPayload{Email: "test@example.com", Password: "testpass123"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestErrorMessageIsSorted(t *testing.T) {
	err := &Error{Fields: map[string]string{"b": "two", "a": "one"}}
	if got := err.Error(); got != "a: one; b: two" {
		t.Fatalf("unexpected message %q", got)
	}
}
