package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "secret123" {
		t.Fatalf("hash must not equal the plain password")
	}
	if err := CheckPassword("secret123", hash); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}
	if err := CheckPassword("wrong", hash); err == nil {
		t.Fatalf("expected mismatch error for wrong password")
	}
}

func TestGenerateTempPassword(t *testing.T) {
	a, err := GenerateTempPassword()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := GenerateTempPassword()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != 12 {
		t.Fatalf("expected 12 characters, got %d", len(a))
	}
	if a == b {
		t.Fatalf("consecutive temp passwords must differ")
	}
}

func TestIsValidPaymentType(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"monthly", true},
		{"per_session", true},
		{"weekly", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := IsValidPaymentType(tc.input); got != tc.valid {
			t.Errorf("IsValidPaymentType(%q) = %v, want %v", tc.input, got, tc.valid)
		}
	}
}
