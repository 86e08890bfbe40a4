package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2", 10)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	if err := VerifyPassword("hunter2", hash); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}

	if err := VerifyPassword("wrong", hash); err == nil {
		t.Error("wrong password accepted")
	}
}

func TestHashPasswordClampsCost(t *testing.T) {
	// Out-of-range cost falls back to the bcrypt default instead of failing.
	hash, err := HashPassword("hunter2", 99)
	if err != nil {
		t.Fatalf("failed to hash with out-of-range cost: %v", err)
	}
	if err := VerifyPassword("hunter2", hash); err != nil {
		t.Errorf("password hashed with clamped cost rejected: %v", err)
	}
}
