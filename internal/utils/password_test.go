package utils

import "testing"

func TestGenerateRandomString(t *testing.T) {
	for _, n := range []int{1, 8, 16, 33} {
		s := GenerateRandomString(n)
		if len(s) != n {
			t.Errorf("GenerateRandomString(%d) length = %d", n, len(s))
		}
	}
	if GenerateRandomString(16) == GenerateRandomString(16) {
		t.Error("two random strings should differ")
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hashed, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := VerifyPassword(hashed, "s3cret-pass"); err != nil {
		t.Errorf("VerifyPassword(correct) error = %v", err)
	}
	if err := VerifyPassword(hashed, "wrong"); err == nil {
		t.Error("VerifyPassword(wrong) should fail")
	}
}
