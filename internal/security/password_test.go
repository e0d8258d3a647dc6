package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordHasher failed: %v", err)
	}
	return h
}

// TestPasswordHasher_HashAndVerify はハッシュ化したパスワードが照合できることを検証する。
func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("pw123456")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "pw123456" || strings.Contains(hash, "pw123456") {
		t.Error("hash must not contain the plaintext")
	}
	if !h.Verify(hash, "pw123456") {
		t.Error("Verify returned false for the correct password")
	}
	if h.Verify(hash, "wrong-password") {
		t.Error("Verify returned true for a wrong password")
	}
}

// TestPasswordHasher_Salted は同じパスワードでも異なるハッシュになることを検証する。
func TestPasswordHasher_Salted(t *testing.T) {
	h := newTestHasher(t)

	a, _ := h.Hash("same-password")
	b, _ := h.Hash("same-password")
	if a == b {
		t.Error("expected different hashes for the same password")
	}
}

// TestPasswordHasher_TooLong は72バイトを超えるパスワードを拒否することを検証する。
func TestPasswordHasher_TooLong(t *testing.T) {
	h := newTestHasher(t)

	_, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Errorf("72 bytes should be accepted: %v", err)
	}
}

// TestPasswordHasher_VerifyMalformedHash は不正なハッシュでfalseを返すことを検証する。
func TestPasswordHasher_VerifyMalformedHash(t *testing.T) {
	h := newTestHasher(t)
	if h.Verify("not-a-bcrypt-hash", "pw123456") {
		t.Error("Verify should reject a malformed hash")
	}
}

// TestPasswordHasher_DummyVerify は常にfalseを返すことを検証する。
func TestPasswordHasher_DummyVerify(t *testing.T) {
	h := newTestHasher(t)
	if h.DummyVerify("immal-dummy-password") {
		t.Error("DummyVerify must always return false")
	}
}

// TestNewPasswordHasher_InvalidCostFallsBack は範囲外のコストがデフォルトになることを検証する。
func TestNewPasswordHasher_InvalidCostFallsBack(t *testing.T) {
	h, err := NewPasswordHasher(0)
	if err != nil {
		t.Fatalf("NewPasswordHasher failed: %v", err)
	}
	if h.cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", h.cost, bcrypt.DefaultCost)
	}
}
