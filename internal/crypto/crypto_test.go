package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() failed: %v", err)
	}
	originalData := []byte(`{"id":"u1","username":"alice"}`)

	blob, err := EncryptAESGCM(key, originalData)
	if err != nil {
		t.Fatalf("EncryptAESGCM() failed: %v", err)
	}
	if bytes.Contains(blob, []byte("alice")) {
		t.Fatalf("ciphertext leaks plaintext")
	}
	decryptedData, err := DecryptAESGCM(key, blob)
	if err != nil {
		t.Fatalf("DecryptAESGCM() failed: %v", err)
	}
	if !bytes.Equal(decryptedData, originalData) {
		t.Fatalf("decrypted data does not match original data")
	}

	other, _ := GenerateKey()
	if _, err := DecryptAESGCM(other, blob); err == nil {
		t.Fatalf("expected failure with wrong key")
	}
	if _, err := DecryptAESGCM(key, blob[:4]); !errors.Is(err, ErrCiphertextTooShort) {
		t.Fatalf("expected ErrCiphertextTooShort, got %v", err)
	}
}

func TestKeyLengthChecked(t *testing.T) {
	if _, err := EncryptAESGCM([]byte("short"), []byte("x")); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
	if _, err := ParseHexKey("abcd"); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
	if _, err := ParseHexKey("zz"); err == nil {
		t.Fatalf("expected hex error")
	}
}

func TestReadKeyFileAndDerive(t *testing.T) {
	key, _ := GenerateKey()
	path := filepath.Join(t.TempDir(), "session.key")
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)+"\n"), 0600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	got, err := ReadKeyFile(path)
	if err != nil {
		t.Fatalf("ReadKeyFile() failed: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Fatalf("key mismatch")
	}

	a, err := DeriveKey(key, "cookie-hash", 64)
	if err != nil {
		t.Fatalf("DeriveKey() failed: %v", err)
	}
	b, _ := DeriveKey(key, "cookie-block", 32)
	again, _ := DeriveKey(key, "cookie-hash", 64)
	if len(a) != 64 || len(b) != 32 {
		t.Fatalf("unexpected lengths %d %d", len(a), len(b))
	}
	if !bytes.Equal(a, again) {
		t.Fatalf("derivation is not deterministic")
	}
	if bytes.Equal(a[:32], b) {
		t.Fatalf("distinct infos produced the same key")
	}
}
