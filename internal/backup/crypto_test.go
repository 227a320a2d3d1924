package backup

import (
	"bytes"
	"errors"
	"testing"
)

func TestGenerateSalt(t *testing.T) {
	salt1, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if len(salt1) != saltSize {
		t.Errorf("salt length = %d, want %d", len(salt1), saltSize)
	}

	salt2, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt 2: %v", err)
	}
	if bytes.Equal(salt1, salt2) {
		t.Error("two salts should not be equal")
	}
}

func TestDeriveKey(t *testing.T) {
	salt := []byte("1234567890abcdef")

	key1 := DeriveKey("mypassphrase", salt)
	key2 := DeriveKey("mypassphrase", salt)
	if !bytes.Equal(key1, key2) {
		t.Error("same passphrase+salt should produce same key")
	}
	if len(key1) != keySize {
		t.Errorf("key length = %d, want %d", len(key1), keySize)
	}

	if bytes.Equal(key1, DeriveKey("otherpassphrase", salt)) {
		t.Error("different passphrases should produce different keys")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	original := []byte(`{"data":{"2024-03-15":{}},"config":{"members":{},"tasks":{}}}`)
	passphrase := "test-passphrase-123"

	encrypted, err := EncryptBytes(original, passphrase)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(encrypted, []byte("2024-03-15")) {
		t.Error("encrypted blob should not contain plaintext")
	}

	again, _ := EncryptBytes(original, passphrase)
	if bytes.Equal(encrypted[:saltSize], again[:saltSize]) {
		t.Error("each encryption should use a fresh salt")
	}

	decrypted, err := DecryptBytes(encrypted, passphrase)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(original, decrypted) {
		t.Error("decrypted content should match original")
	}
}

func TestDecryptFailures(t *testing.T) {
	encrypted, err := EncryptBytes([]byte("secret data"), "correct-password")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	tampered := append([]byte(nil), encrypted...)
	tampered[saltSize+nonceSize+1] ^= 0xFF

	tests := []struct {
		name       string
		data       []byte
		passphrase string
	}{
		{"wrong passphrase", encrypted, "wrong-password"},
		{"tampered ciphertext", tampered, "correct-password"},
		{"too small", []byte("too short"), "correct-password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecryptBytes(tt.data, tt.passphrase)
			if !errors.Is(err, ErrDecrypt) {
				t.Errorf("err = %v, want ErrDecrypt", err)
			}
		})
	}
}

func TestEncryptDecryptEmpty(t *testing.T) {
	encrypted, err := EncryptBytes(nil, "password")
	if err != nil {
		t.Fatalf("encrypt empty: %v", err)
	}
	decrypted, err := DecryptBytes(encrypted, "password")
	if err != nil {
		t.Fatalf("decrypt empty: %v", err)
	}
	if len(decrypted) != 0 {
		t.Errorf("expected empty plaintext, got %d bytes", len(decrypted))
	}
}
