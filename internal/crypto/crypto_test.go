package crypto

import "testing"

func testKey() []byte {
	return []byte("01234567890123456789012345678901") // 32 bytes
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey()
	plaintext := "super-secret-api-key"

	ciphertext, err := EncryptString(key, plaintext)
	if err != nil {
		t.Fatalf("EncryptString: %v", err)
	}
	if ciphertext == plaintext {
		t.Fatalf("ciphertext should not equal plaintext")
	}

	got, err := DecryptString(key, ciphertext)
	if err != nil {
		t.Fatalf("DecryptString: %v", err)
	}
	if got != plaintext {
		t.Errorf("got %q, want %q", got, plaintext)
	}
}

func TestEncryptRejectsShortKey(t *testing.T) {
	if _, err := EncryptString([]byte("too-short"), "x"); err == nil {
		t.Errorf("expected error for non-32-byte key")
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	ciphertext, err := EncryptString(testKey(), "secret")
	if err != nil {
		t.Fatalf("EncryptString: %v", err)
	}

	wrongKey := []byte("abcdefghijabcdefghijabcdefghijab")
	if _, err := DecryptString(wrongKey, ciphertext); err == nil {
		t.Errorf("expected decryption to fail under the wrong key")
	}
}
