package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateIdentity_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".age-key")

	if err := GenerateIdentity(path); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
	}
}

func TestGenerateIdentity_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".age-key")

	if err := GenerateIdentity(path); err != nil {
		t.Fatalf("first call: %v", err)
	}
	data1, _ := os.ReadFile(path)

	if err := GenerateIdentity(path); err != nil {
		t.Fatalf("second call: %v", err)
	}
	data2, _ := os.ReadFile(path)

	if string(data1) != string(data2) {
		t.Error("idempotency broken: file changed on second call")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".age-key")

	if err := GenerateIdentity(path); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	id, err := LoadIdentity(path)
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}

	blob, err := Encrypt("sk-super-secret", id.Recipient())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !IsEncrypted(blob) {
		t.Fatalf("blob not recognized as encrypted: %q", blob)
	}

	plain, err := Decrypt(blob, id)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plain != "sk-super-secret" {
		t.Errorf("round trip mismatch: %q", plain)
	}
}

func TestDecryptRejectsPlaintext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".age-key")

	if err := GenerateIdentity(path); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	id, err := LoadIdentity(path)
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}

	if _, err := Decrypt("sk-plain", id); err == nil {
		t.Error("expected error decrypting non-encrypted value")
	}
}
