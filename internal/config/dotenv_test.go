package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")

	content := "# comment\nTEST_DOTENV_A=hello\nTEST_DOTENV_B=\"quoted value\"\n\nbroken line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	os.Unsetenv("TEST_DOTENV_A")
	os.Unsetenv("TEST_DOTENV_B")
	defer os.Unsetenv("TEST_DOTENV_A")
	defer os.Unsetenv("TEST_DOTENV_B")

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}

	if got := os.Getenv("TEST_DOTENV_A"); got != "hello" {
		t.Errorf("TEST_DOTENV_A = %q", got)
	}
	if got := os.Getenv("TEST_DOTENV_B"); got != "quoted value" {
		t.Errorf("TEST_DOTENV_B = %q", got)
	}
}

func TestLoadDotenvNoOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")

	if err := os.WriteFile(path, []byte("TEST_DOTENV_C=file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	os.Setenv("TEST_DOTENV_C", "env")
	defer os.Unsetenv("TEST_DOTENV_C")

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}

	if got := os.Getenv("TEST_DOTENV_C"); got != "env" {
		t.Errorf("existing env var overridden: %q", got)
	}
}

func TestLoadDotenvMissing(t *testing.T) {
	if err := LoadDotenv(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}
