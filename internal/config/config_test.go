package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestString(t *testing.T) {
	t.Setenv("OVERLAY_TEST_STRING", "")
	if got := String("OVERLAY_TEST_STRING", "fallback"); got != "fallback" {
		t.Errorf("String unset: got %q, want fallback", got)
	}

	t.Setenv("OVERLAY_TEST_STRING", "value")
	if got := String("OVERLAY_TEST_STRING", "fallback"); got != "value" {
		t.Errorf("String set: got %q, want value", got)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("OVERLAY_TEST_INT", "42")
	if got := Int("OVERLAY_TEST_INT", 7); got != 42 {
		t.Errorf("Int: got %d, want 42", got)
	}

	t.Setenv("OVERLAY_TEST_INT", "forty-two")
	if got := Int("OVERLAY_TEST_INT", 7); got != 7 {
		t.Errorf("Int invalid: got %d, want 7", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("OVERLAY_TEST_BOOL", "true")
	if !Bool("OVERLAY_TEST_BOOL", false) {
		t.Error("Bool: expected true")
	}
	t.Setenv("OVERLAY_TEST_BOOL", "maybe")
	if Bool("OVERLAY_TEST_BOOL", false) {
		t.Error("Bool invalid: expected default false")
	}
}

func TestGoogleAPIKey_Fallback(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	if got := GoogleAPIKey(); got != "gemini-key" {
		t.Errorf("GoogleAPIKey: got %q, want gemini-key", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("OVERLAY_DOTENV_TEST=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OVERLAY_DOTENV_TEST", "")
	os.Unsetenv("OVERLAY_DOTENV_TEST")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("OVERLAY_DOTENV_TEST"); got != "from-file" {
		t.Errorf("OVERLAY_DOTENV_TEST: got %q, want from-file", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("LoadDotEnv missing file: unexpected error %v", err)
	}
}
