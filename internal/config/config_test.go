package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "ASSUMPTION_BACKEND", "PROVIDER_TIMEOUT", "DEEPSEEK_API_KEY", "API_KEY", "CORS_ALLOWED_ORIGINS", "FALLBACK_LIVING_COST"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.AssumptionBackend != "deepseek" {
		t.Errorf("expected deepseek backend, got %q", cfg.AssumptionBackend)
	}
	if cfg.ProviderTimeout != 45*time.Second {
		t.Errorf("expected 45s provider timeout, got %v", cfg.ProviderTimeout)
	}
	if cfg.FallbackLivingCost != 3000 {
		t.Errorf("expected living cost 3000, got %v", cfg.FallbackLivingCost)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ASSUMPTION_BACKEND", "Gemini")
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("API_KEY", "shared-key")
	t.Setenv("FALLBACK_INTEREST_RATE", "3.25")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg := Load()
	if cfg.AssumptionBackend != "gemini" {
		t.Errorf("expected gemini, got %q", cfg.AssumptionBackend)
	}
	if cfg.DeepSeekAPIKey != "shared-key" || cfg.GeminiAPIKey != "shared-key" {
		t.Errorf("expected API_KEY fallback, got %q / %q", cfg.DeepSeekAPIKey, cfg.GeminiAPIKey)
	}
	if cfg.FallbackInterestRate != 3.25 {
		t.Errorf("expected 3.25, got %v", cfg.FallbackInterestRate)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("invalid MAX_RETRIES should keep default, got %d", cfg.MaxRetries)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nexport ESTIMATOR_TEST_A=\"from-file\"\nESTIMATOR_TEST_B=file\nbroken-line\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ESTIMATOR_TEST_B", "from-env")
	t.Cleanup(func() { os.Unsetenv("ESTIMATOR_TEST_A") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("ESTIMATOR_TEST_A"); got != "from-file" {
		t.Errorf("expected from-file, got %q", got)
	}
	if got := os.Getenv("ESTIMATOR_TEST_B"); got != "from-env" {
		t.Errorf("env must win over file, got %q", got)
	}
}

func TestParseDotEnv(t *testing.T) {
	in := strings.Join([]string{
		"# comment",
		"",
		"PLAIN=value",
		"SPACED = padded  ",
		`QUOTED="keep # this"`,
		"SINGLE='x'",
		"TRAILING=3.6 # gemini default",
		"=novalue",
		"no-equals",
		"EMPTY=",
	}, "\n")

	got, err := parseDotEnv(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"PLAIN":    "value",
		"SPACED":   "padded",
		"QUOTED":   "keep # this",
		"SINGLE":   "x",
		"TRAILING": "3.6",
		"EMPTY":    "",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d keys, got %v", len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %q, got %q", k, v, got[k])
		}
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
