package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d", cfg.HTTPPort)
	}
	if cfg.DefaultTopK != 5 {
		t.Errorf("DefaultTopK = %d", cfg.DefaultTopK)
	}
	if cfg.DefaultMinSimilarity != 0.5 {
		t.Errorf("DefaultMinSimilarity = %f", cfg.DefaultMinSimilarity)
	}
	if cfg.DisableDegradedRetry {
		t.Error("DisableDegradedRetry should default to false")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("DEFAULT_ENSURE_MIN_CHUNKS", "8")
	t.Setenv("EMBEDDING_PROVIDER", "ollama")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPPort != 9999 {
		t.Errorf("HTTPPort = %d", cfg.HTTPPort)
	}
	if cfg.DefaultEnsureMinChunks != 8 {
		t.Errorf("DefaultEnsureMinChunks = %d", cfg.DefaultEnsureMinChunks)
	}
	if cfg.EmbeddingProvider != "ollama" {
		t.Errorf("EmbeddingProvider = %q", cfg.EmbeddingProvider)
	}
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `
expansion_terms:
  - work schedule
  - shift hours
document_types:
  benefits:
    - maternity
    - insurance
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rules.ExpansionTerms) != 2 || rules.ExpansionTerms[0] != "work schedule" {
		t.Errorf("ExpansionTerms = %v", rules.ExpansionTerms)
	}
	if len(rules.DocumentTypes["benefits"]) != 2 {
		t.Errorf("DocumentTypes = %v", rules.DocumentTypes)
	}
}

func TestLoadRulesEmptyPath(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatal(err)
	}
	if len(rules.ExpansionTerms) != 0 || len(rules.DocumentTypes) != 0 {
		t.Errorf("expected empty rules, got %+v", rules)
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	if _, err := LoadRules("/nonexistent/rules.yaml"); err == nil {
		t.Error("expected an error for a missing rules file")
	}
}
