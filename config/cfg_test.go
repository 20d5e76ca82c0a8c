package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfiguration_Defaults(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("unable to load default configuration: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if cfg.Conversion.Schema != TargetSchemaElementor {
		t.Errorf("expected elementor schema by default, got %s", cfg.Conversion.Schema)
	}
	if cfg.Conversion.MinConfidence != 60 {
		t.Errorf("expected default min_confidence 60, got %d", cfg.Conversion.MinConfidence)
	}
	if cfg.Conversion.ReviewBand != 10 {
		t.Errorf("expected default review_band 10, got %d", cfg.Conversion.ReviewBand)
	}
	if !cfg.Conversion.FallbackRawHTML {
		t.Error("expected fallback_raw_html to default to true")
	}
	if !cfg.Conversion.Optimize {
		t.Error("expected optimize to default to true")
	}
	if cfg.Validation.Timeout < 1 {
		t.Errorf("expected positive validation timeout, got %d", cfg.Validation.Timeout)
	}
	if cfg.Batch.Jobs < 1 {
		t.Errorf("expected at least one batch job, got %d", cfg.Batch.Jobs)
	}
}

func TestLoadConfiguration_FileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pbc.yaml")
	data := `
conversion:
  min_confidence: 75
  fallback_raw_html: false
validation:
  visual: false
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("unable to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("unable to load configuration: %v", err)
	}
	if cfg.Conversion.MinConfidence != 75 {
		t.Errorf("expected min_confidence 75 from file, got %d", cfg.Conversion.MinConfidence)
	}
	if cfg.Conversion.FallbackRawHTML {
		t.Error("expected fallback_raw_html to be overridden to false")
	}
	if cfg.Validation.Visual {
		t.Error("expected validation.visual to be overridden to false")
	}
	// untouched values keep template defaults
	if cfg.Conversion.ReviewBand != 10 {
		t.Errorf("expected review_band to keep default 10, got %d", cfg.Conversion.ReviewBand)
	}
}

func TestLoadConfiguration_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pbc.yaml")
	if err := os.WriteFile(path, []byte("conversion:\n  no_such_option: 1\n"), 0644); err != nil {
		t.Fatalf("unable to write config file: %v", err)
	}
	if _, err := LoadConfiguration(path); err == nil {
		t.Error("expected unknown configuration field to be rejected")
	}
}

func TestLoadConfiguration_RejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pbc.yaml")
	if err := os.WriteFile(path, []byte("conversion:\n  min_confidence: 101\n"), 0644); err != nil {
		t.Fatalf("unable to write config file: %v", err)
	}
	if _, err := LoadConfiguration(path); err == nil {
		t.Error("expected out of range min_confidence to be rejected")
	}
}

func TestParseTargetSchema(t *testing.T) {
	if v, err := ParseTargetSchema("elementor"); err != nil || v != TargetSchemaElementor {
		t.Errorf("expected elementor to parse, got %v, %v", v, err)
	}
	if _, err := ParseTargetSchema("wix"); err == nil {
		t.Error("expected unsupported schema to fail parsing")
	}
}
