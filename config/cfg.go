package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	// ConversionConfig controls how recognized components are lowered into
	// the target schema.
	ConversionConfig struct {
		Schema          TargetSchema `yaml:"schema" validate:"gte=0"`
		MinConfidence   int          `yaml:"min_confidence" validate:"min=0,max=100"`
		ReviewBand      int          `yaml:"review_band" validate:"min=0,max=50"`
		FallbackRawHTML bool         `yaml:"fallback_raw_html"`
		Optimize        bool         `yaml:"optimize"`
		Encoding        string       `yaml:"encoding,omitempty"`
		StylesheetPath  string       `yaml:"stylesheet_path,omitempty" sanitize:"assure_file_access"`
		ViewportWidth   int          `yaml:"viewport_width" validate:"min=320"`

		// OutputNameTemplate names produced documents; when empty the
		// source file name with a .json extension is used.
		OutputNameTemplate string `yaml:"output_name_template,omitempty"`
	}

	// ValidationConfig controls fidelity checks of the converted document.
	ValidationConfig struct {
		Visual         bool   `yaml:"visual"`
		Assets         bool   `yaml:"assets"`
		CustomCode     bool   `yaml:"custom_code"`
		PixelThreshold int    `yaml:"pixel_threshold" validate:"min=0,max=255"`
		ViewportWidth  int    `yaml:"viewport_width" validate:"min=320"`
		ViewportHeight int    `yaml:"viewport_height" validate:"min=240"`
		Timeout        int    `yaml:"timeout" validate:"min=1"`
		BrowserURL     string `yaml:"browser_url,omitempty"`
	}

	// BatchConfig controls multi-page conversions.
	BatchConfig struct {
		Jobs int `yaml:"jobs" validate:"min=1"`
	}

	Config struct {
		Version    int              `yaml:"version" validate:"eq=1"`
		Conversion ConversionConfig `yaml:"conversion"`
		Validation ValidationConfig `yaml:"validation"`
		Batch      BatchConfig      `yaml:"batch"`
		Logging    LoggingConfig    `yaml:"logging"`
		Reporting  ReporterConfig   `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
