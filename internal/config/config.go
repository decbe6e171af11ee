package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Driver         string `yaml:"driver,omitempty"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

// DatasetConfig overrides where a dataset reads from and writes to.
type DatasetConfig struct {
	Source string `yaml:"source,omitempty"`
	Table  string `yaml:"table,omitempty"`
}

type ProjectConfig struct {
	Connection ConnectionConfig         `yaml:"connection"`
	DataDir    string                   `yaml:"data_dir,omitempty"`
	Delimiter  string                   `yaml:"delimiter,omitempty"`
	Timeout    string                   `yaml:"timeout,omitempty"`
	Datasets   map[string]DatasetConfig `yaml:"datasets,omitempty"`
}

const ConfigFileName = "sdwload.yaml"

// Load reads ConfigFileName from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads and validates a project file. Unknown keys are rejected
// so that typos do not silently fall back to defaults.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w: %v", path, sdwload.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the values that have a fixed syntax.
func (c *ProjectConfig) Validate() error {
	var errs []error

	if _, err := sdwload.ParseDriver(c.Connection.Driver); err != nil {
		errs = append(errs, fmt.Errorf("connection.driver: %w", err))
	}
	if _, err := sdwload.ParseAuthMethod(c.Connection.AuthMethod); err != nil {
		errs = append(errs, fmt.Errorf("connection.auth_method: %w", err))
	}
	if c.Connection.Port < 0 || c.Connection.Port > 65535 {
		errs = append(errs, fmt.Errorf("connection.port %d out of range: %w", c.Connection.Port, sdwload.ErrInvalidConfig))
	}
	if _, err := c.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.DelimiterRune(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// TimeoutDuration parses Timeout; zero means unset.
func (c *ProjectConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout %q: %w: %v", c.Timeout, sdwload.ErrInvalidConfig, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout %q cannot be negative: %w", c.Timeout, sdwload.ErrInvalidConfig)
	}
	return d, nil
}

// DelimiterRune returns the configured field delimiter; zero means unset.
func (c *ProjectConfig) DelimiterRune() (rune, error) {
	return ParseDelimiter(c.Delimiter)
}

// ParseDelimiter accepts a single character, or the names "tab" and "\t".
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("delimiter %q must be a single character other than quote or newline: %w", s, sdwload.ErrInvalidConfig)
	}
	return r, nil
}

// Dataset returns the override block for name, if any.
func (c *ProjectConfig) Dataset(name string) DatasetConfig {
	if c == nil || c.Datasets == nil {
		return DatasetConfig{}
	}
	return c.Datasets[name]
}
