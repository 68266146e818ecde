package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is built once at startup and shared read-only afterwards.
type Config struct {
	BindAddr        string        `yaml:"bind_addr"`
	DocRoot         string        `yaml:"doc_root"`
	DefaultIndex    string        `yaml:"default_index"`
	NotFoundPage    string        `yaml:"not_found_page"`
	ProtocolVersion string        `yaml:"protocol_version"`
	ReadBufferSize  int           `yaml:"read_buffer_size"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
}

func Default() Config {
	return Config{
		BindAddr:        "127.0.0.1:8080",
		DocRoot:         "www",
		DefaultIndex:    "index.html",
		NotFoundPage:    "404.html",
		ProtocolVersion: "HTTP/1.1",
		ReadBufferSize:  1024,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// Load reads a YAML file on top of Default. Keys that are not fields of
// Config are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Finalize makes DocRoot absolute, resolves a relative NotFoundPage against
// it and validates the result.
func (c Config) Finalize() (Config, error) {
	root, err := filepath.Abs(c.DocRoot)
	if err != nil {
		return c, fmt.Errorf("doc root %s: %w", c.DocRoot, err)
	}
	c.DocRoot = root
	if c.NotFoundPage != "" && !filepath.IsAbs(c.NotFoundPage) {
		c.NotFoundPage = filepath.Join(root, c.NotFoundPage)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.BindAddr == "" {
		return errors.New("bind address is empty")
	}
	if c.DefaultIndex == "" {
		return errors.New("default index is empty")
	}
	if c.ProtocolVersion == "" {
		return errors.New("protocol version is empty")
	}
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("read buffer size must be positive, got %d", c.ReadBufferSize)
	}
	info, err := os.Stat(c.DocRoot)
	if err != nil {
		return fmt.Errorf("doc root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("doc root %s is not a directory", c.DocRoot)
	}
	if c.NotFoundPage == "" {
		return errors.New("not found page is empty")
	}
	f, err := os.Open(c.NotFoundPage)
	if err != nil {
		return fmt.Errorf("not found page: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("not found page: %w", err)
	}
	return nil
}
