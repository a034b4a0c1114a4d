package configuration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/malonaz/shopchat/internal/file"
)

// Environment variables overriding the configuration file.
const (
	EnvAPIBaseURL    = "SHOPCHAT_API_BASE_URL"
	EnvToken         = "SHOPCHAT_TOKEN"
	EnvStorageDriver = "SHOPCHAT_STORAGE_DRIVER"
	EnvStorageDSN    = "SHOPCHAT_STORAGE_DSN"
)

func newDefaultConfig() *Config {
	return &Config{
		APIBaseURL:     "http://localhost:8088/api/v1",
		StorefrontURL:  "http://localhost:4200",
		RequestTimeout: 30,
		LogFile:        "/tmp/shopchat-debug.log",

		Storage: &StorageConfig{
			Driver:    "sqlite",
			Path:      "~/.config/shopchat/chat.db",
			Namespace: "default",
		},

		Chat: &ChatConfig{
			QuickSuggestions: []string{
				"Tìm điện thoại giá rẻ",
				"Laptop cho sinh viên",
				"Tai nghe bluetooth tốt",
			},
			RecallSize: 100,
		},

		Mock: &MockConfig{
			Addr: ":8088",
		},
	}
}

// Config holds configuration for the shopchat tool.
type Config struct {
	// Base url of the storefront API, including the version prefix.
	APIBaseURL string `json:"api_base_url"`
	// Url of the storefront web app, used to build product links.
	StorefrontURL string `json:"storefront_url"`
	// Timeout in seconds applied to every backend request.
	RequestTimeout int `json:"request_timeout"`
	// Bearer token, or a file holding it.
	Token     string `json:"token,omitempty"`
	TokenFile string `json:"token_file,omitempty"`
	// Where debug logs go.
	LogFile string `json:"log_file"`

	Storage *StorageConfig `json:"storage"`
	Chat    *ChatConfig    `json:"chat"`
	Mock    *MockConfig    `json:"mock"`
}

// StorageConfig holds configuration for the local chat cache.
type StorageConfig struct {
	// One of sqlite, postgres or memory.
	Driver string `json:"driver"`
	// Database file for the sqlite driver.
	Path string `json:"path"`
	// Connection string for the postgres driver.
	DSN string `json:"dsn,omitempty"`
	// Key prefix isolating terminals sharing one postgres medium.
	Namespace string `json:"namespace"`
}

// ChatConfig holds configuration for the chat window.
type ChatConfig struct {
	QuickSuggestions []string `json:"quick_suggestions"`
	// How many submitted inputs are kept for recall.
	RecallSize int `json:"recall_size"`
}

// MockConfig holds configuration for the mock backend.
type MockConfig struct {
	Addr string `json:"addr"`
	// Optional YAML reply catalog. The built-in catalog is used when empty.
	Catalog string `json:"catalog,omitempty"`
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Default returns the default configuration.
func Default() *Config {
	return newDefaultConfig()
}

// Parse a configuration file.
func Parse(path string) (*Config, error) {
	path, err := file.ExpandPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "expanding path")
	}

	if err := initializeIfNotPresent(path); err != nil {
		return nil, errors.Wrap(err, "initializing configuration")
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	config := &Config{}
	if err = json.Unmarshal(bytes, config); err != nil {
		return nil, errors.Wrap(err, "unmarshaling into config")
	}
	if err := config.finalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// finalize fills missing fields, applies the environment and expands paths.
func (c *Config) finalize() error {
	if err := mergo.Merge(c, newDefaultConfig()); err != nil {
		return errors.Wrap(err, "merging default config")
	}
	// A missing .env file is fine, the process environment still applies.
	_ = godotenv.Load()
	c.applyEnvironment()
	c.APIBaseURL = strings.TrimSuffix(c.APIBaseURL, "/")

	if c.Storage.Path != "" {
		expanded, err := file.ExpandPath(c.Storage.Path)
		if err != nil {
			return errors.Wrap(err, "expanding storage path")
		}
		c.Storage.Path = expanded
	}
	if c.TokenFile != "" {
		expanded, err := file.ExpandPath(c.TokenFile)
		if err != nil {
			return errors.Wrap(err, "expanding token file path")
		}
		c.TokenFile = expanded
	}
	return nil
}

func (c *Config) applyEnvironment() {
	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvStorageDriver); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv(EnvStorageDSN); v != "" {
		c.Storage.DSN = v
	}
}

// save a configuration file.
func (c *Config) save(path string) error {
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	err = os.WriteFile(path, bytes, 0644)
	if err != nil {
		return errors.Wrap(err, "writing file")
	}

	return nil
}

// initializeIfNotPresent initializes a config if it does not exist.
func initializeIfNotPresent(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	// Create the directories.
	dir, _ := filepath.Split(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating folders")
	}

	if err := Default().save(path); err != nil {
		return errors.Wrap(err, "saving default config")
	}
	return nil
}
