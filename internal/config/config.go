// config.go - Application configuration management
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type ConfigServer struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"readTimeout"`
	WriteTimeout time.Duration `toml:"writeTimeout"`
}

type ConfigScan struct {
	MaxFileSizeKB        int      `toml:"maxFileSizeKB"`
	MaxFileCount         int      `toml:"maxFileCount"`
	FolderIgnorePatterns []string `toml:"folderIgnorePatterns"`
}

// ConfigLLM configures the completion provider. ApiKey, BaseURL and
// Model fall back to the API_KEY, BASE_URL and MODEL environment
// variables when left empty.
type ConfigLLM struct {
	Provider       string        `toml:"provider"` // "anthropic" or "openai"
	ApiKey         string        `toml:"apiKey"`
	BaseURL        string        `toml:"baseUrl"`
	Model          string        `toml:"model"`
	MaxTokens      int           `toml:"maxTokens"`
	RequestTimeout time.Duration `toml:"requestTimeout"`
}

// ConfigScoring holds the relevance-score weights and the feedback
// confidence step. The defaults mirror long-standing tuning values with
// no documented justification, so they are configuration rather than
// literals.
type ConfigScoring struct {
	UsageWeight      float64 `toml:"usageWeight"`
	ConfidenceWeight float64 `toml:"confidenceWeight"`
	ContextWeight    float64 `toml:"contextWeight"`
	MetadataWeight   float64 `toml:"metadataWeight"`
	ConfidenceStep   int     `toml:"confidenceStep"`
	MaxSuggestions   int     `toml:"maxSuggestions"`
}

type ConfigContext struct {
	HistoryWindow     int `toml:"historyWindow"`
	RelevantCodeLimit int `toml:"relevantCodeLimit"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server  ConfigServer  `toml:"server"`
	Scan    ConfigScan    `toml:"scan"`
	LLM     ConfigLLM     `toml:"llm"`
	Scoring ConfigScoring `toml:"scoring"`
	Context ConfigContext `toml:"context"`
}

var DefaultConfigServer = ConfigServer{
	Addr:         "localhost:11480",
	ReadTimeout:  30 * time.Second,
	WriteTimeout: 0, // streaming responses must not be cut off by a write deadline
}

var DefaultFolderIgnorePatterns = []string{
	".*",
	"node_modules/", "dist/", "build/", "out/",
	"__pycache__/", "venv/", "target/", "vendor/",
	"migrations/", "logs/", "tmp/", "temp/",
}

var DefaultConfigScan = ConfigScan{
	MaxFileSizeKB:        1024,
	MaxFileCount:         100000,
	FolderIgnorePatterns: DefaultFolderIgnorePatterns,
}

var DefaultConfigLLM = ConfigLLM{
	Provider:       "anthropic",
	Model:          "claude-3-5-sonnet-20241022",
	MaxTokens:      2048,
	RequestTimeout: 120 * time.Second,
}

var DefaultConfigScoring = ConfigScoring{
	UsageWeight:      0.3,
	ConfidenceWeight: 0.2,
	ContextWeight:    0.3,
	MetadataWeight:   0.2,
	ConfidenceStep:   1,
	MaxSuggestions:   5,
}

var DefaultConfigContext = ConfigContext{
	HistoryWindow:     10,
	RelevantCodeLimit: 10,
}

// DefaultAppConfig is the baseline configuration before file and
// environment overrides.
var DefaultAppConfig = AppConfig{
	Server:  DefaultConfigServer,
	Scan:    DefaultConfigScan,
	LLM:     DefaultConfigLLM,
	Scoring: DefaultConfigScoring,
	Context: DefaultConfigContext,
}

var appConfig AppConfig

func GetAppConfig() AppConfig {
	return appConfig
}

func SetAppConfig(config AppConfig) {
	appConfig = config
}

// LoadAppConfig initializes the global configuration: defaults, then an
// optional TOML file, then environment variables for secrets.
func LoadAppConfig(configPath string) error {
	config := DefaultAppConfig

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		if err := toml.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if config.LLM.ApiKey == "" {
		config.LLM.ApiKey = os.Getenv("API_KEY")
	}
	if config.LLM.ApiKey == "" {
		config.LLM.ApiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = os.Getenv("BASE_URL")
	}
	if model := os.Getenv("MODEL"); model != "" {
		config.LLM.Model = model
	}

	appConfig = config
	return nil
}

// AppInfo holds application metadata set by the linker during build.
type AppInfo struct {
	AppName  string `json:"appName"`
	Version  string `json:"version"`
	OSName   string `json:"osName"`
	ArchName string `json:"archName"`
}

var appInfo AppInfo

func GetAppInfo() AppInfo {
	return appInfo
}

func SetAppInfo(info AppInfo) {
	appInfo = info
}
