package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "RESEARCH_LENS_CONFIG"
	databaseDSNEnv  = "DATABASE_DSN"
	googleAPIKeyEnv = "GOOGLE_API_KEY"
	tavilyAPIKeyEnv = "TAVILY_API_KEY"
	geminiModelEnv  = "GEMINI_MODEL"
	portEnv         = "PORT"
	logLevelEnv     = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Logging   LoggingConfig  `yaml:"logging"`
	Database  DatabaseConfig `yaml:"database"`
	Providers ProviderConfig `yaml:"providers"`
	Gemini    GeminiConfig   `yaml:"gemini"`
}

// ServerConfig describes the inbound HTTP listener.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes Postgres connection details for search history.
// History persistence is optional; an empty DSN disables it.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ProviderConfig groups settings for the two data sources.
type ProviderConfig struct {
	Arxiv  ArxivConfig  `yaml:"arxiv"`
	Tavily TavilyConfig `yaml:"tavily"`
}

// ArxivConfig wires the academic metadata API. DefaultCategories is the
// subject filter applied when a request carries no explicit category filter.
type ArxivConfig struct {
	BaseURL           string   `yaml:"baseUrl"`
	PageSize          int      `yaml:"pageSize"`
	MaxPapers         int      `yaml:"maxPapers"`
	DefaultCategories []string `yaml:"defaultCategories"`
}

// TavilyConfig wires the news search API. Without an API key the application
// falls back to the keyless web-search provider.
type TavilyConfig struct {
	BaseURL    string `yaml:"baseUrl"`
	APIKey     string `yaml:"apiKey"`
	MaxResults int    `yaml:"maxResults"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	BaseURL     string  `yaml:"baseUrl"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"`
	Temperature float64 `yaml:"temperature"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. A .env file in the working directory is honored first.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(googleAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}

	if v := os.Getenv(tavilyAPIKeyEnv); v != "" {
		c.Providers.Tavily.APIKey = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(portEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		} else {
			log.Printf("config: invalid %s=%q, keeping %d", portEnv, v, c.Server.Port)
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Port != 0 {
		base.Server.Port = override.Server.Port
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Providers.Arxiv.BaseURL != "" {
		base.Providers.Arxiv.BaseURL = override.Providers.Arxiv.BaseURL
	}
	if override.Providers.Arxiv.PageSize != 0 {
		base.Providers.Arxiv.PageSize = override.Providers.Arxiv.PageSize
	}
	if override.Providers.Arxiv.MaxPapers != 0 {
		base.Providers.Arxiv.MaxPapers = override.Providers.Arxiv.MaxPapers
	}
	if len(override.Providers.Arxiv.DefaultCategories) > 0 {
		base.Providers.Arxiv.DefaultCategories = override.Providers.Arxiv.DefaultCategories
	}

	if override.Providers.Tavily.BaseURL != "" {
		base.Providers.Tavily.BaseURL = override.Providers.Tavily.BaseURL
	}
	if override.Providers.Tavily.APIKey != "" {
		base.Providers.Tavily.APIKey = override.Providers.Tavily.APIKey
	}
	if override.Providers.Tavily.MaxResults != 0 {
		base.Providers.Tavily.MaxResults = override.Providers.Tavily.MaxResults
	}

	if override.Gemini.BaseURL != "" {
		base.Gemini.BaseURL = override.Gemini.BaseURL
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.Temperature != 0 {
		base.Gemini.Temperature = override.Gemini.Temperature
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server:  ServerConfig{Port: 5000},
		Logging: LoggingConfig{Level: "info"},
		Providers: ProviderConfig{
			Arxiv: ArxivConfig{
				BaseURL:   "https://export.arxiv.org/api/query",
				PageSize:  50,
				MaxPapers: 10,
				DefaultCategories: []string{
					"cs.AI", "cs.LG", "cs.CL", "cs.CV", "cs.RO", "cs.NE",
				},
			},
			Tavily: TavilyConfig{
				BaseURL:    "https://api.tavily.com",
				MaxResults: 15,
			},
		},
		Gemini: GeminiConfig{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Model:       "gemini-2.0-flash",
			Temperature: 0.1,
		},
	}
}
