package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed counters.yaml
var countersYAML []byte

type Config struct {
	Detector DetectorConfig
	Match    MatchConfig
	OpenAI   OpenAIConfig
	Gemini   GeminiConfig
	Database DatabaseConfig
	Branch   BranchConfig
}

type DetectorConfig struct {
	URL            string // face detection server base URL (e.g. http://localhost:8100)
	TimeoutSeconds int    // per-request timeout, defaults to 10
}

type MatchConfig struct {
	Threshold float64 // maximum Euclidean distance for a match, defaults to 0.55
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// BranchConfig is the embedded branch catalog: per-category priorities and the
// counters staff can assign queue entries to.
type BranchConfig struct {
	Priorities map[string]int `yaml:"priorities"`
	Counters   []Counter      `yaml:"counters"`
}

type Counter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Priority returns the urgency rank for a customer category.
// Lower means more urgent. Unknown categories rank as Regular.
func (b *BranchConfig) Priority(category string) int {
	if p, ok := b.Priorities[category]; ok {
		return p
	}
	return b.Priorities["Regular"]
}

// HasCounter reports whether the named counter exists in the catalog.
func (b *BranchConfig) HasCounter(name string) bool {
	for _, c := range b.Counters {
		if c.Name == name {
			return true
		}
	}
	return false
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var branch BranchConfig
	if err := yaml.Unmarshal(countersYAML, &branch); err != nil {
		// Embedded file, must always parse.
		panic("failed to unmarshal embedded counters.yaml: " + err.Error())
	}

	return &Config{
		Detector: DetectorConfig{
			URL:            os.Getenv("DETECTOR_URL"),
			TimeoutSeconds: envInt("DETECTOR_TIMEOUT_SECONDS", 10),
		},
		Match: MatchConfig{
			Threshold: envFloat("MATCH_THRESHOLD", 0.55),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Branch: branch,
	}
}
