package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// EngineConfig tunes the heuristic routing engine. All values have working
// defaults applied by LoadConfig so a minimal config.json is enough.
type EngineConfig struct {
	DefaultContextTokens int `json:"default_context_tokens"`
	CodeContextTokens    int `json:"code_context_tokens"`
	DefaultLatencyMs     int `json:"default_latency_ms"`
	TightLatencyMs       int `json:"tight_latency_ms"`
	RelaxedLatencyMs     int `json:"relaxed_latency_ms"`
	CodeReasonLoops      int `json:"code_reason_loops"`
	DeepReasonLoops      int `json:"deep_reason_loops"`
	RagTopK              int `json:"rag_top_k"`
}

// AnalyzerConfig controls the analysis thresholds and cadence.
// The thresholds are illustrative defaults, not business constants.
type AnalyzerConfig struct {
	MinSuccessRate  float64 `json:"min_success_rate"`
	GoodSuccessRate float64 `json:"good_success_rate"`
	MaxAvgLatencyMs float64 `json:"max_avg_latency_ms"`
	ScheduleHours   int     `json:"schedule_hours"`
	NotifyChannel   string  `json:"notify_channel"`
}

type Config struct {
	Server struct {
		Host    string `json:"host"`
		Port    int    `json:"port"`
		Subpath string `json:"subpath"`
	} `json:"server"`
	Postgres struct {
		DSN string `json:"dsn"`
	} `json:"postgres"`
	SQLite struct {
		Path string `json:"path"`
	} `json:"sqlite"`
	Redis struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`
	Qdrant struct {
		URL        string `json:"url"`
		Collection string `json:"collection"`
		APIKey     string `json:"api_key"`
	} `json:"qdrant"`
	Embedding struct {
		URL   string `json:"url"`
		Model string `json:"model"`
	} `json:"embedding"`
	Engine    EngineConfig   `json:"engine"`
	Analyzer  AnalyzerConfig `json:"analyzer"`
	Telemetry struct {
		BufferSize int `json:"buffer_size"`
	} `json:"telemetry"`
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads config.json from disk (singleton)
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		raw, err := os.ReadFile(path)
		if err != nil {
			cfgErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
		var c Config
		if err := json.Unmarshal(raw, &c); err != nil {
			cfgErr = fmt.Errorf("invalid config format: %w", err)
			return
		}
		ApplyDefaults(&c)
		cfg = &c
	})
	return cfg, cfgErr
}

// ApplyDefaults fills zero-valued tunables with working defaults.
func ApplyDefaults(c *Config) {
	if c.Engine.DefaultContextTokens == 0 {
		c.Engine.DefaultContextTokens = 8192
	}
	if c.Engine.CodeContextTokens == 0 {
		c.Engine.CodeContextTokens = 32768
	}
	if c.Engine.DefaultLatencyMs == 0 {
		c.Engine.DefaultLatencyMs = 5000
	}
	if c.Engine.TightLatencyMs == 0 {
		c.Engine.TightLatencyMs = 1500
	}
	if c.Engine.RelaxedLatencyMs == 0 {
		c.Engine.RelaxedLatencyMs = 30000
	}
	if c.Engine.CodeReasonLoops == 0 {
		c.Engine.CodeReasonLoops = 2
	}
	if c.Engine.DeepReasonLoops == 0 {
		c.Engine.DeepReasonLoops = 4
	}
	if c.Engine.RagTopK == 0 {
		c.Engine.RagTopK = 10
	}
	if c.Analyzer.MinSuccessRate == 0 {
		c.Analyzer.MinSuccessRate = 0.90
	}
	if c.Analyzer.GoodSuccessRate == 0 {
		c.Analyzer.GoodSuccessRate = 0.95
	}
	if c.Analyzer.MaxAvgLatencyMs == 0 {
		c.Analyzer.MaxAvgLatencyMs = 2000
	}
	if c.Analyzer.ScheduleHours == 0 {
		c.Analyzer.ScheduleHours = 24
	}
	if c.Analyzer.NotifyChannel == "" {
		c.Analyzer.NotifyChannel = "compass:recommendations"
	}
	if c.Telemetry.BufferSize == 0 {
		c.Telemetry.BufferSize = 1024
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = "compass.db"
	}
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
