package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	MicroSOC MicroSOCConfig `yaml:"microsoc"`
}

// MicroSOCConfig is the project configuration.
type MicroSOCConfig struct {
	Input       InputConfig       `yaml:"input"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Reputation  ReputationConfig  `yaml:"reputation"`
	Traffic     TrafficConfig     `yaml:"traffic"`
	Events      EventsConfig      `yaml:"events"`
	Rules       RulesConfig       `yaml:"rules"`
	Output      OutputConfig      `yaml:"output"`
	NATS        NATSConfig        `yaml:"nats"`
	SourceState SourceStateConfig `yaml:"source_state"`
	API         APIConfig         `yaml:"api"`
	Operators   []OperatorConfig  `yaml:"operators"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// InputConfig controls the raw event producer.
type InputConfig struct {
	Mode  string      `yaml:"mode"` // sim|redis
	Redis RedisConfig `yaml:"redis"`
	Sim   SimConfig   `yaml:"sim"`
}

// RedisConfig controls Redis list ingestion.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Key          string        `yaml:"key"`
	BlockTimeout time.Duration `yaml:"block_timeout"`
}

// SimConfig controls the simulated event producer.
type SimConfig struct {
	Interval      time.Duration `yaml:"interval"`
	AttackTypes   []string      `yaml:"attack_types"`
	TargetSystems []string      `yaml:"target_systems"`
}

// PipelineConfig controls pipeline behavior.
type PipelineConfig struct {
	Workers int `yaml:"workers"`
}

// ReputationConfig controls the reputation resolver.
type ReputationConfig struct {
	CacheSize int           `yaml:"cache_size"`
	URL       string        `yaml:"url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
}

// TrafficConfig controls spike detection.
type TrafficConfig struct {
	Window    time.Duration `yaml:"window"`
	Threshold int           `yaml:"threshold"`
}

// EventsConfig controls the recent-event buffer.
type EventsConfig struct {
	Retention time.Duration `yaml:"retention"`
	MaxRecent int           `yaml:"max_recent"`
}

// RulesConfig controls Sigma detection rules.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// OutputConfig controls persistence sinks.
type OutputConfig struct {
	Events    EventOutputConfig    `yaml:"events"`
	Incidents IncidentOutputConfig `yaml:"incidents"`
}

// EventOutputConfig selects the event sink.
type EventOutputConfig struct {
	Mode       string                 `yaml:"mode"` // file|http|clickhouse
	File       FileOutputConfig       `yaml:"file"`
	HTTP       HTTPOutputConfig       `yaml:"http"`
	ClickHouse ClickHouseOutputConfig `yaml:"clickhouse"`
}

// IncidentOutputConfig selects the incident sink.
type IncidentOutputConfig struct {
	Mode string           `yaml:"mode"` // file
	File FileOutputConfig `yaml:"file"`
}

// FileOutputConfig config for local JSONL output.
type FileOutputConfig struct {
	Path string `yaml:"path"`
}

// HTTPOutputConfig config for remote output.
type HTTPOutputConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// ClickHouseOutputConfig config for ClickHouse HTTP JSONEachRow writes.
type ClickHouseOutputConfig struct {
	URL      string            `yaml:"url"`
	Database string            `yaml:"database"`
	Table    string            `yaml:"table"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	Timeout  time.Duration     `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers"`
}

// NATSConfig controls external publication of events and incidents.
type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// SourceStateConfig controls the per-source Redis state index.
type SourceStateConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// APIConfig controls the HTTP/WebSocket API server.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// OperatorConfig seeds the operator directory.
type OperatorConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
