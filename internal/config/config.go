package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KeyedTaskDef defines a single keyed aggregation task from the config file.
type KeyedTaskDef struct {
	Name      string `yaml:"name"`
	NumShards uint32 `yaml:"num_shards"`
}

// GobConfig holds settings for the gob snapshot writer.
type GobConfig struct {
	RootPath string `yaml:"root_path"`
}

// ClickHouseConfig holds connection settings for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WriterDef defines a single snapshot writer for an aggregator group.
type WriterDef struct {
	Type             string           `yaml:"type"`
	Enabled          bool             `yaml:"enabled"`
	SnapshotInterval string           `yaml:"snapshot_interval"`
	Gob              GobConfig        `yaml:"gob"`
	ClickHouse       ClickHouseConfig `yaml:"clickhouse"`
}

// KeyedConfig groups the tasks and writers of the keyed aggregator.
type KeyedConfig struct {
	Tasks   []KeyedTaskDef `yaml:"tasks"`
	Writers []WriterDef    `yaml:"writers"`
}

// AggregatorConfig holds the configuration for the aggregation engine.
type AggregatorConfig struct {
	Types              []string    `yaml:"types"`
	Period             string      `yaml:"period"`
	NumWorkers         int         `yaml:"num_workers"`
	SizeOfEventChannel int         `yaml:"size_of_event_channel"`
	Keyed              KeyedConfig `yaml:"keyed"`
}

// IngestConfig holds settings for the NATS event transport.
type IngestConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// AlerterRule defines a single threshold rule evaluated against a task.
type AlerterRule struct {
	Name      string  `yaml:"name"`
	TaskName  string  `yaml:"task_name"`
	Metric    string  `yaml:"metric"`
	Operator  string  `yaml:"operator"`
	Threshold float64 `yaml:"threshold"`
}

// AlerterConfig holds the alerter settings.
type AlerterConfig struct {
	Enabled       bool          `yaml:"enabled"`
	CheckInterval string        `yaml:"check_interval"`
	Rules         []AlerterRule `yaml:"rules"`
}

// SMTPConfig holds the settings for the email notifier.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// APIConfig holds the settings for the HTTP query API.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Alerter    AlerterConfig    `yaml:"alerter"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	API        APIConfig        `yaml:"api"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	return &cfg, nil
}
