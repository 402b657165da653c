package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr        string `yaml:"addr"`
		Password    string `yaml:"password"`
		DB          int    `yaml:"db"`
		ProgressTTL string `yaml:"progressTtl"`
		EventStream string `yaml:"eventStream"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		DefaultVersion string `yaml:"defaultVersion"`
		CacheTTL       string `yaml:"cacheTtl"`
	} `yaml:"quiz"`
	Widget struct {
		AllowSkip           bool     `yaml:"allowSkip"`
		CollectContact      bool     `yaml:"collectContact"`
		PartialLeadCapture  bool     `yaml:"partialLeadCapture"`
		ClassificationOrder []string `yaml:"classificationOrder"`
	} `yaml:"widget"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
