package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type WhatsAppConfig struct {
	BaseURL string `yaml:"base_url"`
	Session string `yaml:"session"`
	APIKey  string `yaml:"api_key"`
	DryRun  bool   `yaml:"dry_run"`
}

type SchedulerConfig struct {
	IntervalSeconds     int `yaml:"interval_seconds"`
	BatchLimit          int `yaml:"batch_limit"`
	Workers             int `yaml:"workers"`
	ClaimTimeoutSeconds int `yaml:"claim_timeout_seconds"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		// Empty DSN selects the in-memory store (dev mode).
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	WhatsApp  WhatsAppConfig  `yaml:"whatsapp"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

func LoadConfig() *Config {
	return Load("config/config.yaml")
}

func Load(path string) *Config {
	f, err := os.Open(path)
	if err != nil {
		panic("Failed to open " + path + ": " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse " + path + ": " + err.Error())
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Scheduler.IntervalSeconds == 0 {
		cfg.Scheduler.IntervalSeconds = 30
	}
	if cfg.Scheduler.BatchLimit == 0 {
		cfg.Scheduler.BatchLimit = 100
	}
	if cfg.Scheduler.Workers == 0 {
		cfg.Scheduler.Workers = 4
	}
	if cfg.Scheduler.ClaimTimeoutSeconds == 0 {
		cfg.Scheduler.ClaimTimeoutSeconds = 5
	}
	return &cfg
}
