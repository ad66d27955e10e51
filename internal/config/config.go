package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultPackageSizes are the question counts a user may pick from.
var DefaultPackageSizes = []int{25, 50, 75, 100}

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level       string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Bank struct {
		Path string `yaml:"path" validate:"required"`
		TTL  string `yaml:"ttl"`
	} `yaml:"bank"`
	Storage struct {
		Driver     string `yaml:"driver" validate:"oneof=file sqlite postgres"`
		Dir        string `yaml:"dir"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		PackageSizes []int `yaml:"package_sizes" validate:"dive,gt=0"`
	} `yaml:"quiz"`
}

// Default returns a config usable without any file: CSV storage in the
// working directory and the bank next to it.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	cfg.Bank.Path = "questions_extracted.xlsx"
	cfg.Bank.TTL = "10m"
	cfg.Storage.Driver = DriverFile
	cfg.Storage.Dir = "."
	cfg.Storage.SQLitePath = "quiz.db"
	cfg.Redis.TTL = "2h"
	cfg.Quiz.PackageSizes = append([]int(nil), DefaultPackageSizes...)
	return cfg
}

// Load reads YAML config from path on top of Default, applies a .env file if
// one is present and then environment overrides. A missing config file is not
// an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return cfg, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)

	if len(cfg.Quiz.PackageSizes) == 0 {
		cfg.Quiz.PackageSizes = append([]int(nil), DefaultPackageSizes...)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks struct constraints and cross-field requirements.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Storage.Driver == DriverPostgres && cfg.Postgres.URL == "" {
		return fmt.Errorf("invalid config: postgres storage requires postgres.url")
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Bank.Path, "QUIZ_BANK_PATH")
	setString(&cfg.Storage.Driver, "QUIZ_STORAGE_DRIVER")
	setString(&cfg.Storage.Dir, "QUIZ_STORAGE_DIR")
	setString(&cfg.Storage.SQLitePath, "QUIZ_SQLITE_PATH")
	setString(&cfg.Postgres.URL, "POSTGRES_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	if raw := os.Getenv("LOG_DEVELOPMENT"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.Log.Development = v
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
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
