package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config carries process-wide settings. Values come from an optional YAML
// file first, then environment variables override field by field, then code
// defaults fill whatever is left.
type Config struct {
	DetectorPath string   `yaml:"detector_path"`
	DetectorArgs []string `yaml:"detector_args"`

	DBType     string `yaml:"db_type"`
	DBPath     string `yaml:"db_path"`
	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`

	Port      string `yaml:"port"`
	UploadDir string `yaml:"upload_dir"`
}

// Load builds the configuration. path may be empty; a missing explicit file
// is an error, but defaults alone are a fully working setup.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.DetectorPath, "FACEWATCH_DETECTOR")
	setString(&c.DBType, "DB_TYPE")
	setString(&c.DBPath, "DB_PATH")
	setString(&c.DBHost, "DB_HOST")
	setInt(&c.DBPort, "DB_PORT")
	setString(&c.DBUser, "DB_USER")
	setString(&c.DBPassword, "DB_PASSWORD")
	setString(&c.DBName, "DB_NAME")
	setString(&c.Port, "PORT")
	setString(&c.UploadDir, "UPLOAD_DIR")
}

func (c *Config) applyDefaults() {
	if c.DBType == "" {
		c.DBType = "sqlite"
	}
	if c.DBPath == "" {
		c.DBPath = "./facewatch.db"
	}
	if c.DBHost == "" {
		c.DBHost = "localhost"
	}
	if c.DBPort == 0 {
		c.DBPort = 5432
	}
	if c.DBUser == "" {
		c.DBUser = "facewatch"
	}
	if c.DBName == "" {
		c.DBName = "facewatch"
	}
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.UploadDir == "" {
		c.UploadDir = "./uploads"
	}
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}
