package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Environment string          `json:"environment"`
	Server      ServerConfig    `json:"server"`
	Backend     BackendConfig   `json:"backend"`
	Firestore   FirestoreConfig `json:"firestore"`
	Redis       RedisConfig     `json:"redis"`
	Database    DatabaseConfig  `json:"database"`
	Notify      NotifyConfig    `json:"notify"`
}

type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// BackendConfig points at the spreadsheet-backed RPC endpoint.
type BackendConfig struct {
	URL        string        `json:"url"`
	Timeout    time.Duration `json:"timeout"`
	RetryDelay time.Duration `json:"retry_delay"`
	Retries    int           `json:"retries"`
}

// FirestoreConfig is optional; an empty ProjectID disables the secondary
// store and the service runs primary-only.
type FirestoreConfig struct {
	ProjectID       string `json:"project_id"`
	CredentialsFile string `json:"credentials_file"`
	Collection      string `json:"collection"`
}

type RedisConfig struct {
	Host     string        `json:"host"`
	Port     int           `json:"port"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	TTL      time.Duration `json:"ttl"`
}

// DatabaseConfig is optional; an empty Host disables the audit trail.
type DatabaseConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Password     string `json:"password"`
	DBName       string `json:"dbname"`
	SSLMode      string `json:"sslmode"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

type NotifyConfig struct {
	BaseURL string `json:"base_url"`
}

func LoadConfig() (*Config, error) {
	config := &Config{}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	config.Environment = env

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config/config.json"
	}

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	config.loadFromEnv()
	config.setDefaults()

	return config, nil
}

func (c *Config) loadFromEnv() {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}

	if url := os.Getenv("BACKEND_URL"); url != "" {
		c.Backend.URL = url
	}
	if retries := os.Getenv("BACKEND_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil {
			c.Backend.Retries = n
		}
	}

	if project := os.Getenv("FIRESTORE_PROJECT_ID"); project != "" {
		c.Firestore.ProjectID = project
	}
	if creds := os.Getenv("FIRESTORE_CREDENTIALS_FILE"); creds != "" {
		c.Firestore.CredentialsFile = creds
	}
	if collection := os.Getenv("FIRESTORE_COLLECTION"); collection != "" {
		c.Firestore.Collection = collection
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		c.Redis.Host = host
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Redis.Port = n
		}
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}

	if host := os.Getenv("DB_HOST"); host != "" {
		c.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		c.Database.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		c.Database.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		c.Database.DBName = dbname
	}

	if base := os.Getenv("NOTIFY_BASE_URL"); base != "" {
		c.Notify.BaseURL = base
	}
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}

	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 30 * time.Second
	}
	if c.Backend.RetryDelay == 0 {
		c.Backend.RetryDelay = time.Second
	}
	if c.Backend.Retries == 0 {
		c.Backend.Retries = 2
	}

	if c.Firestore.Collection == "" {
		c.Firestore.Collection = "requests"
	}

	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
}

func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend URL is required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("redis host is required")
	}
	if c.Backend.Retries < 0 {
		return fmt.Errorf("backend retries must be non-negative")
	}
	return nil
}

// HybridEnabled reports whether a secondary store is configured.
func (c *Config) HybridEnabled() bool {
	return c.Firestore.ProjectID != ""
}

// AuditEnabled reports whether the audit database is configured.
func (c *Config) AuditEnabled() bool {
	return c.Database.Host != ""
}
