package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const defaultConfigPath = "src/internal/config/cfg.yml"

type Configuration struct {
	Logs     LogsSettings     `mapstructure:"logs"`
	App      Application      `mapstructure:"app"`
	Database Database         `mapstructure:"database"`
	Queue    QueueConfig      `mapstructure:"queue"`
	Redis    Redis            `mapstructure:"redis"`
	Security SecuritySettings `mapstructure:"security"`
	Server   ServerSettings   `mapstructure:"server"`
	Cache    CacheConfig      `mapstructure:"cache"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name    string `mapstructure:"name"`
	Timeout int    `mapstructure:"timeout"`
	Version string `mapstructure:"version"`
}

type Database struct {
	Url             string      `mapstructure:"url"`
	DbName          string      `mapstructure:"dbname"`
	Timeout         int         `mapstructure:"timeout"`
	UseTransactions bool        `mapstructure:"use-transactions"`
	Collections     Collections `mapstructure:"collections"`
}

type Collections struct {
	Sessions        string `mapstructure:"sessions"`
	Students        string `mapstructure:"students"`
	Heartbeats      string `mapstructure:"heartbeats"`
	ApprovedSubnets string `mapstructure:"approved-subnets"`
}

type QueueConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Url          string `mapstructure:"url"`
	Exchange     string `mapstructure:"exchange"`
	ExchangeType string `mapstructure:"exchange-type"`
	RoutingKey   string `mapstructure:"routing-key"`
	Durable      bool   `mapstructure:"durable"`
	AutoDelete   bool   `mapstructure:"auto-delete"`
	Internal     bool   `mapstructure:"internal"`
	NoWait       bool   `mapstructure:"no-wait"`
}

type Redis struct {
	Url      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type SecuritySettings struct {
	AdminKey           string `mapstructure:"admin-key"`
	AdminKeyHeader     string `mapstructure:"admin-key-header"`
	JwtKey             string `mapstructure:"jwt-key"`
	ProtectSessionLogs bool   `mapstructure:"protect-session-logs"`
}

type ServerSettings struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
	IdleTimeout  int    `mapstructure:"idle-timeout"`
}

type CacheConfig struct {
	SessionExpirationMinutes int    `mapstructure:"session-expiration-minutes"`
	SessionKeyPrefix         string `mapstructure:"session-key-prefix"`
}

func Load() *Configuration {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := LoadFile(path)
	if err != nil {
		logrus.Panicf("Error reading config file, %s", err)
	}
	logrus.Info("Configuration loaded")

	return cfg
}

// LoadFile reads the yml file at path and applies environment overrides.
func LoadFile(path string) (*Configuration, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

func read(path string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &config, nil
}

func applyEnv(cfg *Configuration) {
	if mongoUri := os.Getenv("MONGODB_URL"); mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Database.DbName = dbName
	}

	if redisUrl := os.Getenv("REDIS_URL"); redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	if rabbitmqUrl := os.Getenv("RABBITMQ_URL"); rabbitmqUrl != "" {
		cfg.Queue.RabbitMQ.Url = rabbitmqUrl
	}

	if jwtKey := os.Getenv("JWT_KEY"); jwtKey != "" {
		cfg.Security.JwtKey = jwtKey
	}

	if adminKey := os.Getenv("ADMIN_KEY"); adminKey != "" {
		cfg.Security.AdminKey = adminKey
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}
}

func applyDefaults(cfg *Configuration) {
	if cfg.App.Timeout <= 0 {
		cfg.App.Timeout = 10
	}
	if cfg.Database.Timeout <= 0 {
		cfg.Database.Timeout = 10
	}
	if cfg.Security.AdminKeyHeader == "" {
		cfg.Security.AdminKeyHeader = "X-Admin-Key"
	}
	if cfg.Cache.SessionKeyPrefix == "" {
		cfg.Cache.SessionKeyPrefix = "attendance:session"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}

	c := &cfg.Database.Collections
	if c.Sessions == "" {
		c.Sessions = "sessions"
	}
	if c.Students == "" {
		c.Students = "students"
	}
	if c.Heartbeats == "" {
		c.Heartbeats = "attendance_logs"
	}
	if c.ApprovedSubnets == "" {
		c.ApprovedSubnets = "approved_subnets"
	}
}
