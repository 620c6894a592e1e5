package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// tableNameRe restricts the database table name, the only value that is
// interpolated into SQL rather than bound as a parameter.
var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds all service settings. Environment variables take precedence
// over the optional YAML file named by TSG_CONFIG_FILE, which takes precedence
// over built-in defaults.
type Config struct {
	// Instrument input. ReplayFile, when set, replaces the serial port.
	SerialPort string
	BaudRate   int
	ReplayFile string

	// Sinks. An empty path disables that sink.
	CSVPath string
	DBPath  string
	DBTable string

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration
}

// fileConfig mirrors the config.yaml layout used on the acquisition hosts.
type fileConfig struct {
	Stream struct {
		Port     string `yaml:"port"`
		BaudRate int    `yaml:"baudrate"`
		Replay   string `yaml:"replay"`
	} `yaml:"stream"`
	File struct {
		Log  string `yaml:"log"`
		Data string `yaml:"data"`
		DB   string `yaml:"db"`
	} `yaml:"file"`
	Database struct {
		DB    string `yaml:"db"`
		Table string `yaml:"table"`
	} `yaml:"database"`
	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
}

func defaultFileConfig() fileConfig {
	var fc fileConfig
	fc.Stream.Port = "/dev/ttyUSB0"
	fc.Stream.BaudRate = 9600
	fc.File.Data = "tsg_data.csv"
	fc.Database.DB = "tsg.db"
	fc.Database.Table = "tsg_data"
	fc.Kafka.Brokers = []string{"localhost:9092"}
	fc.Kafka.Topic = "tsg-records"
	return fc
}

// LoadEnvFile loads a .env file from the working directory into the process
// environment. A missing file is not an error.
func LoadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads configuration from the optional YAML file and environment
// variables, applying defaults where unset.
func Load() (*Config, error) {
	fc, err := loadFile(os.Getenv("TSG_CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	baud, err := strconv.Atoi(sharedcfg.EnvOrDefault("TSG_BAUD_RATE", strconv.Itoa(fc.Stream.BaudRate)))
	if err != nil || baud <= 0 {
		return nil, errors.New("invalid TSG_BAUD_RATE")
	}

	kafkaEnabled := fc.Kafka.Enabled
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	dbPath := fc.Database.DB
	if fc.File.DB != "" {
		dbPath = fc.File.DB
	}

	cfg := &Config{
		SerialPort: sharedcfg.EnvOrDefault("TSG_SERIAL_PORT", fc.Stream.Port),
		BaudRate:   baud,
		ReplayFile: sharedcfg.EnvOrDefault("TSG_REPLAY_FILE", fc.Stream.Replay),

		CSVPath: lookupOrDefault("CSV_PATH", fc.File.Data),
		DBPath:  lookupOrDefault("DB_PATH", dbPath),
		DBTable: sharedcfg.EnvOrDefault("DB_TABLE", fc.Database.Table),

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", strings.Join(fc.Kafka.Brokers, ","))),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", fc.Kafka.Topic),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		LogFile:         lookupOrDefault("LOG_FILE", fc.File.Log),
		ShutdownTimeout: shutdownTimeout,

		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.ReplayFile == "" && cfg.SerialPort == "" {
		return nil, errors.New("TSG_SERIAL_PORT or TSG_REPLAY_FILE is required")
	}
	if cfg.DBPath != "" && !tableNameRe.MatchString(cfg.DBTable) {
		return nil, fmt.Errorf("invalid DB_TABLE %q", cfg.DBTable)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
		}
	}

	return cfg, nil
}

func loadFile(path string) (fileConfig, error) {
	fc := defaultFileConfig()
	if path == "" {
		return fc, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read TSG_CONFIG_FILE: %w", err)
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse TSG_CONFIG_FILE %s: %w", path, err)
	}
	return fc, nil
}

// lookupOrDefault is like EnvOrDefault but lets an explicitly empty variable
// override the fallback, which is how sinks are switched off.
func lookupOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}
