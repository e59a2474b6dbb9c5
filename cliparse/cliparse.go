package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	ClaimsSecret  string
	Notifiers     []string
	NotifyTopic   string
	AMQPURL       string
	TwilioFrom    string
	TwilioTo      []string
	SavingsRate   decimal.Decimal
	SweepInterval time.Duration
	LogLevel      string
	LogFormat     string
}

// FileConfig is the optional YAML configuration file. Every key is a
// default that flags and environment variables override.
type FileConfig struct {
	Port          int      `yaml:"port"`
	DatabaseURL   string   `yaml:"database_url"`
	DatabaseType  string   `yaml:"database_type"`
	Notifiers     []string `yaml:"notifiers"`
	NotifyTopic   string   `yaml:"notify_topic"`
	AMQPURL       string   `yaml:"amqp_url"`
	TwilioFrom    string   `yaml:"twilio_from"`
	TwilioTo      []string `yaml:"twilio_to"`
	SavingsRate   string   `yaml:"savings_rate"`
	SweepInterval string   `yaml:"sweep_interval"`
	LogLevel      string   `yaml:"log_level"`
	LogFormat     string   `yaml:"log_format"`
}

// Defaults
const (
	DefaultPort        = 3318
	DefaultTopic       = "pool-settlements"
	DefaultSavingsRate = "0.15"
)

// ParseFlags reads configuration from flags, then environment variables
// (including a .env file in the working directory), then the YAML file
// named by -c or CONFIG_FILE, then built-in defaults.
func ParseFlags(args []string) (Config, error) {
	var (
		cfg        Config
		configFile string
		dbType     string
		secret     string
		notifiers  string
		topic      string
		amqpURL    string
		savings    string
		sweepEvery string
	)

	fs := flag.NewFlagSet("groupbuy", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&dbType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&configFile, "c", "", "YAML config file")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&secret, "claims-secret", "", "Gateway claims signing secret (prefer env)")

	// Settlement
	fs.StringVar(&notifiers, "notifier", "", "Notifiers, comma separated (log, amqp, twilio)")
	fs.StringVar(&topic, "topic", "", "Notification topic")
	fs.StringVar(&amqpURL, "amqp-url", "", "RabbitMQ URL")
	fs.StringVar(&savings, "savings-rate", "", "Savings rate reported by analytics")
	fs.StringVar(&sweepEvery, "sweep-interval", "", "Run the deadline sweep in-process on this interval (0 disables)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	var file FileConfig
	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}
	if configFile != "" {
		var err error
		file, err = LoadFile(configFile)
		if err != nil {
			return Config{}, err
		}
	}

	// Fall back to environment variables, then the file
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else if file.Port != 0 {
			cfg.Port = file.Port
		} else {
			cfg.Port = DefaultPort
		}
	}

	cfg.DatabaseURL = first(cfg.DatabaseURL, os.Getenv("DATABASE_URL"), file.DatabaseURL)
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	cfg.DatabaseType = first(dbType, os.Getenv("DATABASE_TYPE"), file.DatabaseType, "sqlite")
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported DATABASE_TYPE %q", cfg.DatabaseType)
	}

	// Secrets - MUST be provided, never read from the config file
	cfg.ClaimsSecret = first(secret, os.Getenv("CLAIMS_SECRET"))
	if cfg.ClaimsSecret == "" {
		return Config{}, errors.New("CLAIMS_SECRET required")
	}

	if list := first(notifiers, os.Getenv("NOTIFIER")); list != "" {
		cfg.Notifiers = splitList(list)
	} else if len(file.Notifiers) > 0 {
		cfg.Notifiers = file.Notifiers
	} else {
		cfg.Notifiers = []string{"log"}
	}

	cfg.NotifyTopic = first(topic, os.Getenv("NOTIFY_TOPIC"), file.NotifyTopic, DefaultTopic)
	cfg.AMQPURL = first(amqpURL, os.Getenv("AMQP_URL"), file.AMQPURL)
	cfg.TwilioFrom = first(os.Getenv("TWILIO_FROM"), file.TwilioFrom)
	if to := os.Getenv("TWILIO_TO"); to != "" {
		cfg.TwilioTo = splitList(to)
	} else {
		cfg.TwilioTo = file.TwilioTo
	}

	rate, err := decimal.NewFromString(first(savings, os.Getenv("SAVINGS_RATE"), file.SavingsRate, DefaultSavingsRate))
	if err != nil {
		return Config{}, fmt.Errorf("invalid savings rate: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return Config{}, errors.New("savings rate must be between 0 and 1")
	}
	cfg.SavingsRate = rate

	if every := first(sweepEvery, os.Getenv("SWEEP_INTERVAL"), file.SweepInterval); every != "" {
		d, err := time.ParseDuration(every)
		if err != nil {
			return Config{}, fmt.Errorf("invalid sweep interval: %w", err)
		}
		if d < 0 {
			return Config{}, errors.New("sweep interval must not be negative")
		}
		cfg.SweepInterval = d
	}

	cfg.LogLevel = first(os.Getenv("LOG_LEVEL"), file.LogLevel, "info")
	cfg.LogFormat = first(os.Getenv("LOG_FORMAT"), file.LogFormat, "text")

	return cfg, nil
}

// LoadFile reads a YAML config file
func LoadFile(path string) (FileConfig, error) {
	var file FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return file, nil
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
