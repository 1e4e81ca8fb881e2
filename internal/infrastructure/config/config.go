package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	ConsumerGroup      string   `yaml:"consumer_group"`
	LoanEventsTopic    string   `yaml:"loan_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	PaymentsTopic      string   `yaml:"payments_topic"`
	// NotifyRate caps notification intents handed to the broker per second.
	NotifyRate  float64 `yaml:"notify_rate"`
	NotifyBurst int     `yaml:"notify_burst"`
	// MaxAttempts bounds how often one payment event is retried before it is
	// logged and committed.
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	TLS           bool   `yaml:"tls"`
	SASLMechanism string `yaml:"sasl_mechanism"`
	SASLUsername  string `yaml:"sasl_username"`
	SASLPassword  string `yaml:"sasl_password"`
}

// ScheduleConfig sets when batch jobs run. DailyCron and WeeklyCron are
// five-field cron specs read in Location; a CRON_TZ= prefix overrides it.
type ScheduleConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DailyCron   string `yaml:"daily_cron"`
	WeeklyCron  string `yaml:"weekly_cron"`
	Location    string `yaml:"location"`
	Concurrency int    `yaml:"concurrency"`
}

// EngineConfig holds the tunable business rules.
type EngineConfig struct {
	AccrualIncludeOverdue bool   `yaml:"accrual_include_overdue"`
	ResetMissedOnPayment  bool   `yaml:"reset_missed_on_payment"`
	LateFeeCapRatio       string `yaml:"late_fee_cap_ratio"`
	// AdjustCreditLimits lets the weekly scoring run set each customer's
	// credit limit to the recommended amount.
	AdjustCreditLimits bool `yaml:"adjust_credit_limits"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	GRPCPort       int            `yaml:"grpc_port"`
	GRPCReflection bool           `yaml:"grpc_reflection"`
	HTTPPort       int            `yaml:"http_port"`
	DB             DatabaseConfig `yaml:"db"`
	Kafka          KafkaConfig    `yaml:"kafka"`
	Schedule       ScheduleConfig `yaml:"schedule"`
	Engine         EngineConfig   `yaml:"engine"`
	Log            LogConfig      `yaml:"log"`
	ServiceName    string         `yaml:"service_name"`
}

// Load reads configuration in three layers: a .env file (LOANENGINE_ENV_FILE,
// default ".env", optional), the process environment, then the YAML file
// named by LOANENGINE_CONFIG when set.
func Load() (Config, error) {
	envFile := getEnv("LOANENGINE_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Config{
		GRPCPort:       getEnvInt("GRPC_PORT", 9090),
		GRPCReflection: getEnvBool("GRPC_REFLECTION", false),
		HTTPPort:       getEnvInt("HTTP_PORT", 8080),
		DB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "loanengine"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "loanengine"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		},
		Kafka: KafkaConfig{
			Brokers:            splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
			ConsumerGroup:      getEnv("KAFKA_CONSUMER_GROUP", "loanengine"),
			LoanEventsTopic:    getEnv("KAFKA_LOAN_EVENTS_TOPIC", "loanengine.loan-events"),
			NotificationsTopic: getEnv("KAFKA_NOTIFICATIONS_TOPIC", "loanengine.notifications"),
			PaymentsTopic:      getEnv("KAFKA_PAYMENTS_TOPIC", "cashier.payments"),
			NotifyRate:         getEnvFloat("NOTIFY_RATE_PER_SECOND", 50),
			NotifyBurst:        getEnvInt("NOTIFY_BURST", 100),
			MaxAttempts:        getEnvInt("KAFKA_MAX_ATTEMPTS", 5),
			RetryBackoff:       getEnvDuration("KAFKA_RETRY_BACKOFF", time.Second),
			TLS:                getEnvBool("KAFKA_TLS", false),
			SASLMechanism:      getEnv("KAFKA_SASL_MECHANISM", ""),
			SASLUsername:       getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:       getEnv("KAFKA_SASL_PASSWORD", ""),
		},
		Schedule: ScheduleConfig{
			Enabled:     getEnvBool("SCHEDULE_ENABLED", true),
			DailyCron:   getEnv("SCHEDULE_DAILY_CRON", "0 1 * * *"),
			WeeklyCron:  getEnv("SCHEDULE_WEEKLY_CRON", "0 3 * * 0"),
			Location:    getEnv("SCHEDULE_TZ", "UTC"),
			Concurrency: getEnvInt("JOB_CONCURRENCY", 4),
		},
		Engine: EngineConfig{
			AccrualIncludeOverdue: getEnvBool("ACCRUAL_INCLUDE_OVERDUE", false),
			ResetMissedOnPayment:  getEnvBool("RISK_RESET_MISSED_ON_PAYMENT", false),
			LateFeeCapRatio:       getEnv("LATE_FEE_CAP_RATIO", "0"),
			AdjustCreditLimits:    getEnvBool("CREDIT_LIMIT_AUTO_ADJUST", true),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		ServiceName: getEnv("SERVICE_NAME", "loanengine"),
	}

	if path := os.Getenv("LOANENGINE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	return cfg, nil
}

// Validate reports the first setting the service cannot start with.
func (c Config) Validate() error {
	switch {
	case c.DB.Password == "":
		return errors.New("DB_PASSWORD environment variable is required")
	case len(c.Kafka.Brokers) == 0:
		return errors.New("at least one Kafka broker is required")
	case c.Kafka.MaxAttempts < 1:
		return fmt.Errorf("kafka max attempts must be positive, got %d", c.Kafka.MaxAttempts)
	case c.Schedule.Concurrency < 1:
		return fmt.Errorf("job concurrency must be positive, got %d", c.Schedule.Concurrency)
	}
	if _, err := cron.ParseStandard(c.Schedule.DailyCron); err != nil {
		return fmt.Errorf("schedule daily_cron: %w", err)
	}
	if _, err := cron.ParseStandard(c.Schedule.WeeklyCron); err != nil {
		return fmt.Errorf("schedule weekly_cron: %w", err)
	}
	if _, err := time.LoadLocation(c.Schedule.Location); err != nil {
		return fmt.Errorf("schedule location: %w", err)
	}
	ratio, err := decimal.NewFromString(c.Engine.LateFeeCapRatio)
	if err != nil || ratio.IsNegative() {
		return fmt.Errorf("late fee cap ratio must be a non-negative number, got %q", c.Engine.LateFeeCapRatio)
	}
	return nil
}

// LateFeeCap returns the late-fee cap as a fraction of the unpaid amount.
// Zero means uncapped.
func (c Config) LateFeeCap() decimal.Decimal {
	d, err := decimal.NewFromString(c.Engine.LateFeeCapRatio)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
