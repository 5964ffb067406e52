package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Log        LogConfig
	AI         AIConfig
	Assessment AssessmentConfig
	Events     EventsConfig
	Tracing    TracingConfig   `mapstructure:"tracing"`
	CORS       CORSConfig      `mapstructure:"cors"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`

	// Path of the config file actually read, empty when running on defaults.
	File string `mapstructure:"-"`
}

type ServerConfig struct {
	Port            string
	Mode            string
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days"`
}

type AIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type AssessmentConfig struct {
	DefaultTopic      string                    `mapstructure:"default_topic"`
	MaxTopicLength    int                       `mapstructure:"max_topic_length"`
	MaxQuestionPoints int                       `mapstructure:"max_question_points"`
	Points            map[string]map[string]int `mapstructure:"points"`
	Generation        GenerationConfig          `mapstructure:"generation"`
	Grading           GradingConfig             `mapstructure:"grading"`
}

// GenerationConfig is keyed by question variant (mcq, code, text).
type GenerationConfig struct {
	MaxQuestions map[string]int           `mapstructure:"max_questions"`
	Timeouts     map[string]time.Duration `mapstructure:"timeouts"`
	MaxTokens    map[string]int           `mapstructure:"max_tokens"`
	Temperature  float64                  `mapstructure:"temperature"`
}

type GradingConfig struct {
	CodeTimeout        time.Duration `mapstructure:"code_timeout"`
	TextTimeout        time.Duration `mapstructure:"text_timeout"`
	MaxTokens          int           `mapstructure:"max_tokens"`
	Temperature        float64       `mapstructure:"temperature"`
	PartialCreditRatio float64       `mapstructure:"partial_credit_ratio"`
	PassThreshold      float64       `mapstructure:"pass_threshold"`
	MaxConcurrency     int           `mapstructure:"max_concurrency"`
}

type EventsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
	ServiceName       string `mapstructure:"service_name"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("ai.base_url", "https://router.huggingface.co/v1")
	v.SetDefault("ai.model", "deepseek-ai/DeepSeek-R1:novita")
	v.SetDefault("ai.request_timeout", "120s")

	v.SetDefault("assessment.default_topic", "JavaScript")
	v.SetDefault("assessment.max_topic_length", 64)
	v.SetDefault("assessment.max_question_points", 20)
	v.SetDefault("assessment.points", map[string]map[string]int{
		"mcq":  {"beginner": 2, "intermediate": 3, "advanced": 4},
		"code": {"beginner": 5, "intermediate": 7, "advanced": 10},
		"text": {"beginner": 3, "intermediate": 4, "advanced": 5},
	})
	v.SetDefault("assessment.generation.max_questions", map[string]int{"mcq": 20, "code": 10, "text": 10})
	v.SetDefault("assessment.generation.timeouts", map[string]string{"mcq": "60s", "code": "90s", "text": "60s"})
	v.SetDefault("assessment.generation.max_tokens", map[string]int{"mcq": 2000, "code": 2500, "text": 1500})
	v.SetDefault("assessment.generation.temperature", 0.3)
	v.SetDefault("assessment.grading.code_timeout", "30s")
	v.SetDefault("assessment.grading.text_timeout", "20s")
	v.SetDefault("assessment.grading.max_tokens", 400)
	v.SetDefault("assessment.grading.temperature", 0.3)
	v.SetDefault("assessment.grading.partial_credit_ratio", 0.5)
	v.SetDefault("assessment.grading.pass_threshold", 0.7)
	v.SetDefault("assessment.grading.max_concurrency", 4)

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.exchange", "assessment.events")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "skill-assess")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
}

// LoadConfig reads config.yaml from path. A missing file is not an error:
// defaults and environment variables are enough to run.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("SKILL_ASSESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Server
	v.BindEnv("server.port", "SERVER_PORT", "PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// AI
	v.BindEnv("ai.base_url", "AI_BASE_URL")
	v.BindEnv("ai.api_key", "AI_API_KEY", "DEEPSEEK_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")

	// Events
	v.BindEnv("events.enabled", "EVENTS_ENABLED")
	v.BindEnv("events.amqp_url", "EVENTS_AMQP_URL")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	g := c.Assessment.Grading
	if g.PartialCreditRatio < 0 || g.PartialCreditRatio > 1 {
		return fmt.Errorf("assessment.grading.partial_credit_ratio must be within [0,1], got %v", g.PartialCreditRatio)
	}
	if g.PassThreshold <= 0 || g.PassThreshold > 1 {
		return fmt.Errorf("assessment.grading.pass_threshold must be within (0,1], got %v", g.PassThreshold)
	}
	if c.Assessment.MaxQuestionPoints < 1 {
		return fmt.Errorf("assessment.max_question_points must be positive")
	}
	if c.Events.Enabled && c.Events.AMQPURL == "" {
		return fmt.Errorf("events.amqp_url is required when events are enabled")
	}
	return nil
}

// Defaults returns the built-in configuration without touching files or env.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: built-in defaults do not decode: %v", err))
	}
	return &cfg
}
