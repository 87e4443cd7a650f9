package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Whisper transcription backend (OpenAI-compatible sidecar).
	WhisperURL     string        `env:"WHISPER_URL" envDefault:"http://localhost:9000"`
	WhisperModel   string        `env:"WHISPER_MODEL" envDefault:"base"`
	WhisperTimeout time.Duration `env:"WHISPER_TIMEOUT" envDefault:"300s"`
	Temperature    float64       `env:"WHISPER_TEMPERATURE" envDefault:"0"`
	Language       string        `env:"LANGUAGE"`
	Device         string        `env:"DEVICE" envDefault:"auto"`

	// Speaker diarization sidecar. HFToken is the Hugging Face token the
	// sidecar needs to pull the pretrained pipeline; TOKEN is accepted as
	// a fallback name.
	DiarizeURL     string        `env:"DIARIZE_URL" envDefault:"http://localhost:8388"`
	DiarizeTimeout time.Duration `env:"DIARIZE_TIMEOUT" envDefault:"300s"`
	HFToken        string        `env:"HF_TOKEN"`
	AltToken       string        `env:"TOKEN"`
	MinSpeakers    int           `env:"MIN_SPEAKERS"`
	MaxSpeakers    int           `env:"MAX_SPEAKERS"`

	// Output
	OutputDir    string `env:"OUTPUT_DIR" envDefault:"output"`
	OutputFormat string `env:"OUTPUT_FORMAT" envDefault:"all"`

	PreprocessAudio bool `env:"PREPROCESS_AUDIO"`

	// S3 artifact mirroring (optional; disabled when bucket is empty).
	S3Bucket        string        `env:"S3_BUCKET"`
	S3Region        string        `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint      string        `env:"S3_ENDPOINT"`
	S3AccessKey     string        `env:"S3_ACCESS_KEY"`
	S3SecretKey     string        `env:"S3_SECRET_KEY"`
	S3Prefix        string        `env:"S3_PREFIX"`
	S3PresignExpiry time.Duration `env:"S3_PRESIGN_EXPIRY" envDefault:"24h"`

	// MQTT completion events (optional; disabled when broker URL is empty).
	MQTTBrokerURL string `env:"MQTT_BROKER_URL"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" envDefault:"scribe"`
	MQTTTopic     string `env:"MQTT_TOPIC" envDefault:"scribe/transcripts"`
	MQTTUsername  string `env:"MQTT_USERNAME"`
	MQTTPassword  string `env:"MQTT_PASSWORD"`

	// Daemon
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"600s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	AuthToken    string        `env:"AUTH_TOKEN"`
	WatchDir     string        `env:"WATCH_DIR"`
	Workers      int           `env:"WORKERS" envDefault:"1"`
	QueueSize    int           `env:"QUEUE_SIZE" envDefault:"256"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile      string
	Model        string
	Language     string
	Device       string
	OutputFormat string
	OutputDir    string
	MinSpeakers  int
	MaxSpeakers  int
	HTTPAddr     string
	WatchDir     string
	LogLevel     string
}

// Token returns the Hugging Face token, falling back to the alternate
// TOKEN variable name.
func (c *Config) Token() string {
	if c.HFToken != "" {
		return c.HFToken
	}
	return c.AltToken
}

// S3Enabled reports whether S3 artifact mirroring is configured.
func (c *Config) S3Enabled() bool { return c.S3Bucket != "" }

// MQTTEnabled reports whether MQTT event publishing is configured.
func (c *Config) MQTTEnabled() bool { return c.MQTTBrokerURL != "" }

// Load reads configuration from .env file, environment variables, and CLI
// overrides. Priority: CLI flags > environment variables > .env file >
// struct defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.Model != "" {
		cfg.WhisperModel = overrides.Model
	}
	if overrides.Language != "" {
		cfg.Language = overrides.Language
	}
	if overrides.Device != "" {
		cfg.Device = overrides.Device
	}
	if overrides.OutputFormat != "" {
		cfg.OutputFormat = overrides.OutputFormat
	}
	if overrides.OutputDir != "" {
		cfg.OutputDir = overrides.OutputDir
	}
	if overrides.MinSpeakers > 0 {
		cfg.MinSpeakers = overrides.MinSpeakers
	}
	if overrides.MaxSpeakers > 0 {
		cfg.MaxSpeakers = overrides.MaxSpeakers
	}
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.WatchDir != "" {
		cfg.WatchDir = overrides.WatchDir
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}

	return cfg, nil
}
