package config

// Config holds all application configuration, organized into logical
// groups.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Assets     AssetsConfig     `mapstructure:"assets"     validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
}

// ServerConfig contains server-related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LLMConfig contains AI collaborator settings.
type LLMConfig struct {
	GeminiAPIKey      string  `mapstructure:"gemini_api_key" validate:"required"`
	ModelName         string  `mapstructure:"model_name"     validate:"required"`
	Temperature       float32 `mapstructure:"temperature"    validate:"gte=0,lte=2"`
	MaxRetries        int     `mapstructure:"max_retries"    validate:"gte=0,lte=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"gte=0,lte=60"`
}

// AssetsConfig contains job asset storage settings.
type AssetsConfig struct {
	// Root is the directory under which per-job asset directories are
	// created.
	Root string `mapstructure:"root" validate:"required"`
}

// GenerationConfig contains pipeline tuning and defaults.
type GenerationConfig struct {
	// DefaultOwnerID is the creator account orchestrated batch runs are
	// attributed to when the caller supplies none.
	DefaultOwnerID string `mapstructure:"default_owner_id" validate:"required,uuid"`

	// BatchSize is the processor batch limit used by the orchestrator
	// drive loop.
	BatchSize int `mapstructure:"batch_size" validate:"required,gte=1,lte=25"`

	// MaxCycles bounds the orchestrator drive loop.
	MaxCycles int `mapstructure:"max_cycles" validate:"required,gte=1"`

	// StallCycles is the number of consecutive no-progress cycles after
	// which the drive loop stops.
	StallCycles int `mapstructure:"stall_cycles" validate:"required,gte=1"`

	// DailyJobQuota caps job creation per owner per UTC day.
	DailyJobQuota int `mapstructure:"daily_job_quota" validate:"required,gte=1"`

	// TagPrefix is the prefix of orchestrated run tags
	// ("<prefix>:<run_token>").
	TagPrefix string `mapstructure:"tag_prefix" validate:"required"`
}
