package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Config holds the configuration for the Fernwood user backend and its dependencies.
type Config struct {
	// LogLevel is the log level for the application.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Security holds the secret material used for token signing.
	Security *SecurityConfig `yaml:"security" mapstructure:"security"`
	// Tokens holds the token lifetime configuration.
	Tokens *TokenConfig `yaml:"tokens" mapstructure:"tokens"`
	// Email holds the outgoing email configuration.
	Email *EmailConfig `yaml:"email" mapstructure:"email"`
	// Mailer holds the mail dispatch queue configuration.
	Mailer *MailerConfig `yaml:"mailer" mapstructure:"mailer"`
	// Redis holds the redis connection configuration.
	Redis *RedisConfig `yaml:"redis" mapstructure:"redis"`
	// Online holds the online users registry configuration.
	Online *OnlineConfig `yaml:"online" mapstructure:"online"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig holds the secret material used for token signing.
// Rotating either value invalidates all outstanding tokens.
type SecurityConfig struct {
	// SecretKey is the process-wide secret key.
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	// Salt is a distinct salt mixed into token signatures.
	Salt string `yaml:"salt" mapstructure:"salt"`
}

// TokenConfig holds the token lifetime configuration.
type TokenConfig struct {
	// EmailMaxAge is the maximum age of an email confirmation token in seconds.
	EmailMaxAge int `yaml:"email_max_age" mapstructure:"email_max_age"`
	// AuthMaxAge is the maximum age of an auth token in seconds.
	AuthMaxAge int `yaml:"auth_max_age" mapstructure:"auth_max_age"`
}

// EmailConfig holds the outgoing email configuration.
type EmailConfig struct {
	// Enabled indicates whether outgoing email is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// SMTPHost is the SMTP server host.
	SMTPHost string `yaml:"smtp_host" mapstructure:"smtp_host"`
	// SMTPPort is the SMTP server port.
	SMTPPort int `yaml:"smtp_port" mapstructure:"smtp_port"`
	// Username is the SMTP username.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the SMTP password.
	Password string `yaml:"password" mapstructure:"password"`
	// FromEmail is the email address from which mail is sent.
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	// FromName is the name from which mail is sent.
	FromName string `yaml:"from_name" mapstructure:"from_name"`
	// UseTLS indicates whether to use STARTTLS for the SMTP connection.
	UseTLS bool `yaml:"use_tls" mapstructure:"use_tls"`
	// UseSSL indicates whether to use SSL for the SMTP connection.
	UseSSL bool `yaml:"use_ssl" mapstructure:"use_ssl"`
	// InsecureSkipVerify indicates whether to skip TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// MailerConfig holds the mail dispatch queue configuration.
type MailerConfig struct {
	// Workers is the number of concurrent delivery workers.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// QueueSize is the capacity of the outgoing mail queue.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`
}

// RedisConfig holds the redis connection configuration.
type RedisConfig struct {
	// Enabled indicates whether redis backs the online registry and counters.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Addr is the redis server address.
	Addr string `yaml:"addr" mapstructure:"addr"`
	// Password is the redis password.
	Password string `yaml:"password" mapstructure:"password"`
	// DB is the redis database number.
	DB int `yaml:"db" mapstructure:"db"`
}

// OnlineConfig holds the online users registry configuration.
type OnlineConfig struct {
	// TTL is the time in seconds after which a user without activity
	// is no longer considered online.
	TTL int `yaml:"ttl" mapstructure:"ttl"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar fallback avatars are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("FERNWOOD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.fernwood")
		v.AddConfigPath("/etc/fernwood")
	}

	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with FERNWOOD_ prefix will override config file values")
	}

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("database.path", "fernwood.db")

	v.SetDefault("tokens.email_max_age", 1800)
	v.SetDefault("tokens.auth_max_age", 86400)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.from_name", "Fernwood")
	v.SetDefault("email.use_tls", true)

	v.SetDefault("mailer.workers", 2)
	v.SetDefault("mailer.queue_size", 128)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("online.ttl", 300)

	v.SetDefault("gravatar.enabled", true)
	v.SetDefault("gravatar.default_image", "identicon")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 80)
}

// validateConfig validates the required configuration values.
func validateConfig(c *Config) error {
	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Security == nil || c.Security.SecretKey == "" {
		return fmt.Errorf("security.secret_key is required")
	}
	if c.Security.Salt == "" {
		return fmt.Errorf("security.salt is required")
	}
	if c.Email != nil && c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("email.smtp_host is required when email is enabled")
		}
		if c.Email.FromEmail == "" {
			return fmt.Errorf("email.from_email is required when email is enabled")
		}
	}
	if c.Mailer != nil {
		if c.Mailer.Workers < 1 {
			return fmt.Errorf("mailer.workers must be at least 1")
		}
		if c.Mailer.QueueSize < 1 {
			return fmt.Errorf("mailer.queue_size must be at least 1")
		}
	}
	return nil
}
