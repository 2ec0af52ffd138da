package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ProvisioningModeLegacy = "legacy"
	ProvisioningModeSaga   = "saga"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Env         string `env:"ENV" envDefault:"development"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret        string        `env:"JWT_SECRET,required,notEmpty"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"1h"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY" envDefault:"168h"`

	// SiteURL is where confirmation links send the user back to.
	SiteURL             string `env:"SITE_URL" envDefault:"http://localhost:5173"`
	BaseURL             string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	FrontendCallbackURL string `env:"FRONTEND_CALLBACK_URL" envDefault:"http://localhost:5173/auth/callback"`

	DefaultLocale            string `env:"DEFAULT_LOCALE" envDefault:"pt-BR"`
	DefaultState             string `env:"DEFAULT_STATE" envDefault:"SP"`
	RequireEmailConfirmation bool   `env:"REQUIRE_EMAIL_CONFIRMATION" envDefault:"false"`

	Provisioning ProvisioningConfig `envPrefix:"PROVISIONING_"`
	SignIn       SignInConfig       `envPrefix:"SIGNIN_"`

	RedisURL string `env:"REDIS_URL"`

	GitHub OAuthConfig `envPrefix:"GITHUB_"`
	Google OAuthConfig `envPrefix:"GOOGLE_"`

	SMTP SMTPConfig `envPrefix:"SMTP_"`
}

type ProvisioningConfig struct {
	Mode          string        `env:"MODE" envDefault:"saga"`
	MaxAttempts   int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"RETRY_INTERVAL" envDefault:"200ms"`
}

type SignInConfig struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"5"`
	Window      time.Duration `env:"WINDOW" envDefault:"15m"`
}

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	// <BASE_URL>/api/v1/auth/oauth/<provider>/callback
	RedirectURL  string `env:"REDIRECT_URL"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Provisioning.Mode {
	case ProvisioningModeLegacy, ProvisioningModeSaga:
	default:
		return fmt.Errorf("invalid PROVISIONING_MODE %q: want %q or %q",
			c.Provisioning.Mode, ProvisioningModeLegacy, ProvisioningModeSaga)
	}
	if c.Provisioning.MaxAttempts < 1 {
		return fmt.Errorf("PROVISIONING_MAX_ATTEMPTS must be at least 1")
	}
	if c.SignIn.MaxAttempts < 1 {
		return fmt.Errorf("SIGNIN_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
