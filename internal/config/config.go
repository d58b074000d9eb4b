// Package config loads the Lambda configuration from the environment.
package config

import (
	"errors"
	"fmt"

	"newsletter/internal/ident"
	"newsletter/internal/logging"
	"newsletter/internal/mailer"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ConfigurationError reports missing or invalid settings.
type ConfigurationError struct {
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Setting == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Setting, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// AWS configures the SDK clients.
type AWS struct {
	Region string `env:"AWS_REGION" envDefault:"us-east-1"`
	// MaxAttempts caps SDK attempts per request; 1 disables retries.
	MaxAttempts int `env:"AWS_MAX_ATTEMPTS" envDefault:"1"`
}

// Table configures access to the subscribers table.
type Table struct {
	Name     string `env:"SUBSCRIBERS_TABLE_NAME,required"`
	MaxPages int    `env:"SCAN_MAX_PAGES" envDefault:"0"`
	PageSize int    `env:"SCAN_PAGE_SIZE" envDefault:"0"`
	IDScheme string `env:"ID_SCHEME" envDefault:"uuid"`
}

// Email configures the newsletter message.
type Email struct {
	FromEmailAddress        string   `env:"FROM_EMAIL_ADDR,required"`
	ConfigurationSet        string   `env:"CONFIGURATION_SET"`
	ReplyToAddresses        []string `env:"REPLY_TO_ADDRS" envSeparator:","`
	MaxRecipientsPerMessage int      `env:"MAX_RECIPIENTS_PER_MESSAGE" envDefault:"50"`
	TemplateFile            string   `env:"TEMPLATE_FILE"`
	TemplateSSMParam        string   `env:"TEMPLATE_SSM_PARAM"`
}

// Send is the configuration of the send-newsletter Lambda.
type Send struct {
	AWS   AWS
	Log   logging.Config
	Table Table
	Email Email
}

// Subscribe is the configuration of the subscribe Lambda.
type Subscribe struct {
	AWS   AWS
	Log   logging.Config
	Table Table
}

func (a AWS) validate() error {
	if a.MaxAttempts < 1 {
		return &ConfigurationError{"AWS_MAX_ATTEMPTS", errors.New("must be at least 1")}
	}
	return nil
}

func (t Table) validate() error {
	if t.MaxPages < 0 {
		return &ConfigurationError{"SCAN_MAX_PAGES", errors.New("must not be negative")}
	}
	if t.PageSize < 0 {
		return &ConfigurationError{"SCAN_PAGE_SIZE", errors.New("must not be negative")}
	}
	if _, err := ident.ForScheme(t.IDScheme); err != nil {
		return &ConfigurationError{"ID_SCHEME", err}
	}
	return nil
}

func (e Email) validate() error {
	n := e.MaxRecipientsPerMessage
	if n < 1 || n > mailer.MaxRecipientsPerMessage {
		return &ConfigurationError{"MAX_RECIPIENTS_PER_MESSAGE", fmt.Errorf("must be between 1 and %d", mailer.MaxRecipientsPerMessage)}
	}
	if e.TemplateFile != "" && e.TemplateSSMParam != "" {
		return &ConfigurationError{"TEMPLATE_FILE", errors.New("only one of TEMPLATE_FILE or TEMPLATE_SSM_PARAM can be set")}
	}
	return nil
}

func parse(v interface{}, opts env.Options) error {
	// Best-effort: a .env file is only present for local runs.
	_ = godotenv.Load()
	if err := env.ParseWithOptions(v, opts); err != nil {
		return &ConfigurationError{Err: err}
	}
	return nil
}

// LoadSend loads and validates the send-newsletter configuration.
func LoadSend() (Send, error) {
	return loadSend(env.Options{})
}

func loadSend(opts env.Options) (Send, error) {
	var cfg Send
	if err := parse(&cfg, opts); err != nil {
		return cfg, err
	}
	for _, v := range []func() error{cfg.AWS.validate, cfg.Table.validate, cfg.Email.validate} {
		if err := v(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// LoadSubscribe loads and validates the subscribe configuration.
func LoadSubscribe() (Subscribe, error) {
	return loadSubscribe(env.Options{})
}

func loadSubscribe(opts env.Options) (Subscribe, error) {
	var cfg Subscribe
	if err := parse(&cfg, opts); err != nil {
		return cfg, err
	}
	if err := cfg.AWS.validate(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Table.validate()
}
