package config

import (
	"errors"
	"fmt"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks if the configuration meets the requirements for its environment.
// The encryption key's length is checked by the vault at startup.
func ValidateConfig(cfg *Config) error {
	var errs []error

	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{Field: "JWT_SECRET", Message: "is required"})
	}
	if cfg.EncryptionKey == "" {
		errs = append(errs, ValidationError{Field: "ENCRYPTION_KEY", Message: "is required"})
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.Environment == Production && cfg.DBPassword == "" {
			errs = append(errs, ValidationError{Field: "DB_PASSWORD", Message: "is required in production"})
		}
	case DriverSQLite:
		if cfg.Environment == Production {
			errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: "sqlite is not supported in production"})
		}
		if cfg.DBPath == "" {
			errs = append(errs, ValidationError{Field: "DB_PATH", Message: "is required for sqlite"})
		}
	default:
		errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.LLMTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "LLM_TIMEOUT", Message: "must be positive"})
	}
	if cfg.AssistantTurnsPerHour < 0 {
		errs = append(errs, ValidationError{Field: "ASSISTANT_TURNS_PER_HOUR", Message: "must not be negative"})
	}

	return errors.Join(errs...)
}
