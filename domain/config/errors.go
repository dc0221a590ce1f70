package config

import "errors"

var (
	// ErrConfigNotFound is returned when the run configuration file is missing.
	ErrConfigNotFound = errors.New("run configuration not found")

	// ErrInvalidFormat wraps YAML/JSON decode failures, including unknown fields.
	ErrInvalidFormat = errors.New("malformed run configuration")

	// ErrUnsupportedFormat is returned for extensions other than .yaml, .yml and .json.
	ErrUnsupportedFormat = errors.New("unsupported configuration format")

	// ErrValidationFailed wraps every Validate failure.
	ErrValidationFailed = errors.New("run configuration is invalid")

	// ErrMissingEnvVar is returned by strict expansion and ${VAR:?msg}.
	ErrMissingEnvVar = errors.New("environment variable not set")
)
