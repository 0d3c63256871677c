package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Settings holds the provider credentials and region taken from the
// environment. Any field left empty falls back to the provider SDK's own
// default resolution chain.
type Settings struct {
	Region          string `envconfig:"REGION"`
	Profile         string `envconfig:"PROFILE"`
	AccessKeyID     string `envconfig:"ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"SECRET_ACCESS_KEY"`
}

// FromEnv reads provider settings from AWS_* environment variables.
func FromEnv() (Settings, error) {
	var s Settings
	if err := envconfig.Process("aws", &s); err != nil {
		return Settings{}, fmt.Errorf("failed to read environment settings: %w", err)
	}
	return s, nil
}
