// Package keybackend resolves the shared bearer secret from one of several
// sources: an inline value, a file, or AWS SSM Parameter Store.
package keybackend

import (
	"context"
	"errors"
	"fmt"
)

// SecretConfig selects where the secret comes from. Exactly one field must be
// set.
type SecretConfig struct {
	Secret       string `mapstructure:"secret"`        // Inline value
	SecretFile   string `mapstructure:"secret_file"`   // Path to a file holding the secret
	SSMParameter string `mapstructure:"ssm_parameter"` // Parameter Store name, decrypted on read
}

// Source yields the shared secret.
type Source interface {
	Secret(ctx context.Context) (string, error)
}

// NewSource builds the Source selected by cfg. ssm is only used, and only
// required, when SSMParameter is set.
func NewSource(cfg SecretConfig, ssm SSMAPI) (Source, error) {
	var sources []Source
	if cfg.Secret != "" {
		sources = append(sources, StaticSource(cfg.Secret))
	}
	if cfg.SecretFile != "" {
		sources = append(sources, FileSource(cfg.SecretFile))
	}
	if cfg.SSMParameter != "" {
		if ssm == nil {
			return nil, errors.New("ssm parameter configured without an ssm client")
		}
		sources = append(sources, NewParameterStoreSource(ssm, cfg.SSMParameter))
	}

	switch len(sources) {
	case 0:
		return nil, ErrNoSecret
	case 1:
		return sources[0], nil
	default:
		return nil, ErrMultipleSources
	}
}

// LoadSecret resolves cfg to a non-empty secret.
func LoadSecret(ctx context.Context, cfg SecretConfig, ssm SSMAPI) (string, error) {
	src, err := NewSource(cfg, ssm)
	if err != nil {
		return "", fmt.Errorf("load secret: %w", err)
	}

	secret, err := src.Secret(ctx)
	if err != nil {
		return "", fmt.Errorf("load secret: %w", err)
	}
	if secret == "" {
		return "", fmt.Errorf("load secret: %w", ErrNoSecret)
	}
	return secret, nil
}

// StaticSource is a secret given directly in configuration.
type StaticSource string

func (s StaticSource) Secret(context.Context) (string, error) {
	return string(s), nil
}
