package keybackend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SSMAPI is the subset of the SSM client used to fetch parameters.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParameterStoreSource fetches the secret from AWS SSM Parameter Store,
// decrypting SecureString parameters.
type ParameterStoreSource struct {
	client SSMAPI
	name   string
}

func NewParameterStoreSource(client SSMAPI, name string) *ParameterStoreSource {
	return &ParameterStoreSource{client: client, name: name}
}

func (s *ParameterStoreSource) Secret(ctx context.Context) (string, error) {
	slog.Info("fetching secret from parameter store", "name", s.name)

	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(s.name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", s.name, err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("get parameter %s: %w", s.name, ErrNoSecret)
	}
	return aws.ToString(out.Parameter.Value), nil
}
