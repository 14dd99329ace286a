package secrets

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// SSMClientInterface defines the SSM operations required to read secrets
type SSMClientInterface interface {
	GetParameter(ctx context.Context, input *ssm.GetParameterInput, opts ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMSource reads SecureString parameters from SSM Parameter Store.
type SSMSource struct {
	client SSMClientInterface
	logger zerolog.Logger
}

func NewSSMSource(client SSMClientInterface, logger zerolog.Logger) *SSMSource {
	return &SSMSource{client: client, logger: logger}
}

// Secret returns the decrypted value of the named parameter. Only the
// parameter name is ever logged.
func (s *SSMSource) Secret(ctx context.Context, name string) (string, error) {
	start := time.Now()
	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		if isParameterNotFound(err) {
			return "", ErrorParameterNotFound(name)
		}
		return "", ErrorParameterNotRetrieved(name, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", ErrorParameterNotFound(name)
	}

	s.logger.Debug().Str("param", name).Dur("elapsed", time.Since(start)).Msg("Secret loaded from SSM")
	return *result.Parameter.Value, nil
}

func isParameterNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ParameterNotFound"
	}
	return false
}
