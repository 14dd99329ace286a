package accounts

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

var ErrAccountUnknown = errors.New("caller identity has no account")

// STSClientInterface defines the STS operations required to identify the account
type STSClientInterface interface {
	GetCallerIdentity(ctx context.Context, input *sts.GetCallerIdentityInput, opts ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

func GetAccountID(ctx context.Context, client STSClientInterface) (string, error) {
	result, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", err
	}

	account := aws.ToString(result.Account)
	if account == "" {
		return "", ErrAccountUnknown
	}
	return account, nil
}
