package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// LoadAWS loads the shared SDK configuration. Credentials come from the
// Lambda execution role through the default chain.
func LoadAWS(ctx context.Context, c AWS) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(c.Region),
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), c.MaxAttempts)
		}),
	)
	if err != nil {
		return cfg, &ConfigurationError{Setting: "AWS", Err: err}
	}
	return cfg, nil
}
