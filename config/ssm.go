package config

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the subset of the SSM client used for loading parameters.
type ssmAPI interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// LoadSSMParameters reads every parameter under SSM_PARAMETER_PATH and merges
// them into c keyed by the last path segment, so /projectverse/prod/JWT_SECRET
// becomes JWT_SECRET. It is a no-op when no path is configured.
func LoadSSMParameters(ctx context.Context, c map[string]string) (map[string]string, error) {
	prefix := GetString(c, "SSM_PARAMETER_PATH", "")
	if prefix == "" {
		return c, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if region := GetString(c, "AWS_REGION", ""); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return c, fmt.Errorf("load aws config: %w", err)
	}

	params, err := fetchParameters(ctx, ssm.NewFromConfig(awsCfg), prefix)
	if err != nil {
		return c, err
	}
	return Merge(c, params), nil
}

func fetchParameters(ctx context.Context, client ssmAPI, prefix string) (map[string]string, error) {
	out := make(map[string]string)
	input := &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	}

	for {
		page, err := client.GetParametersByPath(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("get parameters under %s: %w", prefix, err)
		}
		for _, p := range page.Parameters {
			name := strings.TrimSpace(aws.ToString(p.Name))
			if name == "" {
				continue
			}
			out[path.Base(name)] = aws.ToString(p.Value)
		}
		if page.NextToken == nil || *page.NextToken == "" {
			break
		}
		input.NextToken = page.NextToken
	}
	return out, nil
}
