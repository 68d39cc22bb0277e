package s3storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"golang.org/x/time/rate"

	"github.com/ilkoid/mcp-s3/pkg/config"
	"github.com/ilkoid/mcp-s3/pkg/utils"
)

// AWSClient — листинг через aws-sdk-go-v2.
//
// Учётные данные резолвятся стандартной цепочкой SDK с выбранным профилем
// (~/.aws/config, ~/.aws/credentials, SSO, IMDS).
type AWSClient struct {
	api     *s3.Client
	maxKeys int
	limiter *rate.Limiter
}

var _ Lister = (*AWSClient)(nil)

// NewAWS создаёт клиент aws-sdk-go-v2.
func NewAWS(ctx context.Context, cfg config.S3Config) (*AWSClient, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	// "default" SDK выбирает сам; явный профиль требует наличия в shared config
	if cfg.Profile != "" && cfg.Profile != config.DefaultProfile {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config (profile %q): %w", cfg.Profile, err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 1
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(cfg.Endpoint, cfg.UseSSL))
			o.UsePathStyle = true
		}
	})

	return &AWSClient{
		api:     api,
		maxKeys: cfg.MaxKeys,
		limiter: newLimiter(cfg.RateLimit),
	}, nil
}

// ListKeys возвращает ключи бакета по префиксу, не более maxKeys.
//
// При maxKeys до 1000 делается один запрос ListObjectsV2, иначе пагинатор.
func (c *AWSClient) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	if c.maxKeys > 0 && c.maxKeys <= maxPageSize {
		input.MaxKeys = aws.Int32(int32(c.maxKeys))
		return c.listFirstPage(ctx, input)
	}
	return c.listAll(ctx, input)
}

func (c *AWSClient) listFirstPage(ctx context.Context, input *s3.ListObjectsV2Input) ([]string, error) {
	bucket, prefix := aws.ToString(input.Bucket), aws.ToString(input.Prefix)
	if err := wait(ctx, c.limiter); err != nil {
		return nil, err
	}

	page, err := c.api.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, wrapListError(bucket, prefix, classifyAWSError(err), err)
	}

	contents := page.Contents
	truncated := aws.ToBool(page.IsTruncated)
	if len(contents) > c.maxKeys {
		contents = contents[:c.maxKeys]
		truncated = true
	}

	keys := make([]string, 0, len(contents))
	for _, obj := range contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	if truncated {
		utils.Warn("listing truncated", "bucket", bucket, "prefix", prefix, "max_keys", c.maxKeys)
	}
	return keys, nil
}

func (c *AWSClient) listAll(ctx context.Context, input *s3.ListObjectsV2Input) ([]string, error) {
	bucket, prefix := aws.ToString(input.Bucket), aws.ToString(input.Prefix)

	keys := make([]string, 0)
	paginator := s3.NewListObjectsV2Paginator(c.api, input)
	for paginator.HasMorePages() {
		if err := wait(ctx, c.limiter); err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapListError(bucket, prefix, classifyAWSError(err), err)
		}

		for _, obj := range page.Contents {
			if c.maxKeys > 0 && len(keys) >= c.maxKeys {
				utils.Warn("listing truncated", "bucket", bucket, "prefix", prefix, "max_keys", c.maxKeys)
				return keys, nil
			}
			keys = append(keys, aws.ToString(obj.Key))
		}

		if c.maxKeys > 0 && len(keys) >= c.maxKeys && aws.ToBool(page.IsTruncated) {
			utils.Warn("listing truncated", "bucket", bucket, "prefix", prefix, "max_keys", c.maxKeys)
			return keys, nil
		}
	}

	return keys, nil
}

func classifyAWSError(err error) error {
	var code string
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
	}

	var status int
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}

	if code == "" && status == 0 {
		return ErrBackendUnavailable
	}
	return kindFor(code, status)
}
