// "Тупой" клиент: только листинг ключей. Ранжирование живёт в pkg/fuzzy.

package s3storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/time/rate"

	"github.com/ilkoid/mcp-s3/pkg/config"
	"github.com/ilkoid/mcp-s3/pkg/utils"
)

// Lister — контракт листинга ключей, общий для драйверов minio и aws.
// Используется для мокания в тестах и внедрения зависимостей.
type Lister interface {
	ListKeys(ctx context.Context, bucket, prefix string) ([]string, error)
}

// Client — листинг через minio-go (любой S3-совместимый endpoint).
type Client struct {
	api     *minio.Client
	core    minio.Core
	maxKeys int
	limiter *rate.Limiter
}

// Проверка что Client реализует Lister
var _ Lister = (*Client)(nil)

// NewLister создаёт клиент для драйвера из конфига.
func NewLister(ctx context.Context, cfg config.S3Config) (Lister, error) {
	switch cfg.Driver {
	case config.DriverAWS:
		return NewAWS(ctx, cfg)
	case config.DriverMinio, "":
		return New(cfg)
	default:
		return nil, fmt.Errorf("unknown s3 driver %q", cfg.Driver)
	}
}

// New создает minio клиент, используя наш конфиг.
//
// Ретраи отключены: сбой хранилища сразу уходит вызывающему.
func New(cfg config.S3Config) (*Client, error) {
	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required for minio driver")
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:      minioCredentials(cfg),
		Secure:     secure,
		Region:     cfg.Region,
		MaxRetries: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Client{
		api:     minioClient,
		core:    minio.Core{Client: minioClient},
		maxKeys: cfg.MaxKeys,
		limiter: newLimiter(cfg.RateLimit),
	}, nil
}

// minioCredentials: статические ключи из конфига, иначе цепочка
// ENV → ~/.aws/credentials (профиль) → IAM роль.
func minioCredentials(cfg config.S3Config) *credentials.Credentials {
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		return credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.FileAWSCredentials{Profile: cfg.Profile},
		&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
	})
}

// ListKeys возвращает ключи бакета по префиксу.
//
// Пустой результат — не ошибка. При maxKeys до 1000 (по умолчанию) делается
// ровно один запрос листинга и берётся только первая страница. Если бэкенд
// сообщил о продолжении, обрезка пишется в лог предупреждением.
func (c *Client) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if c.maxKeys > 0 && c.maxKeys <= maxPageSize {
		return c.listFirstPage(ctx, bucket, prefix)
	}
	return c.listAll(ctx, bucket, prefix)
}

type pageResult struct {
	page minio.ListBucketV2Result
	err  error
}

// listFirstPage — один вызов ListObjectsV2 через minio.Core.
func (c *Client) listFirstPage(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := wait(ctx, c.limiter); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, wrapListError(bucket, prefix, ErrBackendUnavailable, err)
	}

	// Core не принимает ctx, поэтому отмену ждём рядом с запросом
	done := make(chan pageResult, 1)
	go func() {
		page, err := c.core.ListObjectsV2(bucket, prefix, "", "", "", c.maxKeys)
		done <- pageResult{page: page, err: err}
	}()

	var res pageResult
	select {
	case <-ctx.Done():
		return nil, wrapListError(bucket, prefix, ErrBackendUnavailable, ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return nil, wrapListError(bucket, prefix, classifyMinioError(res.err), res.err)
	}

	contents := res.page.Contents
	truncated := res.page.IsTruncated
	if len(contents) > c.maxKeys {
		contents = contents[:c.maxKeys]
		truncated = true
	}

	keys := make([]string, 0, len(contents))
	for _, obj := range contents {
		keys = append(keys, obj.Key)
	}
	if truncated {
		utils.Warn("listing truncated", "bucket", bucket, "prefix", prefix, "max_keys", c.maxKeys)
	}
	return keys, nil
}

// listAll идёт по страницам до конца или до maxKeys (больше одной страницы).
//
// Лимит запросов гейтит только начало: дальше minio листает сам.
func (c *Client) listAll(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := wait(ctx, c.limiter); err != nil {
		return nil, err
	}

	// Отмена останавливает горутину листинга minio при раннем выходе
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	keys := make([]string, 0)
	for obj := range c.api.ListObjects(ctx, bucket, opts) {
		if c.maxKeys > 0 && len(keys) >= c.maxKeys {
			utils.Warn("listing truncated", "bucket", bucket, "prefix", prefix, "max_keys", c.maxKeys)
			break
		}
		if obj.Err != nil {
			return nil, wrapListError(bucket, prefix, classifyMinioError(obj.Err), obj.Err)
		}
		keys = append(keys, obj.Key)
	}

	return keys, nil
}

func classifyMinioError(err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return kindFor(resp.Code, resp.StatusCode)
	}
	return ErrBackendUnavailable
}

// --- Helpers ---

// maxPageSize — максимум ключей в одном ответе ListObjectsV2.
const maxPageSize = 1000

// splitEndpoint отделяет схему: minio хочет host:port и флаг Secure.
func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	}
	return strings.TrimSuffix(endpoint, "/"), useSSL
}

// endpointURL — обратная операция для aws-sdk, которому нужен полный URL.
func endpointURL(endpoint string, useSSL bool) string {
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
