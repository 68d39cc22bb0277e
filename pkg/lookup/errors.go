package lookup

import (
	"context"
	"errors"

	"github.com/ilkoid/mcp-s3/pkg/s3storage"
)

// ErrInvalidQuery — запрос отсутствует или не является строкой.
// Проверяется на границе, до обращения к хранилищу.
var ErrInvalidQuery = errors.New("invalid query")

// Имена видов ошибок, которые видит вызывающий инструмент.
const (
	KindBackendUnavailable = "BackendUnavailable"
	KindAccessDenied       = "AccessDenied"
	KindBucketNotFound     = "BucketNotFound"
	KindInvalidQuery       = "InvalidQuery"
	KindCanceled           = "Canceled"
	KindInternal           = "Internal"
)

// Kind возвращает имя вида ошибки. Для nil — пустая строка.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidQuery):
		return KindInvalidQuery
	case errors.Is(err, s3storage.ErrAccessDenied):
		return KindAccessDenied
	case errors.Is(err, s3storage.ErrBucketNotFound):
		return KindBucketNotFound
	case errors.Is(err, s3storage.ErrBackendUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return KindBackendUnavailable
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindInternal
	}
}
