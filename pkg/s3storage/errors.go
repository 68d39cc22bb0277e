package s3storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Виды ошибок листинга. Проверяются через errors.Is().
var (
	// ErrBackendUnavailable — хранилище недоступно (сеть, таймаут, 5xx).
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrAccessDenied — у учётных данных нет прав на листинг.
	ErrAccessDenied = errors.New("access denied")

	// ErrBucketNotFound — бакет не существует.
	ErrBucketNotFound = errors.New("bucket not found")
)

// ListError — ошибка листинга с контекстом бакета и префикса.
//
// errors.Is(err, ErrAccessDenied) и т.п. работают через Is(),
// исходная ошибка SDK доступна через Unwrap().
type ListError struct {
	Kind   error
	Bucket string
	Prefix string
	Err    error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("list s3://%s/%s: %v: %v", e.Bucket, e.Prefix, e.Kind, e.Err)
}

// Is сравнивает с видом ошибки.
func (e *ListError) Is(target error) bool {
	return target == e.Kind
}

func (e *ListError) Unwrap() error {
	return e.Err
}

// kindFor переводит S3 код ошибки и HTTP статус в вид ошибки.
func kindFor(code string, status int) error {
	switch code {
	case "AccessDenied", "AllAccessDisabled", "InvalidAccessKeyId",
		"SignatureDoesNotMatch", "ExpiredToken", "InvalidToken", "AccountProblem":
		return ErrAccessDenied
	case "NoSuchBucket":
		return ErrBucketNotFound
	}
	if status == http.StatusForbidden || status == http.StatusUnauthorized {
		return ErrAccessDenied
	}
	return ErrBackendUnavailable
}

// wrapListError заворачивает ошибку SDK в ListError.
// Отмена контекста вызывающим не является сбоем хранилища и возвращается как есть.
func wrapListError(bucket, prefix string, kind, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &ListError{Kind: kind, Bucket: bucket, Prefix: prefix, Err: err}
}
