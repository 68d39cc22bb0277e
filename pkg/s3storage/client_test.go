package s3storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/mcp-s3/pkg/config"
)

const testBucket = "test-bucket"

// fakeS3 — минимальный ListObjectsV2 endpoint: страницы по continuation-token.
type fakeS3 struct {
	pages    map[string]string // token → XML ответ
	status   int               // если не 0, отвечаем ошибкой с errCode
	errCode  string
	requests atomic.Int32
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)

	if f.status != 0 {
		writeError(w, f.status, f.errCode)
		return
	}
	if strings.Trim(r.URL.Path, "/") != testBucket {
		writeError(w, http.StatusNotFound, "NoSuchBucket")
		return
	}
	if r.URL.Query().Get("list-type") != "2" {
		writeError(w, http.StatusBadRequest, "InvalidArgument")
		return
	}

	page, ok := f.pages[r.URL.Query().Get("continuation-token")]
	if !ok {
		writeError(w, http.StatusBadRequest, "InvalidArgument")
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(page))
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>%s</Code><Message>%s</Message><RequestId>req-1</RequestId></Error>`, code, code)
}

func listXML(prefix string, keys []string, next string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	fmt.Fprintf(&b, "<Name>%s</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><MaxKeys>1000</MaxKeys>", testBucket, prefix, len(keys))
	if next != "" {
		fmt.Fprintf(&b, "<IsTruncated>true</IsTruncated><NextContinuationToken>%s</NextContinuationToken>", next)
	} else {
		b.WriteString("<IsTruncated>false</IsTruncated>")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, `<Contents><Key>%s</Key><LastModified>2024-05-01T10:00:00.000Z</LastModified><ETag>"abc"</ETag><Size>42</Size><StorageClass>STANDARD</StorageClass></Contents>`, k)
	}
	b.WriteString("</ListBucketResult>")
	return b.String()
}

func twoPages() map[string]string {
	return map[string]string{
		"":       listXML("raw", []string{"raw/patients_2023.csv", "raw/patients_2024.csv"}, "page-2"),
		"page-2": listXML("raw", []string{"raw/claims.csv"}, ""),
	}
}

// isolateAWSEnv не даёт локальным ~/.aws файлам и переменным влиять на тест.
func isolateAWSEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

// newListers поднимает оба драйвера против одного fake endpoint.
func newListers(t *testing.T, srv *httptest.Server, maxKeys int) map[string]Lister {
	t.Helper()
	isolateAWSEnv(t)

	cfg := config.S3Config{
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		AccessKey: "test-access",
		SecretKey: "test-secret",
		MaxKeys:   maxKeys,
	}

	minioCfg := cfg
	minioCfg.Driver = config.DriverMinio
	m, err := NewLister(context.Background(), minioCfg)
	require.NoError(t, err)

	awsCfg := cfg
	awsCfg.Driver = config.DriverAWS
	a, err := NewLister(context.Background(), awsCfg)
	require.NoError(t, err)

	return map[string]Lister{"minio": m, "aws": a}
}

func TestListKeys_DefaultReadsFirstPageOnly(t *testing.T) {
	fake := &fakeS3{pages: twoPages()}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	for name, lister := range newListers(t, srv, config.DefaultMaxKeys) {
		t.Run(name, func(t *testing.T) {
			before := fake.requests.Load()

			keys, err := lister.ListKeys(context.Background(), testBucket, "raw")
			require.NoError(t, err)
			assert.Equal(t, []string{"raw/patients_2023.csv", "raw/patients_2024.csv"}, keys)
			assert.Equal(t, int32(1), fake.requests.Load()-before, "one listing request")
		})
	}
}

func TestListKeys_TruncatesAtMaxKeys(t *testing.T) {
	tests := []struct {
		maxKeys int
		want    []string
	}{
		{maxKeys: 1, want: []string{"raw/patients_2023.csv"}},
		{maxKeys: 2, want: []string{"raw/patients_2023.csv", "raw/patients_2024.csv"}},
	}

	for _, tt := range tests {
		fake := &fakeS3{pages: twoPages()}
		srv := httptest.NewServer(fake)
		for name, lister := range newListers(t, srv, tt.maxKeys) {
			t.Run(fmt.Sprintf("%d/%s", tt.maxKeys, name), func(t *testing.T) {
				before := fake.requests.Load()

				keys, err := lister.ListKeys(context.Background(), testBucket, "raw")
				require.NoError(t, err)
				assert.Equal(t, tt.want, keys)
				assert.Equal(t, int32(1), fake.requests.Load()-before, "one listing request")
			})
		}
		srv.Close()
	}
}

func TestListKeys_KeepsFirstPageWhenNextPageFails(t *testing.T) {
	// страницы page-2 нет: запрос за ней получил бы 400
	fake := &fakeS3{pages: map[string]string{
		"": listXML("raw", []string{"raw/a.csv", "raw/b.csv"}, "page-2"),
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	for name, lister := range newListers(t, srv, 2) {
		t.Run(name, func(t *testing.T) {
			before := fake.requests.Load()

			keys, err := lister.ListKeys(context.Background(), testBucket, "raw")
			require.NoError(t, err)
			assert.Equal(t, []string{"raw/a.csv", "raw/b.csv"}, keys)
			assert.Equal(t, int32(1), fake.requests.Load()-before)
		})
	}
}

func TestListKeys_FollowsPagesBeyondOnePage(t *testing.T) {
	for _, maxKeys := range []int{-1, 1500} {
		fake := &fakeS3{pages: twoPages()}
		srv := httptest.NewServer(fake)
		for name, lister := range newListers(t, srv, maxKeys) {
			t.Run(fmt.Sprintf("%d/%s", maxKeys, name), func(t *testing.T) {
				before := fake.requests.Load()

				keys, err := lister.ListKeys(context.Background(), testBucket, "raw")
				require.NoError(t, err)
				assert.Equal(t, []string{"raw/patients_2023.csv", "raw/patients_2024.csv", "raw/claims.csv"}, keys)
				assert.Equal(t, int32(2), fake.requests.Load()-before)
			})
		}
		srv.Close()
	}
}

func TestListKeys_KeepsFolderMarker(t *testing.T) {
	srv := httptest.NewServer(&fakeS3{pages: map[string]string{
		"": listXML("raw/", []string{"raw/", "raw/a.csv"}, ""),
	}})
	defer srv.Close()

	for name, lister := range newListers(t, srv, config.DefaultMaxKeys) {
		t.Run(name, func(t *testing.T) {
			keys, err := lister.ListKeys(context.Background(), testBucket, "raw/")
			require.NoError(t, err)
			assert.Equal(t, []string{"raw/", "raw/a.csv"}, keys)
		})
	}
}

func TestListKeys_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(&fakeS3{pages: twoPages()})
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, lister := range newListers(t, srv, config.DefaultMaxKeys) {
		t.Run(name, func(t *testing.T) {
			_, err := lister.ListKeys(ctx, testBucket, "raw")
			assert.ErrorIs(t, err, context.Canceled)
			assert.NotErrorIs(t, err, ErrBackendUnavailable)
		})
	}
}

func TestListKeys_EmptyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(&fakeS3{pages: map[string]string{"": listXML("nothing/", nil, "")}})
	defer srv.Close()

	for name, lister := range newListers(t, srv, config.DefaultMaxKeys) {
		t.Run(name, func(t *testing.T) {
			keys, err := lister.ListKeys(context.Background(), testBucket, "nothing/")
			require.NoError(t, err)
			require.NotNil(t, keys)
			assert.Empty(t, keys)
		})
	}
}

func TestListKeys_ErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		fake    *fakeS3
		bucket  string
		wantErr error
	}{
		{"access denied", &fakeS3{status: http.StatusForbidden, errCode: "AccessDenied"}, testBucket, ErrAccessDenied},
		{"bad key", &fakeS3{status: http.StatusForbidden, errCode: "InvalidAccessKeyId"}, testBucket, ErrAccessDenied},
		{"no bucket", &fakeS3{pages: twoPages()}, "other-bucket", ErrBucketNotFound},
		{"unavailable", &fakeS3{status: http.StatusServiceUnavailable, errCode: "ServiceUnavailable"}, testBucket, ErrBackendUnavailable},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(tt.fake)
		for name, lister := range newListers(t, srv, config.DefaultMaxKeys) {
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				keys, err := lister.ListKeys(context.Background(), tt.bucket, "raw")
				require.Error(t, err)
				assert.Nil(t, keys, "no partial result")
				assert.ErrorIs(t, err, tt.wantErr)

				var listErr *ListError
				require.ErrorAs(t, err, &listErr)
				assert.Equal(t, tt.bucket, listErr.Bucket)
				assert.Equal(t, "raw", listErr.Prefix)
			})
		}
		srv.Close()
	}
}

func TestListKeys_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(&fakeS3{pages: twoPages()})
	listers := newListers(t, srv, config.DefaultMaxKeys)
	srv.Close()

	for name, lister := range listers {
		t.Run(name, func(t *testing.T) {
			_, err := lister.ListKeys(context.Background(), testBucket, "raw")
			assert.ErrorIs(t, err, ErrBackendUnavailable)
		})
	}
}

func TestListKeys_RequiresBucket(t *testing.T) {
	srv := httptest.NewServer(&fakeS3{pages: twoPages()})
	defer srv.Close()

	for name, lister := range newListers(t, srv, config.DefaultMaxKeys) {
		t.Run(name, func(t *testing.T) {
			_, err := lister.ListKeys(context.Background(), "", "raw")
			assert.Error(t, err)
		})
	}
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, ErrAccessDenied, kindFor("AccessDenied", 403))
	assert.Equal(t, ErrAccessDenied, kindFor("SignatureDoesNotMatch", 403))
	assert.Equal(t, ErrAccessDenied, kindFor("", http.StatusForbidden))
	assert.Equal(t, ErrBucketNotFound, kindFor("NoSuchBucket", 404))
	assert.Equal(t, ErrBackendUnavailable, kindFor("InternalError", 500))
	assert.Equal(t, ErrBackendUnavailable, kindFor("", 0))
}

func TestClassifyMinioError(t *testing.T) {
	assert.Equal(t, ErrAccessDenied, classifyMinioError(minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}))
	assert.Equal(t, ErrBucketNotFound, classifyMinioError(minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: 404}))
	assert.Equal(t, ErrBackendUnavailable, classifyMinioError(errors.New("dial tcp 127.0.0.1:9: connection refused")))
}

func TestWrapListError(t *testing.T) {
	// отмена вызывающим не маскируется под сбой хранилища
	err := wrapListError("b", "p", ErrBackendUnavailable, fmt.Errorf("get: %w", context.Canceled))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrBackendUnavailable)

	err = wrapListError("b", "p", ErrBackendUnavailable, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "list s3://b/p: storage backend unavailable: context deadline exceeded", err.Error())
}

func TestEndpointHelpers(t *testing.T) {
	host, secure := splitEndpoint("https://s3.example.com/", false)
	assert.Equal(t, "s3.example.com", host)
	assert.True(t, secure)

	host, secure = splitEndpoint("localhost:9000", false)
	assert.Equal(t, "localhost:9000", host)
	assert.False(t, secure)

	assert.Equal(t, "https://s3.example.com", endpointURL("s3.example.com", true))
	assert.Equal(t, "http://127.0.0.1:9000", endpointURL("http://127.0.0.1:9000", true))
	assert.Equal(t, "", endpointURL("", true))
}
