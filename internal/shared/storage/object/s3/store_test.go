package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showdown-backend/internal/shared/storage/object"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

type fakeS3 struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
	status := f.status
	f.mu.Unlock()

	if status != 0 && status != http.StatusOK {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (f *fakeS3) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestStore(t *testing.T, fake *fakeS3, opts Options) *Store {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:           "us-east-1",
		BaseEndpoint:     aws.String(srv.URL),
		UsePathStyle:     true,
		Credentials:      credentials.NewStaticCredentialsProvider("test", "secret", ""),
		RetryMaxAttempts: 1,
	})
	opts.Endpoint = srv.URL
	return NewWithClient(client, opts)
}

func TestPutAndPublishAgainstEndpoint(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(t, fake, Options{
		Region:    "us-east-1",
		Bucket:    "quiz-assets",
		Prefix:    "/showdown/",
		PublicACL: true,
	})
	ctx := context.Background()

	payload := []byte("fake png bytes")
	h, err := store.Put(ctx, "quiz_images/abc.png", "image/png", bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)
	assert.Equal(t, object.Handle{Key: "quiz_images/abc.png", ContentType: "image/png", SizeBytes: int64(len(payload))}, h)

	url, err := store.Publish(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, store.endpoint+"/quiz-assets/showdown/quiz_images/abc.png", url)

	reqs := fake.recorded()
	require.Len(t, reqs, 3)

	put := reqs[0]
	assert.Equal(t, http.MethodPut, put.Method)
	assert.Equal(t, "/quiz-assets/showdown/quiz_images/abc.png", put.Path)
	assert.Equal(t, "image/png", put.Header.Get("Content-Type"))
	assert.Equal(t, DefaultCacheControl, put.Header.Get("Cache-Control"))
	assert.Empty(t, put.Header.Get("X-Amz-Server-Side-Encryption"))
	assert.True(t, bytes.Contains(put.Body, payload))

	acl := reqs[1]
	assert.Equal(t, http.MethodPut, acl.Method)
	assert.Contains(t, acl.Query, "acl")
	assert.Equal(t, "public-read", acl.Header.Get("X-Amz-Acl"))

	head := reqs[2]
	assert.Equal(t, http.MethodHead, head.Method)
	assert.Equal(t, "/quiz-assets/showdown/quiz_images/abc.png", head.Path)
}

func TestPutUsesKMSWhenConfigured(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(t, fake, Options{Bucket: "quiz-assets", KMSKeyID: "key-1"})

	_, err := store.Put(context.Background(), "quiz_images/a.gif", "image/gif", bytes.NewReader([]byte("gif")), 3)
	require.NoError(t, err)

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "aws:kms", reqs[0].Header.Get("X-Amz-Server-Side-Encryption"))
	assert.Equal(t, "key-1", reqs[0].Header.Get("X-Amz-Server-Side-Encryption-Aws-Kms-Key-Id"))
}

func TestPutFailureIsReturned(t *testing.T) {
	fake := &fakeS3{status: http.StatusForbidden}
	store := newTestStore(t, fake, Options{Bucket: "quiz-assets"})

	_, err := store.Put(context.Background(), "quiz_images/a.png", "image/png", bytes.NewReader([]byte("x")), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3 put object")
}

func TestPublishWithoutACLSkipsACLCall(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(t, fake, Options{Bucket: "quiz-assets", PublicBaseURL: "https://cdn.example.com/"})

	url, err := store.Publish(context.Background(), object.Handle{Key: "quiz_images/a.webp"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/quiz_images/a.webp", url)

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodHead, reqs[0].Method)
}

func TestPutRejectsInvalidKey(t *testing.T) {
	fake := &fakeS3{}
	store := newTestStore(t, fake, Options{Bucket: "quiz-assets"})

	_, err := store.Put(context.Background(), "../x.png", "image/png", bytes.NewReader([]byte("x")), 1)
	assert.ErrorIs(t, err, object.ErrInvalidKey)
	assert.Empty(t, fake.recorded())
}

func TestPublicURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		store Store
		key   string
		want  string
	}{
		{
			name:  "public base url",
			store: Store{bucket: "b", publicBaseURL: "https://cdn.example.com"},
			key:   "quiz_images/a.png",
			want:  "https://cdn.example.com/quiz_images/a.png",
		},
		{
			name:  "custom endpoint",
			store: Store{bucket: "b", endpoint: "http://minio:9000"},
			key:   "p/quiz_images/a.png",
			want:  "http://minio:9000/b/p/quiz_images/a.png",
		},
		{
			name:  "aws virtual hosted",
			store: Store{bucket: "b", region: "eu-west-1"},
			key:   "quiz_images/a.png",
			want:  "https://b.s3.eu-west-1.amazonaws.com/quiz_images/a.png",
		},
		{
			name:  "default region",
			store: Store{bucket: "b"},
			key:   "quiz_images/a b.png",
			want:  "https://b.s3.us-east-1.amazonaws.com/quiz_images/a%20b.png",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.store.publicURL(tt.key); got != tt.want {
				t.Fatalf("publicURL(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "quiz_images/a.png", want: "quiz_images/a.png"},
		{name: "simple prefix", prefix: "root", key: "quiz_images/a.png", want: "root/quiz_images/a.png"},
		{name: "prefix trailing slash", prefix: "root/", key: "quiz_images/a.png", want: "root/quiz_images/a.png"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/quiz_images/a.png", want: "root/quiz_images/a.png"},
		{name: "nested prefix", prefix: "root/sub", key: "quiz_images/a.png", want: "root/sub/quiz_images/a.png"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}
