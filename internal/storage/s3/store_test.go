package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sqlassist/sqlassist/internal/storage"
)

func TestPutUsesPrefixAndReturnsCallerKey(t *testing.T) {
	fake := &fakeClient{}
	store, err := NewWithClient("exports", "/sqlassist/prod/", fake)
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	info, err := store.Put(context.Background(), "/exports/date=2026-02-19/q1.csv", bytes.NewBufferString("a\n1\n"), 4, storage.PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"query-id": "q1"},
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if fake.lastPutBucket != "exports" {
		t.Fatalf("bucket = %q", fake.lastPutBucket)
	}
	if fake.lastPutKey != "sqlassist/prod/exports/date=2026-02-19/q1.csv" {
		t.Fatalf("key = %q", fake.lastPutKey)
	}
	if fake.lastPutOpts.Metadata["query-id"] != "q1" || fake.lastPutOpts.ContentType != "text/csv" {
		t.Fatalf("opts = %+v", fake.lastPutOpts)
	}
	if info.Key != "/exports/date=2026-02-19/q1.csv" || info.Size != 4 {
		t.Fatalf("info = %+v", info)
	}
}

func TestPutRejectsPathTraversal(t *testing.T) {
	store, err := NewWithClient("exports", "", &fakeClient{})
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}
	for _, key := range []string{"../secrets.txt", "a/../../b", "  ", ".."} {
		if _, err := store.Put(context.Background(), key, bytes.NewBufferString("x"), 1, storage.PutOptions{}); err == nil {
			t.Fatalf("Put(%q) expected validation error", key)
		}
	}
}

func TestGetMapsMissingObject(t *testing.T) {
	store, _ := NewWithClient("exports", "", &fakeClient{getErr: storage.ErrObjectNotFound})
	_, err := store.Get(context.Background(), "exports/missing.csv")
	if !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Get() error = %v, want ErrObjectNotFound", err)
	}
}

func TestGetReturnsBody(t *testing.T) {
	store, _ := NewWithClient("exports", "p", &fakeClient{})
	reader, err := store.Get(context.Background(), "k.csv")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer func() { _ = reader.Close() }()
	body, _ := io.ReadAll(reader)
	if string(body) != "p/k.csv" {
		t.Fatalf("body = %q", body)
	}
}

func TestEnsureBucketCreatesWhenMissing(t *testing.T) {
	fake := &fakeClient{bucketExists: false}
	store, _ := NewWithClient("exports", "", fake)
	if err := store.ensureBucket(context.Background(), "us-east-1"); err != nil {
		t.Fatalf("ensureBucket() error = %v", err)
	}
	if !fake.createBucketCalled {
		t.Fatal("expected CreateBucket to be called")
	}
}

func TestEnsureBucketSkipsExisting(t *testing.T) {
	fake := &fakeClient{bucketExists: true}
	store, _ := NewWithClient("exports", "", fake)
	if err := store.ensureBucket(context.Background(), "us-east-1"); err != nil {
		t.Fatalf("ensureBucket() error = %v", err)
	}
	if fake.createBucketCalled {
		t.Fatal("CreateBucket called for existing bucket")
	}
}

func TestParseEndpoint(t *testing.T) {
	cases := []struct {
		raw     string
		useSSL  bool
		host    string
		secure  bool
		wantErr bool
	}{
		{"https://minio.example.com", false, "minio.example.com", true, false},
		{"http://localhost:9000", false, "localhost:9000", false, false},
		{"localhost:9000", true, "localhost:9000", true, false},
		{"ftp://x", false, "", false, true},
		{"", false, "", false, true},
	}
	for _, tc := range cases {
		host, secure, err := parseEndpoint(tc.raw, tc.useSSL)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseEndpoint(%q) expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseEndpoint(%q) error = %v", tc.raw, err)
		}
		if host != tc.host || secure != tc.secure {
			t.Fatalf("parseEndpoint(%q) = %q/%v", tc.raw, host, secure)
		}
	}
}

func TestNewWithClientRequiresBucket(t *testing.T) {
	if _, err := NewWithClient(" ", "", &fakeClient{}); err == nil {
		t.Fatal("expected bucket error")
	}
	if _, err := NewWithClient("b", "", nil); err == nil {
		t.Fatal("expected client error")
	}
}

type fakeClient struct {
	lastPutBucket      string
	lastPutKey         string
	lastPutOpts        storage.PutOptions
	bucketExists       bool
	createBucketCalled bool
	getErr             error
}

func (f *fakeClient) Put(_ context.Context, bucket, key string, reader io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	f.lastPutBucket = bucket
	f.lastPutKey = key
	f.lastPutOpts = opts
	_, _ = io.Copy(io.Discard, reader)
	return storage.ObjectInfo{Key: key, Size: size, ETag: "etag-1"}, nil
}

func (f *fakeClient) Get(_ context.Context, _, key string) (io.ReadCloser, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return io.NopCloser(strings.NewReader(key)), nil
}

func (f *fakeClient) Stat(_ context.Context, _, key string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{Key: key, Size: 10, LastModified: time.Now().UTC()}, nil
}

func (f *fakeClient) BucketExists(context.Context, string) (bool, error) {
	return f.bucketExists, nil
}

func (f *fakeClient) CreateBucket(context.Context, string, string) error {
	f.createBucketCalled = true
	return nil
}
