package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/smithy-go"
)

func TestMediaKey(t *testing.T) {
	if got := MediaKey("u1", "image", "abc", ".jpg"); got != "media/u1/image/abc.jpg" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := MediaKey("u1", "voice", "abc", ""); got != "media/u1/voice/abc" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestIsNotFound(t *testing.T) {
	notFound := &smithy.GenericAPIError{Code: "NoSuchKey", Message: "missing"}
	if !isNotFound(notFound) {
		t.Fatal("expected NoSuchKey to be treated as not found")
	}
	if isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}) {
		t.Fatal("expected AccessDenied to be a real error")
	}
	if isNotFound(errors.New("boom")) {
		t.Fatal("expected plain error to be a real error")
	}
}

func TestNewS3StorageRequiresBucket(t *testing.T) {
	if _, err := NewS3Storage(context.Background(), Config{Region: "us-east-1"}); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestURLWithCustomEndpoint(t *testing.T) {
	s := &S3Storage{bucket: "media", endpoint: "http://minio:9000"}
	if got := s.URL("media/u1/image/a.jpg"); got != "http://minio:9000/media/media/u1/image/a.jpg" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestLocalStoragePutAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:8080/media/")
	if err != nil {
		t.Fatalf("NewLocalStorage returned error: %v", err)
	}

	key := MediaKey("u1", "voice", "abc", "mp3")
	if err := s.Put(context.Background(), key, strings.NewReader("audio"), "audio/mpeg"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "media", "u1", "voice", "abc.mp3"))
	if err != nil {
		t.Fatalf("expected stored file: %v", err)
	}
	if string(data) != "audio" {
		t.Fatalf("unexpected content %q", data)
	}
	if got := s.URL(key); got != "http://localhost:8080/media/media/u1/voice/abc.mp3" {
		t.Fatalf("unexpected url %q", got)
	}

	if err := s.Delete(context.Background(), key); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := s.Delete(context.Background(), key); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "http://localhost/media")
	if err != nil {
		t.Fatalf("NewLocalStorage returned error: %v", err)
	}
	if err := s.Put(context.Background(), "../outside.txt", strings.NewReader("x"), "text/plain"); err == nil {
		t.Fatal("expected error for key escaping the base directory")
	}
}
