package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/papergraph/pkg/loader"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestCleanFileName(t *testing.T) {
	tests := map[string]string{
		"paper.pdf":            "paper.pdf",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\bert.pdf`: "bert.pdf",
		"":                     "upload",
	}
	for in, want := range tests {
		if got := cleanFileName(in); got != want {
			t.Errorf("cleanFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLocalStorage(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	s.newID = func() (string, error) { return "abc", nil }

	file, err := s.Put(context.Background(), "Attention Is All You Need.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if file.FilePath != filepath.Join(dir, "abc", "Attention Is All You Need.pdf") {
		t.Fatalf("unexpected path %q", file.FilePath)
	}
	if file.PaperName != "Attention Is All You Need" || file.Source != loader.PaperSourceFile || file.ID != "abc" {
		t.Fatalf("unexpected file %+v", file)
	}

	data, err := file.GetBytes(context.Background())
	if err != nil || string(data) != "%PDF-1.4" {
		t.Fatalf("unexpected bytes %q %v", data, err)
	}

	if err := s.Delete(context.Background(), file); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "abc")); !os.IsNotExist(err) {
		t.Fatalf("expected upload directory to be removed, got %v", err)
	}
}

type fakeObjects struct {
	puts    map[string]string
	types   map[string]string
	deleted []string
}

func (f *fakeObjects) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.puts[*params.Key] = string(data)
	if params.ContentType != nil {
		f.types[*params.Key] = *params.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type objectBytes map[string]string

func (o objectBytes) GetFileBytes(ctx context.Context, file loader.PaperFile) ([]byte, error) {
	return []byte(o[file.FilePath]), nil
}

func TestS3Storage(t *testing.T) {
	objects := &fakeObjects{puts: map[string]string{}, types: map[string]string{}}
	s := newS3Storage(objects, "papers", "uploads", objectBytes(objects.puts))
	s.newID = func() (string, error) { return "xyz", nil }

	file, err := s.Put(context.Background(), "bert.pdf", io.LimitReader(strings.NewReader("pdf-bytes"), 100))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if file.FilePath != "uploads/xyz/bert.pdf" || file.Source != loader.PaperSourceS3 || file.PaperName != "bert" {
		t.Fatalf("unexpected file %+v", file)
	}
	if objects.puts["uploads/xyz/bert.pdf"] != "pdf-bytes" || objects.types["uploads/xyz/bert.pdf"] != "application/pdf" {
		t.Fatalf("unexpected upload %v %v", objects.puts, objects.types)
	}

	data, err := file.GetBytes(context.Background())
	if err != nil || string(data) != "pdf-bytes" {
		t.Fatalf("unexpected bytes %q %v", data, err)
	}

	if err := s.Delete(context.Background(), file); err != nil || len(objects.deleted) != 1 {
		t.Fatalf("Delete: %v %v", err, objects.deleted)
	}
}
