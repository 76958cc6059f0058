package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/OFFIS-RIT/papergraph/pkg/loader"
)

type fakeGetter struct {
	objects map[string]string
	calls   int
}

func (f *fakeGetter) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	body, ok := f.objects[*params.Bucket+"/"+*params.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3GraphFileLoader_GetFileBytes(t *testing.T) {
	getter := &fakeGetter{objects: map[string]string{"papers/uploads/bert.txt": "BERT text"}}
	l := newS3GraphFileLoader("papers", getter)
	file := loader.NewPaperFile(loader.NewPaperFileParams{
		ID:       "1",
		FilePath: "uploads/bert.txt",
		Source:   loader.PaperSourceS3,
		Loader:   l,
	})

	for i := 0; i < 2; i++ {
		got, err := file.GetBytes(context.Background())
		if err != nil {
			t.Fatalf("GetBytes: %v", err)
		}
		if string(got) != "BERT text" {
			t.Fatalf("unexpected content %q", got)
		}
	}
	if getter.calls != 1 {
		t.Fatalf("expected a single GetObject call, got %d", getter.calls)
	}
}

func TestS3GraphFileLoader_MissingObject(t *testing.T) {
	l := newS3GraphFileLoader("papers", &fakeGetter{objects: map[string]string{}})
	file := loader.NewPaperFile(loader.NewPaperFileParams{FilePath: "nope.pdf", Source: loader.PaperSourceS3, Loader: l})
	if _, err := file.GetBytes(context.Background()); err == nil {
		t.Fatal("expected error for missing object")
	}
}
