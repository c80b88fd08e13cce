package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeStore struct {
	puts    []*s3.PutObjectInput
	bodies  []string
	deletes []string
	err     error
}

func (f *fakeStore) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, string(b))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeStore) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestPutFile(t *testing.T) {
	fs := &fakeStore{}
	s := New("papers", fs)

	key, err := s.PutFile(context.Background(), "uploads", "Splatting.PDF", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("PutFile() error = %v", err)
	}
	if !strings.HasPrefix(key, "uploads/") || !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("key = %q", key)
	}
	in := fs.puts[0]
	if aws.ToString(in.Bucket) != "papers" || aws.ToString(in.Key) != key {
		t.Fatalf("PutObject input = %+v", in)
	}
	if aws.ToString(in.ContentType) != "application/pdf" {
		t.Fatalf("content type = %q", aws.ToString(in.ContentType))
	}
	if fs.bodies[0] != "%PDF" {
		t.Fatalf("body = %q", fs.bodies[0])
	}

	other, _ := s.PutFile(context.Background(), "uploads", "Splatting.pdf", strings.NewReader(""))
	if other == key {
		t.Fatalf("keys are not unique: %q", key)
	}
}

func TestPutFileError(t *testing.T) {
	boom := errors.New("access denied")
	s := New("papers", &fakeStore{err: boom})
	if _, err := s.PutFile(context.Background(), "uploads", "a.txt", strings.NewReader("x")); !errors.Is(err, boom) {
		t.Fatalf("PutFile() error = %v", err)
	}
}

func TestDeleteFile(t *testing.T) {
	fs := &fakeStore{}
	if err := New("papers", fs).DeleteFile(context.Background(), "uploads/a.txt"); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
	if len(fs.deletes) != 1 || fs.deletes[0] != "uploads/a.txt" {
		t.Fatalf("deletes = %v", fs.deletes)
	}
}
