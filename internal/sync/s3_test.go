package sync

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Destination_Write(t *testing.T) {
	fake := &fakeS3{}
	dest := &S3Destination{client: fake, bucket: "ballots", key: "snapshots/ledger.jsonl"}

	if err := dest.Write(context.Background(), []byte("line\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if aws.ToString(fake.in.Bucket) != "ballots" || aws.ToString(fake.in.Key) != "snapshots/ledger.jsonl" {
		t.Fatalf("put %s/%s", aws.ToString(fake.in.Bucket), aws.ToString(fake.in.Key))
	}
	if aws.ToString(fake.in.ContentType) != contentTypeJSONL || string(fake.body) != "line\n" {
		t.Fatalf("content-type=%q body=%q", aws.ToString(fake.in.ContentType), fake.body)
	}
	if dest.Name() != "s3://ballots/snapshots/ledger.jsonl" {
		t.Fatalf("Name = %q", dest.Name())
	}
}

func TestS3Destination_WriteError(t *testing.T) {
	dest := &S3Destination{client: &fakeS3{err: errors.New("access denied")}, bucket: "b", key: "k"}
	if err := dest.Write(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}
