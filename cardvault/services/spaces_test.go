package services

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type recordingObjects struct {
	put    *s3.PutObjectInput
	delKey string
}

func (r *recordingObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	r.put = in
	return &s3.PutObjectOutput{}, nil
}

func (r *recordingObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	r.delKey = *in.Key
	return &s3.DeleteObjectOutput{}, nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestSpacesService_UploadAndDelete(t *testing.T) {
	client := &recordingObjects{}
	svc := NewSpacesServiceWithClient(client, "ams3", "vault", "/assets/")

	url, err := svc.UploadCardImage(context.Background(), 42, pngHeader)
	if err != nil {
		t.Fatalf("UploadCardImage() error = %v", err)
	}
	if got := *client.put.Key; got != "assets/cards/42.png" {
		t.Errorf("key = %q", got)
	}
	if got := *client.put.ContentType; got != "image/png" {
		t.Errorf("content type = %q", got)
	}
	if !strings.HasPrefix(url, "https://vault.ams3.digitaloceanspaces.com/assets/cards/42.png?v=") {
		t.Errorf("url = %q", url)
	}

	if err := svc.DeleteCardImage(context.Background(), url); err != nil {
		t.Fatalf("DeleteCardImage() error = %v", err)
	}
	if client.delKey != "assets/cards/42.png" {
		t.Errorf("deleted key = %q", client.delKey)
	}
}

func TestSpacesService_RejectsNonImage(t *testing.T) {
	svc := NewSpacesServiceWithClient(&recordingObjects{}, "ams3", "vault", "")
	if _, err := svc.UploadCardImage(context.Background(), 1, []byte("plain text")); err == nil {
		t.Error("expected error for non-image payload")
	}
}
