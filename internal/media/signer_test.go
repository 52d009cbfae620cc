package media

import (
	"strings"
	"testing"
	"time"
)

func TestParseS3(t *testing.T) {
	b, k, ok := ParseS3("s3://academy-videos/eyebrows/lesson-1.mp4")
	if !ok || b != "academy-videos" || k != "eyebrows/lesson-1.mp4" {
		t.Fatalf("got %q %q %v", b, k, ok)
	}
	for _, in := range []string{"https://cdn.example.com/a.mp4", "s3://bucket-only", "s3:///key", "::"} {
		if _, _, ok := ParseS3(in); ok {
			t.Errorf("%q parsed as s3", in)
		}
	}
}

func TestS3SignerPresigns(t *testing.T) {
	s, err := NewS3Signer(S3Config{
		Region:    "us-east-1",
		Endpoint:  "https://objects.example.com",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
		TTL:       5 * time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}
	u, err := s.SignedURL("s3://academy-videos/eyebrows/lesson-1.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(u, "https://objects.example.com/academy-videos/eyebrows/lesson-1.mp4?") {
		t.Fatalf("unexpected url %s", u)
	}
	if !strings.Contains(u, "X-Amz-Signature=") || !strings.Contains(u, "X-Amz-Expires=300") {
		t.Fatalf("url is not presigned: %s", u)
	}

	plain := "https://cdn.example.com/intro.mp4"
	if got, _ := s.SignedURL(plain); got != plain {
		t.Fatalf("plain url rewritten to %s", got)
	}
}

func TestPassthrough(t *testing.T) {
	if got, err := (Passthrough{}).SignedURL("https://cdn.example.com/a.mp4"); err != nil || got != "https://cdn.example.com/a.mp4" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := (Passthrough{}).SignedURL("s3://b/k"); err == nil {
		t.Fatal("expected error for s3 location")
	}
}
