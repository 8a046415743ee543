package storage

import (
	"context"
	"strings"
	"testing"
)

func TestUploadRejectsBadInput(t *testing.T) {
	s := &Store{bucket: "toolshare", publicURL: "https://cdn.example.com/toolshare"}
	ctx := context.Background()

	if _, err := s.Upload(ctx, "avatars", "application/pdf", []byte("x")); err == nil {
		t.Fatal("expected rejection of non-image content type")
	}
	if _, err := s.Upload(ctx, "avatars", "image/png", nil); err == nil {
		t.Fatal("expected rejection of empty file")
	}
	if _, err := s.Upload(ctx, "avatars", "image/png", make([]byte, MaxUploadBytes+1)); err == nil {
		t.Fatal("expected rejection of oversized file")
	}
}

func TestDeleteRejectsForeignURL(t *testing.T) {
	s := &Store{bucket: "toolshare", publicURL: "https://cdn.example.com/toolshare"}

	err := s.Delete(context.Background(), "https://elsewhere.example.com/bucket/key.png")
	if err == nil {
		t.Fatal("expected rejection of URL outside the store")
	}
	if !strings.Contains(err.Error(), "does not belong") {
		t.Fatalf("unexpected error: %v", err)
	}
}
