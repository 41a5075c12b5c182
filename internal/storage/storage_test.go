package storage

import (
	"testing"

	"github.com/adamavenir/parley/internal/types"
)

func TestKindFor(t *testing.T) {
	tests := []struct {
		contentType string
		want        types.AttachmentKind
	}{
		{"image/png", types.AttachmentImage},
		{"image/jpeg", types.AttachmentImage},
		{"application/pdf", types.AttachmentDocument},
		{"text/plain", types.AttachmentDocument},
		{"", types.AttachmentDocument},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := KindFor(tt.contentType); got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestParseObjectURL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{
			name:       "standard object url",
			url:        "https://chat-images.s3.us-east-1.amazonaws.com/u1/20250101-photo.png",
			wantBucket: "chat-images",
			wantKey:    "u1/20250101-photo.png",
		},
		{
			name:       "document bucket",
			url:        "https://chat-documents.s3.eu-west-2.amazonaws.com/u2/20250101-notes.pdf",
			wantBucket: "chat-documents",
			wantKey:    "u2/20250101-notes.pdf",
		},
		{name: "not an s3 host", url: "https://example.com/file.png", wantErr: true},
		{name: "missing key", url: "https://b.s3.us-east-1.amazonaws.com/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := ParseObjectURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q/%q", bucket, key)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != tt.wantBucket || key != tt.wantKey {
				t.Fatalf("got %q/%q want %q/%q", bucket, key, tt.wantBucket, tt.wantKey)
			}
		})
	}
}
