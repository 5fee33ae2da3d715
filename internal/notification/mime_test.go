package notification

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildAttachmentMessage(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("not really a video, but bytes all the same")
	path := filepath.Join(dir, "2024-06-01T12-00-00.000.mp4")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("Failed to write attachment: %v", err)
	}

	raw, err := BuildAttachmentMessage("cam@example.com", "owner@example.com",
		"Motion detected", "see attachment", path)
	if err != nil {
		t.Fatalf("BuildAttachmentMessage failed: %v", err)
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Message does not parse: %v", err)
	}
	if got := msg.Header.Get("To"); got != "owner@example.com" {
		t.Fatalf("Unexpected To header: %q", got)
	}
	if got := msg.Header.Get("From"); got != "cam@example.com" {
		t.Fatalf("Unexpected From header: %q", got)
	}

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		t.Fatalf("Content-Type does not parse: %v", err)
	}
	if mediaType != "multipart/mixed" {
		t.Fatalf("Expected multipart/mixed, got %q", mediaType)
	}

	reader := multipart.NewReader(msg.Body, params["boundary"])

	text, err := reader.NextPart()
	if err != nil {
		t.Fatalf("Missing text part: %v", err)
	}
	textBody, _ := io.ReadAll(text)
	if !strings.Contains(string(textBody), "see attachment") {
		t.Fatalf("Text part missing body, got %q", textBody)
	}

	attachment, err := reader.NextPart()
	if err != nil {
		t.Fatalf("Missing attachment part: %v", err)
	}
	if got := attachment.Header.Get("Content-Type"); !strings.HasPrefix(got, "video/mp4") {
		t.Fatalf("Unexpected attachment content type: %q", got)
	}
	if got := attachment.Header.Get("Content-Disposition"); !strings.Contains(got, filepath.Base(path)) {
		t.Fatalf("Attachment disposition missing filename: %q", got)
	}

	encoded, _ := io.ReadAll(attachment)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(encoded), "\r\n", ""))
	if err != nil {
		t.Fatalf("Attachment is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Fatal("Decoded attachment does not match the original file")
	}
}

func TestAttachmentContentType(t *testing.T) {
	testCases := []struct {
		path string
		want string
	}{
		{"clip.mp4", "video/mp4"},
		{"still.jpg", "image/jpeg"},
		{"still.JPEG", "image/jpeg"},
		{"blob.bin", "application/octet-stream"},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			if got := attachmentContentType(tc.path); got != tc.want {
				t.Fatalf("attachmentContentType(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestBuildAttachmentMessageMissingFile(t *testing.T) {
	_, err := BuildAttachmentMessage("a@b.c", "d@e.f", "s", "b", "/does/not/exist.mp4")
	if err == nil {
		t.Fatal("Expected an error for a missing attachment")
	}
}
