package notification

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikeyg42/motioncam/internal/config"
)

type fakeSender struct {
	calls int
	err   error
	block bool
}

func (f *fakeSender) Send(ctx context.Context, filePath string) error {
	f.calls++
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeSender) Close() error { return nil }

func tempArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatalf("Failed to create artifact: %v", err)
	}
	return path
}

func deliveryConfig(deleteLocal, keepFailed bool) config.DeliveryConfig {
	return config.DeliveryConfig{
		Timeout:     time.Second,
		DeleteLocal: deleteLocal,
		KeepFailed:  keepFailed,
	}
}

func TestDeliverDeletesAfterSuccess(t *testing.T) {
	path := tempArtifact(t)
	sender := &fakeSender{}
	d := NewDelivery(sender, deliveryConfig(true, true), zap.NewNop())

	if err := d.Deliver(context.Background(), path); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if sender.calls != 1 {
		t.Fatalf("Expected exactly one send, got %d", sender.calls)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("Artifact should be deleted after successful delivery")
	}
}

func TestDeliverDeletesAfterFailureWhenNotKeepingFailed(t *testing.T) {
	path := tempArtifact(t)
	sender := &fakeSender{err: errors.New("boom")}
	d := NewDelivery(sender, deliveryConfig(true, false), zap.NewNop())

	if err := d.Deliver(context.Background(), path); err == nil {
		t.Fatal("Expected the send error to be reported")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("With keep-failed disabled the artifact is deleted regardless of outcome")
	}
}

func TestDeliverKeepsArtifactOnFailureByDefault(t *testing.T) {
	path := tempArtifact(t)
	sender := &fakeSender{err: errors.New("boom")}
	d := NewDelivery(sender, deliveryConfig(true, true), zap.NewNop())

	if err := d.Deliver(context.Background(), path); err == nil {
		t.Fatal("Expected the send error to be reported")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Artifact should survive a failed delivery: %v", err)
	}
}

func TestDeliverWithoutDeletionLeavesArtifact(t *testing.T) {
	path := tempArtifact(t)
	d := NewDelivery(&fakeSender{}, deliveryConfig(false, true), zap.NewNop())

	if err := d.Deliver(context.Background(), path); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Artifact should remain when deletion is disabled: %v", err)
	}
}

func TestDeliverNilSenderStillAppliesDeletionPolicy(t *testing.T) {
	path := tempArtifact(t)
	d := NewDelivery(nil, deliveryConfig(true, true), zap.NewNop())

	if err := d.Deliver(context.Background(), path); err != nil {
		t.Fatalf("Deliver with nil sender should not error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("Deletion policy should apply even without a sender")
	}
}

func TestDeliverBoundedByTimeout(t *testing.T) {
	path := tempArtifact(t)
	sender := &fakeSender{block: true}
	cfg := deliveryConfig(false, true)
	cfg.Timeout = 50 * time.Millisecond
	d := NewDelivery(sender, cfg, zap.NewNop())

	start := time.Now()
	err := d.Deliver(context.Background(), path)
	if err == nil {
		t.Fatal("Expected a timeout error from a blocking sender")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Deliver was not bounded by the timeout, took %v", elapsed)
	}
}
