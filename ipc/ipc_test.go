package ipc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	os.Exit(m.Run())
}

func TestNotifyReachesListener(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "caly.sock")
	received := make(chan Message, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := Listen(ctx, socketPath, func(msg Message) { received <- msg }); err != nil {
		t.Fatalf("Failed to listen on instance socket: %v", err)
	}

	if err := Notify(socketPath, CommandOpen, "/home/user/report.pdf"); err != nil {
		t.Fatalf("Failed to notify running instance: %v", err)
	}

	select {
	case msg := <-received:
		if msg.Command != CommandOpen {
			t.Errorf("Expected command %q, got %q", CommandOpen, msg.Command)
		}
		if msg.Payload != "/home/user/report.pdf" {
			t.Errorf("Unexpected payload %q", msg.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for forwarded message")
	}
}

func TestNotifyEmptyPayload(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "caly.sock")
	received := make(chan Message, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := Listen(ctx, socketPath, func(msg Message) { received <- msg }); err != nil {
		t.Fatalf("Failed to listen on instance socket: %v", err)
	}

	if err := Notify(socketPath, CommandFront, ""); err != nil {
		t.Fatalf("Failed to notify running instance: %v", err)
	}

	select {
	case msg := <-received:
		if msg.Command != CommandFront || msg.Payload != "" {
			t.Errorf("Unexpected message %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for forwarded message")
	}
}

func TestSecondListenerFails(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "caly.sock")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := Listen(ctx, socketPath, func(Message) {}); err != nil {
		t.Fatalf("First listener failed: %v", err)
	}
	if err := Listen(ctx, socketPath, func(Message) {}); err == nil {
		t.Error("Expected second listener on the same socket to fail")
	}
}

func TestNotifyWithoutListener(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "missing.sock")
	err := Notify(socketPath, CommandFront, "")
	if err == nil {
		t.Fatal("Expected error notifying a socket nobody owns")
	}
	if !errors.Is(err, ErrNoInstance) {
		t.Errorf("Expected ErrNoInstance for a dead socket, got %v", err)
	}
}

func TestNotifyDeliveryFailureIsNotNoInstance(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "caly.sock")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := Listen(ctx, socketPath, func(Message) {}); err != nil {
		t.Fatalf("Failed to listen on instance socket: %v", err)
	}

	// Oversized payload fails after the dial succeeded. The instance is
	// alive, so the error must not claim otherwise.
	err := Notify(socketPath, CommandOpen, strings.Repeat("x", maxFrameSize))
	if err == nil {
		t.Fatal("Expected oversized message to fail")
	}
	if errors.Is(err, ErrNoInstance) {
		t.Error("Delivery failure to a live instance must not report ErrNoInstance")
	}
}
