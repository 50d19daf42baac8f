// Package ipc implements the single-instance notification channel: a second
// Caly process forwards the document path (or a bring-to-front command) to
// the instance already running, then exits. Messages are length-framed over
// a unix domain socket.
package ipc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// Commands understood by the channel.
const (
	CommandOpen  = "open"  // payload: absolute path of the document to open
	CommandFront = "front" // no payload: bring the running instance to front
)

// Frames above this size are dropped as malformed.
const maxFrameSize = 64 * 1024

// ErrNoInstance reports that nobody answered on the socket, so no running
// instance owns it. Any other Notify error means an instance accepted the
// connection and its socket must be left alone.
var ErrNoInstance = errors.New("no running instance")

// Message is one notification from a second instance.
type Message struct {
	Command string
	Payload string
}

// Listen claims socketPath and dispatches incoming messages to handler until
// ctx is canceled. It returns an error when the socket cannot be claimed,
// which usually means another instance is already running. handler is called
// on the connection's goroutine and should return quickly.
func Listen(ctx context.Context, socketPath string, handler func(Message)) error {
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("unable to claim instance socket: %w", err)
	}
	context.AfterFunc(ctx, func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() == nil {
					Logger.Warn("Instance socket accept failed", "error", err)
				}
				return
			}
			go serveConn(conn, handler)
		}
	}()
	return nil
}

func serveConn(conn net.Conn, handler func(Message)) {
	defer conn.Close()
	for {
		msg, err := readMessage(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				Logger.Warn("Dropping malformed instance message", "error", err)
			}
			return
		}
		handler(msg)
	}
}

// Notify delivers one message to the instance owning socketPath. A dial
// failure is reported as ErrNoInstance.
func Notify(socketPath, command, payload string) error {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoInstance, err)
	}
	defer conn.Close()
	return writeMessage(conn, Message{Command: command, Payload: payload})
}

func writeMessage(w io.Writer, msg Message) error {
	body := []byte(msg.Command + "\n" + msg.Payload)
	if len(body) > maxFrameSize {
		return fmt.Errorf("message of %d bytes exceeds frame limit", len(body))
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

func readMessage(r io.Reader) (Message, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Message{}, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size == 0 || size > maxFrameSize {
		return Message{}, fmt.Errorf("invalid frame size %d", size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return Message{}, err
	}
	command, payload, _ := strings.Cut(string(body), "\n")
	return Message{Command: command, Payload: payload}, nil
}
