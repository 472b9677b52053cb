// SPDX-License-Identifier: MPL-2.0

package ipc

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderSize is the length of the frame header.
	HeaderSize = 4

	// MaxFrameSize bounds a single payload.
	MaxFrameSize = 1 << 24

	// TypeDependency marks a message reporting a touched file.
	TypeDependency = "dependency"
)

// ErrFrameTooLarge is the sentinel error wrapped by FrameSizeError.
var ErrFrameTooLarge = errors.New("frame too large")

type (
	// Message is one notification.
	Message struct {
		Type string `json:"type"`
		Path string `json:"path"`
	}

	// FrameSizeError reports a frame exceeding MaxFrameSize.
	FrameSizeError struct {
		Size uint64
	}
)

// Error implements the error interface.
func (e *FrameSizeError) Error() string {
	return fmt.Sprintf("frame of %d bytes exceeds limit of %d", e.Size, MaxFrameSize)
}

// Unwrap returns ErrFrameTooLarge for errors.Is() compatibility.
func (e *FrameSizeError) Unwrap() error { return ErrFrameTooLarge }

// WriteFrame writes payload with its length header in a single Write.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return &FrameSizeError{Size: uint64(len(payload))}
	}
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one frame. It returns io.EOF only when r ends cleanly
// between frames, and io.ErrUnexpectedEOF for a truncated frame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, &FrameSizeError{Size: uint64(size)}
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

// WriteMessage encodes msg as one frame.
func WriteMessage(w io.Writer, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

// ReadMessage decodes one frame into a Message.
func ReadMessage(r io.Reader) (Message, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, fmt.Errorf("decoding message: %w", err)
	}
	return msg, nil
}
