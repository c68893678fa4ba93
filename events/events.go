// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: events/events.go
// Summary: Events worker: reads inbound cursor/clipboard notifications and
// writes outbound mouse/keyboard/clipboard events.

package events

import (
	"errors"
	"io"
	"sync"

	"github.com/phrozen-labs/arcane-viewer/protocol"
)

// ioConn is the minimal surface Stream needs from its Connection.
type ioConn interface {
	io.Reader
	io.Writer
	io.Closer
}

// CursorChanged is invoked when the server reports a new mouse cursor
// shape.
type CursorChanged func(shape protocol.CursorShape)

// ClipboardReceived is invoked when the server pushes clipboard text and
// the effective clipboard mode permits receiving it.
type ClipboardReceived func(text string)

// Stream is the Events worker. It implements worker.Worker.
type Stream struct {
	conn ioConn

	// ViewOnly suppresses every writer method when true.
	ViewOnly bool
	// ClipboardMode gates inbound delivery and outbound sends.
	ClipboardMode protocol.ClipboardMode

	OnCursor    CursorChanged
	OnClipboard ClipboardReceived

	writeMu  sync.Mutex
	stopOnce sync.Once
	stopped  bool
	mu       sync.Mutex
}

// New constructs an Events stream over an already-attached Connection.
func New(conn ioConn, viewOnly bool, clipboardMode protocol.ClipboardMode, onCursor CursorChanged, onClipboard ClipboardReceived) *Stream {
	return &Stream{
		conn:          conn,
		ViewOnly:      viewOnly,
		ClipboardMode: clipboardMode,
		OnCursor:      onCursor,
		OnClipboard:   onClipboard,
	}
}

// Run reads inbound JSON events until the connection is closed or an
// unrecoverable error occurs. It implements worker.Worker.
func (s *Stream) Run() error {
	for {
		var raw map[string]any
		if err := protocol.ReadJSON(s.conn, &raw); err != nil {
			if s.isStopped() || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		s.handle(raw)
	}
}

// Stop closes the underlying connection, unblocking any in-flight read.
func (s *Stream) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		_ = s.conn.Close()
	})
}

func (s *Stream) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Stream) handle(event map[string]any) {
	rawID, ok := event["Id"]
	if !ok {
		return
	}
	idFloat, ok := rawID.(float64)
	if !ok {
		return
	}
	id := protocol.InboundEventID(int(idFloat))

	switch id {
	case protocol.InboundMouseCursorUpdated:
		name, _ := event["Cursor"].(string)
		if name == "" {
			return
		}
		shape, ignored := protocol.MapCursor(name)
		if ignored {
			return
		}
		if s.OnCursor != nil {
			s.OnCursor(shape)
		}

	case protocol.InboundClipboardUpdated:
		text, hasText := event["Text"].(string)
		if !hasText {
			return
		}
		if s.ClipboardMode == protocol.ClipboardDisabled || s.ClipboardMode == protocol.ClipboardSend {
			return
		}
		if s.OnClipboard != nil {
			s.OnClipboard(text)
		}
	}
}

// SendMouse writes a MouseClickMove event. Discarded silently in
// view-only mode.
func (s *Stream) SendMouse(x, y int, state protocol.MouseState, button protocol.MouseButton) error {
	if s.ViewOnly {
		return nil
	}
	return s.write(map[string]any{
		"Id":     string(protocol.OutboundMouseClickMove),
		"X":      x,
		"Y":      y,
		"Button": string(button),
		"Type":   string(state),
	})
}

// SendMouseWheel writes a MouseWheel event. Discarded silently in
// view-only mode.
func (s *Stream) SendMouseWheel(delta int) error {
	if s.ViewOnly {
		return nil
	}
	return s.write(map[string]any{
		"Id":    string(protocol.OutboundMouseWheel),
		"Delta": delta,
	})
}

// SendKey encodes and writes a keyboard event. Bare modifier presses
// (ok=false from EncodeKey) send nothing. Discarded silently in
// view-only mode.
func (s *Stream) SendKey(e KeyEvent) error {
	if s.ViewOnly {
		return nil
	}
	keys, isShortcut, ok := EncodeKey(e)
	if !ok {
		return nil
	}
	return s.write(map[string]any{
		"Id":         string(protocol.OutboundKeyboard),
		"IsShortcut": isShortcut,
		"Keys":       keys,
	})
}

// SendClipboard writes a ClipboardUpdated event, allowed only when the
// effective clipboard mode is Send or Both. Discarded silently in
// view-only mode (ClipboardMode is already forced to Disabled for a
// view-only session, so this check alone is sufficient).
func (s *Stream) SendClipboard(text string) error {
	if s.ViewOnly {
		return nil
	}
	if s.ClipboardMode != protocol.ClipboardSend && s.ClipboardMode != protocol.ClipboardBoth {
		return nil
	}
	return s.write(map[string]any{
		"Id":   string(protocol.OutboundClipboardUpdated),
		"Text": text,
	})
}

func (s *Stream) write(v map[string]any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return protocol.WriteJSON(s.conn, v)
}
