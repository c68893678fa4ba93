// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: desktop/desktop.go
// Summary: Desktop worker: screen-selection handshake and the dirty-rect
// streaming loop.

package desktop

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/phrozen-labs/arcane-viewer/protocol"
)

// ioConn is the minimal surface Stream needs from its Connection: a
// *transport.Conn in production, a net.Conn or net.Pipe half in tests.
type ioConn interface {
	io.Reader
	io.Writer
	io.Closer
}

// Screen is a remote monitor descriptor as sent by the server.
type Screen struct {
	ID      int    `json:"Id"`
	Name    string `json:"Name"`
	Width   int    `json:"Width"`
	Height  int    `json:"Height"`
	X       int    `json:"X"`
	Y       int    `json:"Y"`
	Primary bool   `json:"Primary"`
}

// DirtyRect is a decoded tile ready for the renderer: opaque image bytes
// positioned at (X, Y) in the active screen's local coordinate frame.
type DirtyRect struct {
	Image []byte
	X     int
	Y     int
}

// ScreenSelector presents a list of screens to the host UI and blocks for
// the user's choice. A nil returned Screen means the user rejected the
// selection and the stream should terminate normally.
type ScreenSelector func(screens []Screen) (*Screen, error)

// Renderer paints a decoded DirtyRect onto the current virtual desktop
// surface.
type Renderer func(rect DirtyRect)

// ScreenChanged is called whenever the active screen changes, including
// the initial selection, so the host UI can size its viewport.
type ScreenChanged func(screen Screen)

// ErrSelectionRejected names a declined screen selection. Run does not
// return it: when the ScreenSelector returns a nil Screen, Run ends with
// a nil error.
var ErrSelectionRejected = errors.New("desktop: screen selection rejected")

type screenList struct {
	List []Screen `json:"List"`
}

type handshakeRequest struct {
	ScreenName              string `json:"ScreenName"`
	ImageCompressionQuality int    `json:"ImageCompressionQuality"`
	PacketSize              int    `json:"PacketSize"`
	BlockSize               int    `json:"BlockSize"`
}

// Stream is the Desktop worker. It implements worker.Worker.
type Stream struct {
	conn ioConn

	ImageQuality int
	PacketSize   int
	BlockSize    int

	SelectScreen  ScreenSelector
	OnScreen      ScreenChanged
	OnDirtyRect   Renderer

	ready chan struct{}

	stopOnce sync.Once
	stopped  bool
	mu       sync.Mutex
}

// New constructs a Desktop stream over an already-attached Connection.
// Ready is closed once the screen handshake completes successfully,
// signaling the supervisor to start the Events worker.
func New(c ioConn, imageQuality, packetSize, blockSize int, selector ScreenSelector, onScreen ScreenChanged, onDirtyRect Renderer) *Stream {
	return &Stream{
		conn:         c,
		ImageQuality: imageQuality,
		PacketSize:   packetSize,
		BlockSize:    blockSize,
		SelectScreen: selector,
		OnScreen:     onScreen,
		OnDirtyRect:  onDirtyRect,
		ready:        make(chan struct{}),
	}
}

// Ready returns the channel that closes once the screen handshake
// completes and the streaming loop is about to begin.
func (s *Stream) Ready() <-chan struct{} { return s.ready }

// Run performs the handshake then the streaming loop until the
// connection is closed or an unrecoverable error occurs. It implements
// worker.Worker.
func (s *Stream) Run() error {
	screens, err := s.readScreenList()
	if err != nil {
		return err
	}

	screen, err := s.selectScreen(screens)
	if err != nil {
		return err
	}
	if screen == nil {
		return nil
	}

	if err := s.writeHandshake(*screen); err != nil {
		return err
	}

	if s.OnScreen != nil {
		s.OnScreen(*screen)
	}
	close(s.ready)

	return s.streamLoop()
}

// Stop closes the underlying connection, unblocking any in-flight read.
// Safe to call multiple times and from any goroutine.
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

func (s *Stream) readScreenList() ([]Screen, error) {
	var list screenList
	if err := protocol.ReadJSON(s.conn, &list); err != nil {
		return nil, fmt.Errorf("desktop: reading screen list: %w", err)
	}
	return list.List, nil
}

func (s *Stream) selectScreen(screens []Screen) (*Screen, error) {
	if len(screens) == 1 {
		return &screens[0], nil
	}
	if s.SelectScreen == nil {
		return nil, errors.New("desktop: multiple screens offered but no ScreenSelector configured")
	}
	chosen, err := s.SelectScreen(screens)
	if err != nil {
		return nil, fmt.Errorf("desktop: screen selection: %w", err)
	}
	if chosen == nil {
		return nil, nil
	}
	return chosen, nil
}

func (s *Stream) writeHandshake(screen Screen) error {
	req := handshakeRequest{
		ScreenName:              screen.Name,
		ImageCompressionQuality: s.ImageQuality,
		PacketSize:              s.PacketSize,
		BlockSize:               s.BlockSize,
	}
	if err := protocol.WriteJSON(s.conn, req); err != nil {
		return fmt.Errorf("desktop: writing handshake: %w", err)
	}
	return nil
}

func (s *Stream) streamLoop() error {
	for {
		hdr, err := protocol.ReadFrameHeader(s.conn)
		if err != nil {
			if s.isStopped() || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("desktop: reading frame header: %w", err)
		}

		if hdr.ScreenUpdated != 0 {
			var screen Screen
			if err := protocol.ReadJSON(s.conn, &screen); err != nil {
				if s.isStopped() {
					return nil
				}
				return fmt.Errorf("desktop: reading updated screen: %w", err)
			}
			if s.OnScreen != nil {
				s.OnScreen(screen)
			}
			continue
		}

		chunk, err := protocol.ReadChunk(s.conn, hdr.ChunkSize)
		if err != nil {
			if s.isStopped() || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("desktop: reading chunk: %w", err)
		}

		if s.OnDirtyRect != nil {
			s.OnDirtyRect(DirtyRect{Image: chunk, X: int(hdr.X), Y: int(hdr.Y)})
		}
	}
}
