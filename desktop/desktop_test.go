// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package desktop

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/phrozen-labs/arcane-viewer/protocol"
)

func TestRunAutoSelectsSingleScreen(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	var gotRequest struct {
		ScreenName              string `json:"ScreenName"`
		ImageCompressionQuality int    `json:"ImageCompressionQuality"`
		PacketSize              int    `json:"PacketSize"`
		BlockSize               int    `json:"BlockSize"`
	}

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		defer serverConn.Close()

		_ = protocol.WriteJSON(serverConn, map[string]any{
			"List": []Screen{{ID: 1, Name: "DISPLAY1", Width: 1920, Height: 1080, Primary: true}},
		})

		if err := protocol.ReadJSON(serverConn, &gotRequest); err != nil {
			t.Errorf("reading handshake request: %v", err)
			return
		}

		hdr := make([]byte, 13)
		binary.LittleEndian.PutUint32(hdr[0:4], 5)
		binary.LittleEndian.PutUint32(hdr[4:8], 10)
		binary.LittleEndian.PutUint32(hdr[8:12], 20)
		hdr[12] = 0
		_, _ = serverConn.Write(hdr)
		_, _ = serverConn.Write([]byte("abcde"))
	}()

	var gotScreen Screen
	var gotRect DirtyRect
	screenCh := make(chan struct{}, 1)
	rectCh := make(chan struct{}, 1)

	stream := New(clientConn, 80, 4096, 128, nil,
		func(s Screen) { gotScreen = s; screenCh <- struct{}{} },
		func(r DirtyRect) { gotRect = r; rectCh <- struct{}{} },
	)

	runDone := make(chan error, 1)
	go func() { runDone <- stream.Run() }()

	select {
	case <-screenCh:
	case <-time.After(time.Second):
		t.Fatal("OnScreen was never called")
	}
	if gotScreen.Name != "DISPLAY1" {
		t.Fatalf("OnScreen name = %q, want DISPLAY1", gotScreen.Name)
	}

	select {
	case <-rectCh:
	case <-time.After(time.Second):
		t.Fatal("OnDirtyRect was never called")
	}
	if string(gotRect.Image) != "abcde" || gotRect.X != 10 || gotRect.Y != 20 {
		t.Fatalf("unexpected rect: %+v", gotRect)
	}

	stream.Stop()
	select {
	case <-serverDone:
	case <-time.After(time.Second):
	}
	select {
	case err := <-runDone:
		if err != nil {
			t.Fatalf("Run returned error after Stop: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}

	if gotRequest.ScreenName != "DISPLAY1" || gotRequest.ImageCompressionQuality != 80 {
		t.Fatalf("unexpected handshake request: %+v", gotRequest)
	}
}

func TestRunRejectedSelectionEndsCleanly(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	go func() {
		defer serverConn.Close()
		_ = protocol.WriteJSON(serverConn, map[string]any{
			"List": []Screen{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}},
		})
	}()

	stream := New(clientConn, 80, 4096, 128, func(screens []Screen) (*Screen, error) {
		return nil, nil
	}, nil, nil)

	err := stream.Run()
	if err != nil {
		t.Fatalf("Run() = %v, want nil on rejected selection", err)
	}
}

func TestRunHandlesScreenUpdatedMidStream(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		defer serverConn.Close()

		_ = protocol.WriteJSON(serverConn, map[string]any{
			"List": []Screen{{ID: 1, Name: "DISPLAY1"}},
		})
		var req map[string]any
		_ = protocol.ReadJSON(serverConn, &req)

		hdr := make([]byte, 13)
		binary.LittleEndian.PutUint32(hdr[0:4], 0)
		hdr[12] = 1 // screen_updated
		_, _ = serverConn.Write(hdr)
		_ = protocol.WriteJSON(serverConn, Screen{ID: 1, Name: "DISPLAY1", Width: 2560, Height: 1440})
	}()

	var screens []Screen
	done := make(chan struct{})
	count := 0

	stream := New(clientConn, 80, 4096, 128, nil, func(s Screen) {
		screens = append(screens, s)
		count++
		if count == 2 {
			close(done)
		}
	}, nil)

	runDone := make(chan error, 1)
	go func() { runDone <- stream.Run() }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected two OnScreen calls (initial + updated)")
	}

	stream.Stop()
	<-serverDone
	<-runDone

	if screens[1].Width != 2560 {
		t.Fatalf("updated screen width = %d, want 2560", screens[1].Width)
	}
}
