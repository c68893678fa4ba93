// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// Command arcane-viewer is a headless client for the Arcane remote-desktop
// protocol. It negotiates a session, attaches the Desktop and Events
// workers, and reports activity to the log until interrupted.

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/phrozen-labs/arcane-viewer/config"
	"github.com/phrozen-labs/arcane-viewer/desktop"
	"github.com/phrozen-labs/arcane-viewer/events"
	"github.com/phrozen-labs/arcane-viewer/protocol"
	"github.com/phrozen-labs/arcane-viewer/session"
	"github.com/phrozen-labs/arcane-viewer/worker"
)

func main() {
	addr := flag.String("addr", "", "Arcane server address (host:port)")
	password := flag.String("password", "", "Shared session password")
	viewOnly := flag.Bool("view-only", false, "Request a presentation-only session")
	flag.Parse()

	if *addr == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: arcane-viewer -addr host:port -password pw [-view-only]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("arcane-viewer: loading settings: %v", err)
	}

	clipboardPref := cfg.ClipboardMode
	if *viewOnly {
		clipboardPref = protocol.ClipboardDisabled
	}

	sess, err := session.Negotiate(*addr, *password, clipboardPref, cfg.ImageQuality, cfg.PacketSize, cfg.BlockSize)
	if err != nil {
		log.Fatalf("arcane-viewer: negotiating session: %v", err)
	}

	if !cfg.TrustsFingerprint(sess.ServerFingerprint) {
		if !confirmTrust(sess.ServerFingerprint) {
			log.Fatalf("arcane-viewer: server fingerprint %s not trusted, aborting", sess.ServerFingerprint)
		}
		cfg.TrustFingerprint(sess.ServerFingerprint)
		if err := cfg.Save(); err != nil {
			log.Printf("arcane-viewer: failed to persist trust store: %v", err)
		}
	}

	log.Printf("arcane-viewer: session %s established as %s (view-only=%v, clipboard=%s)",
		sess.LocalID, sess.DisplayName, sess.ViewOnly, sess.ClipboardMode)

	desktopConn, err := worker.Attach(sess, protocol.WorkerDesktop)
	if err != nil {
		log.Fatalf("arcane-viewer: attaching desktop worker: %v", err)
	}

	desktopStream := desktop.New(desktopConn, sess.ImageQuality, sess.PacketSize, sess.BlockSize,
		autoSelectScreen,
		func(s desktop.Screen) {
			log.Printf("arcane-viewer: active screen %q (%dx%d)", s.Name, s.Width, s.Height)
		},
		func(r desktop.DirtyRect) {
			log.Printf("arcane-viewer: received %d-byte tile at (%d,%d)", len(r.Image), r.X, r.Y)
		},
	)

	sup := worker.New()

	startEvents := func() (worker.Worker, error) {
		eventsConn, err := worker.Attach(sess, protocol.WorkerEvents)
		if err != nil {
			return nil, err
		}
		stream := events.New(eventsConn, sess.ViewOnly || *viewOnly, sess.ClipboardMode,
			func(shape protocol.CursorShape) {
				log.Printf("arcane-viewer: cursor shape changed to %s", shape)
			},
			func(text string) {
				log.Printf("arcane-viewer: received %d bytes of clipboard text", len(text))
			},
		)
		return stream, nil
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("arcane-viewer: signal received, stopping session %s", sess.LocalID)
		sup.Close()
	}()

	if err := sup.Run(desktopStream, desktopStream.Ready(), startEvents); err != nil {
		log.Fatalf("arcane-viewer: session %s ended with error: %v", sess.LocalID, err)
	}
	log.Printf("arcane-viewer: session %s ended", sess.LocalID)
}

// autoSelectScreen picks the primary screen, falling back to the first one
// offered, when more than one screen is available and no interactive UI is
// present to ask the user.
func autoSelectScreen(screens []desktop.Screen) (*desktop.Screen, error) {
	for i := range screens {
		if screens[i].Primary {
			return &screens[i], nil
		}
	}
	if len(screens) == 0 {
		return nil, nil
	}
	return &screens[0], nil
}

// confirmTrust prompts on stdin for trust-on-first-use acceptance of a
// previously unseen server certificate fingerprint.
func confirmTrust(fingerprint string) bool {
	fmt.Fprintf(os.Stderr, "Unknown server certificate fingerprint: %s\nTrust and continue? [y/N]: ", fingerprint)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimRight(answer, "\r\n")
	return answer == "y" || answer == "Y"
}
