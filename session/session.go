// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: session/session.go
// Summary: Session negotiation: RequestSession handshake, protocol version
// gate, and clipboard-capability reconciliation.

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/phrozen-labs/arcane-viewer/auth"
	"github.com/phrozen-labs/arcane-viewer/protocol"
	"github.com/phrozen-labs/arcane-viewer/transport"
)

var (
	// ErrInvalidStructureData is returned when the server's session-info
	// JSON is missing a required field.
	ErrInvalidStructureData = errors.New("session: invalid structure data")

	// ErrUnsupportedVersion is returned when the server's protocol
	// version does not match protocol.Version.
	ErrUnsupportedVersion = errors.New("session: unsupported protocol version")
)

// sessionInfo mirrors the JSON object the server returns after
// RequestSession.
type sessionInfo struct {
	SessionId      string `json:"SessionId"`
	Version        string `json:"Version"`
	ViewOnly       bool   `json:"ViewOnly"`
	Clipboard      int    `json:"Clipboard"`
	Username       string `json:"Username"`
	MachineName    string `json:"MachineName"`
	WindowsVersion string `json:"WindowsVersion"`

	hasSessionId, hasVersion, hasViewOnly, hasClipboard bool
	hasUsername, hasMachineName, hasWindowsVersion      bool
}

// UnmarshalJSON tracks which required keys were actually present, since
// the zero value of every field above is also a valid value a server
// could legitimately send.
func (s *sessionInfo) UnmarshalJSON(data []byte) error {
	type plain sessionInfo
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(data, (*plain)(s)); err != nil {
		return err
	}
	_, s.hasSessionId = raw["SessionId"]
	_, s.hasVersion = raw["Version"]
	_, s.hasViewOnly = raw["ViewOnly"]
	_, s.hasClipboard = raw["Clipboard"]
	_, s.hasUsername = raw["Username"]
	_, s.hasMachineName = raw["MachineName"]
	_, s.hasWindowsVersion = raw["WindowsVersion"]
	return nil
}

func (s *sessionInfo) complete() bool {
	return s.hasSessionId && s.hasVersion && s.hasViewOnly && s.hasClipboard &&
		s.hasUsername && s.hasMachineName && s.hasWindowsVersion
}

// Session is the immutable outcome of a successful negotiation. Every
// field is fixed for the session's lifetime once returned by Negotiate.
type Session struct {
	ServerAddress string
	Password      string

	// LocalID is a client-side correlation id, distinct from the
	// server-issued SessionID, used only to tell concurrent sessions
	// apart in log output.
	LocalID            string
	SessionID          string
	ServerFingerprint  string
	DisplayName        string
	ViewOnly           bool
	ClipboardMode      protocol.ClipboardMode
	ImageQuality       int
	PacketSize         int
	BlockSize          int
}

// clipboardTable holds the clipboard reconciliation matrix: client
// preference (rows) against server-advertised capability (columns).
var clipboardTable = map[protocol.ClipboardMode]map[protocol.ClipboardMode]protocol.ClipboardMode{
	protocol.ClipboardDisabled: {
		protocol.ClipboardDisabled: protocol.ClipboardDisabled,
		protocol.ClipboardReceive:  protocol.ClipboardDisabled,
		protocol.ClipboardSend:     protocol.ClipboardDisabled,
		protocol.ClipboardBoth:     protocol.ClipboardDisabled,
	},
	protocol.ClipboardReceive: {
		protocol.ClipboardDisabled: protocol.ClipboardDisabled,
		protocol.ClipboardReceive:  protocol.ClipboardDisabled,
		protocol.ClipboardSend:     protocol.ClipboardReceive,
		protocol.ClipboardBoth:     protocol.ClipboardReceive,
	},
	protocol.ClipboardSend: {
		protocol.ClipboardDisabled: protocol.ClipboardDisabled,
		protocol.ClipboardReceive:  protocol.ClipboardSend,
		protocol.ClipboardSend:     protocol.ClipboardDisabled,
		protocol.ClipboardBoth:     protocol.ClipboardSend,
	},
	protocol.ClipboardBoth: {
		protocol.ClipboardDisabled: protocol.ClipboardDisabled,
		protocol.ClipboardReceive:  protocol.ClipboardSend,
		protocol.ClipboardSend:     protocol.ClipboardReceive,
		protocol.ClipboardBoth:     protocol.ClipboardBoth,
	},
}

// Reconcile computes the effective clipboard mode for a negotiation where
// the server does not enforce view-only. Callers with view_only=true
// should bypass this and use ClipboardDisabled directly.
func Reconcile(clientPref, serverCap protocol.ClipboardMode) protocol.ClipboardMode {
	row, ok := clipboardTable[clientPref]
	if !ok {
		return protocol.ClipboardDisabled
	}
	effective, ok := row[serverCap]
	if !ok {
		return protocol.ClipboardDisabled
	}
	return effective
}

// Negotiate opens a fresh Connection, authenticates, requests a session,
// validates the server's reply, reconciles clipboard capability, and
// closes the negotiation connection (it is used for nothing else). The
// caller supplies its preferred clipboard mode and desktop-stream tuning
// preferences, which are carried unmodified into the returned Session.
func Negotiate(addr, password string, clipboardPref protocol.ClipboardMode, imageQuality, packetSize, blockSize int) (*Session, error) {
	conn, err := transport.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("session: dial: %w", err)
	}
	defer conn.Close()

	if err := auth.Authenticate(conn, password); err != nil {
		return nil, err
	}

	if err := protocol.WriteLine(conn, string(protocol.CommandRequestSession)); err != nil {
		return nil, fmt.Errorf("session: writing RequestSession: %w", err)
	}

	var info sessionInfo
	if err := protocol.ReadJSON(conn, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStructureData, err)
	}
	if !info.complete() {
		return nil, ErrInvalidStructureData
	}

	if info.Version != protocol.Version {
		log.Printf("session: incompatible server version, client=%s server=%s", protocol.Version, info.Version)
		return nil, ErrUnsupportedVersion
	}

	s := &Session{
		LocalID:           uuid.NewString(),
		ServerAddress:     addr,
		Password:          password,
		SessionID:         info.SessionId,
		ServerFingerprint: conn.Fingerprint,
		DisplayName:       fmt.Sprintf("%s@%s", info.Username, info.MachineName),
		ImageQuality:      imageQuality,
		PacketSize:        packetSize,
		BlockSize:         blockSize,
	}

	serverClipboard := protocol.ParseClipboardMode(info.Clipboard)
	log.Printf("session: server clipboard mode: %s", serverClipboard)

	if info.ViewOnly {
		log.Printf("session: presentation mode enforced by remote server, no input/output will be accepted")
		s.ViewOnly = true
		s.ClipboardMode = protocol.ClipboardDisabled
	} else {
		s.ClipboardMode = Reconcile(clipboardPref, serverClipboard)
		if s.ClipboardMode != clipboardPref {
			log.Printf("session: clipboard mode reconciled from %s to %s", clipboardPref, s.ClipboardMode)
		}
	}

	log.Printf("session[%s]: established with %s on %s", s.LocalID, s.DisplayName, info.WindowsVersion)
	return s, nil
}
