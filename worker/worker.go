// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: worker/worker.go
// Summary: Attaches a fresh Connection to an already-negotiated session as
// a named worker kind.

package worker

import (
	"errors"
	"fmt"
	"log"

	"github.com/phrozen-labs/arcane-viewer/auth"
	"github.com/phrozen-labs/arcane-viewer/protocol"
	"github.com/phrozen-labs/arcane-viewer/session"
	"github.com/phrozen-labs/arcane-viewer/transport"
)

var (
	// ErrServerFingerprintTampered is returned when a worker connection's
	// certificate fingerprint does not match the one pinned at session
	// negotiation — a possible sign of a man-in-the-middle.
	ErrServerFingerprintTampered = errors.New("worker: server fingerprint does not match pinned session fingerprint")

	// ErrResourceNotFound is returned when the server rejects the
	// AttachToSession request.
	ErrResourceNotFound = errors.New("worker: session not found on server")
)

// Attach opens a fresh authenticated Connection and attaches it to sess
// as the given kind. The caller owns the returned Connection and must
// close it.
func Attach(sess *session.Session, kind protocol.WorkerKind) (*transport.Conn, error) {
	conn, err := transport.Dial(sess.ServerAddress)
	if err != nil {
		return nil, fmt.Errorf("worker: dial: %w", err)
	}

	if conn.Fingerprint != sess.ServerFingerprint {
		_ = conn.Close()
		return nil, ErrServerFingerprintTampered
	}

	if err := auth.Authenticate(conn, sess.Password); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := protocol.WriteLine(conn, string(protocol.CommandAttachToSession)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("worker: writing AttachToSession: %w", err)
	}
	if err := protocol.WriteLine(conn, sess.SessionID); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("worker: writing session id: %w", err)
	}

	response, err := protocol.ReadLine(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("worker: reading attach response: %w", err)
	}
	if response != string(protocol.CommandResourceFound) {
		_ = conn.Close()
		return nil, ErrResourceNotFound
	}

	if err := protocol.WriteLine(conn, string(kind)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("worker: writing worker kind: %w", err)
	}

	log.Printf("worker: conn %d attached as %s", conn.ID(), kind)
	return conn, nil
}
