// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: transport/transport.go
// Summary: TLS connection establishment, server-certificate fingerprinting,
// and the duplex Conn used by every component that talks to an Arcane server.

package transport

import (
	"crypto/sha1"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// connectTimeout bounds the initial TLS handshake. It is cleared once the
// handshake completes, matching the original client's settimeout(10) then
// settimeout(None).
const connectTimeout = 10 * time.Second

// ErrMissingServerCertificate is returned when the server presents no
// certificate during the TLS handshake.
var ErrMissingServerCertificate = errors.New("transport: server presented no certificate")

var connCounter int64

// Conn wraps a TLS connection to an Arcane server. It pins no certificate
// chain — verification is intentionally disabled, trust is established by
// comparing the SHA-1 fingerprint of the leaf certificate against a
// previously-accepted value (trust-on-first-use). A single Conn is safe
// for one concurrent reader and one concurrent writer, matching the
// guarantee the underlying net.Conn already provides; it is not safe for
// concurrent writers among themselves.
type Conn struct {
	id   int64
	tls  *tls.Conn
	once sync.Once

	// Fingerprint is the uppercase hex SHA-1 digest of the server's leaf
	// certificate, computed once during Dial.
	Fingerprint string
}

// Dial opens a TLS connection to addr, disabling hostname and chain
// verification (the original client's behavior: trust is established out
// of band via fingerprint comparison, not a CA chain). It returns
// ErrMissingServerCertificate if the server sends no certificate.
func Dial(addr string) (*Conn, error) {
	id := atomic.AddInt64(&connCounter, 1)
	log.Printf("transport: conn %d dialing %s", id, addr)

	dialer := &net.Dialer{Timeout: connectTimeout}
	rawConn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}

	tlsConn := tls.Client(rawConn, &tls.Config{
		InsecureSkipVerify: true,
	})
	if err := tlsConn.SetDeadline(time.Now().Add(connectTimeout)); err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	if err := tlsConn.Handshake(); err != nil {
		_ = tlsConn.Close()
		return nil, fmt.Errorf("transport: conn %d handshake: %w", id, err)
	}
	if err := tlsConn.SetDeadline(time.Time{}); err != nil {
		_ = tlsConn.Close()
		return nil, err
	}

	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		_ = tlsConn.Close()
		return nil, ErrMissingServerCertificate
	}

	sum := sha1.Sum(state.PeerCertificates[0].Raw)
	fingerprint := fmt.Sprintf("%X", sum)

	log.Printf("transport: conn %d established, fingerprint %s", id, fingerprint)

	return &Conn{id: id, tls: tlsConn, Fingerprint: fingerprint}, nil
}

// ID returns a locally-unique identifier for this connection, useful for
// correlating log lines across a session's several workers.
func (c *Conn) ID() int64 { return c.id }

// Read implements io.Reader.
func (c *Conn) Read(p []byte) (int, error) { return c.tls.Read(p) }

// Write implements io.Writer.
func (c *Conn) Write(p []byte) (int, error) { return c.tls.Write(p) }

// Close shuts down and closes the underlying connection. It is safe to
// call multiple times; only the first call has effect.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		log.Printf("transport: conn %d closing", c.id)
		err = c.tls.Close()
	})
	return err
}
