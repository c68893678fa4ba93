// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: auth/auth.go
// Summary: PBKDF2 challenge-response authentication against an Arcane server.

package auth

import (
	"crypto/sha512"
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/crypto/pbkdf2"

	"github.com/phrozen-labs/arcane-viewer/protocol"
)

const (
	pbkdf2Iterations = 1000
	pbkdf2KeyLength  = 64
)

// ErrAuthenticationFailed is returned when the server rejects the
// computed challenge solution.
var ErrAuthenticationFailed = errors.New("auth: authentication failed")

// Solve computes the PBKDF2-HMAC-SHA512 challenge response the server
// expects: 1000 iterations, a 64-byte derived key, password as the PBKDF2
// password and the server's challenge string as the salt, encoded as
// uppercase hex.
func Solve(password, challenge string) string {
	derived := pbkdf2.Key([]byte(password), []byte(challenge), pbkdf2Iterations, pbkdf2KeyLength, sha512.New)
	return fmt.Sprintf("%X", derived)
}

// Authenticate reads the server's challenge line from rw, solves it with
// password, writes the solution, and reads back the server's verdict. It
// returns ErrAuthenticationFailed if the server's response is anything
// other than protocol.CommandSuccess.
func Authenticate(rw io.ReadWriter, password string) error {
	challenge, err := protocol.ReadLine(rw)
	if err != nil {
		return fmt.Errorf("auth: reading challenge: %w", err)
	}

	solution := Solve(password, challenge)
	log.Printf("auth: challenge received, sending solution")

	if err := protocol.WriteLine(rw, solution); err != nil {
		return fmt.Errorf("auth: writing solution: %w", err)
	}

	response, err := protocol.ReadLine(rw)
	if err != nil {
		return fmt.Errorf("auth: reading verdict: %w", err)
	}
	if response != string(protocol.CommandSuccess) {
		return ErrAuthenticationFailed
	}

	log.Printf("auth: authentication successful")
	return nil
}
