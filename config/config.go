// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: Client settings persisted at ~/.config/arcane-viewer/settings.json

package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/phrozen-labs/arcane-viewer/protocol"
)

// Settings holds the persisted client preferences and trust store.
type Settings struct {
	// TrustedFingerprints are SHA-1 hex fingerprints of server
	// certificates the user has already accepted (trust-on-first-use).
	TrustedFingerprints []string `json:"trustedFingerprints"`

	// ClipboardMode is the client's preferred clipboard capability,
	// reconciled against the server's own capability at session
	// negotiation time.
	ClipboardMode protocol.ClipboardMode `json:"clipboardMode"`

	// ImageQuality is the JPEG-style compression quality (0-100)
	// requested during the desktop handshake.
	ImageQuality int `json:"imageQuality"`

	// PacketSize and BlockSize are advertised to the server during the
	// desktop handshake; both must be one of protocol's valid sets.
	PacketSize int `json:"packetSize"`
	BlockSize  int `json:"blockSize"`
}

// Default returns the default settings.
func Default() *Settings {
	return &Settings{
		TrustedFingerprints: nil,
		ClipboardMode:       protocol.ClipboardBoth,
		ImageQuality:        80,
		PacketSize:          4096,
		BlockSize:           64,
	}
}

// Load loads settings from ~/.config/arcane-viewer/settings.json.
// If the file doesn't exist, returns the default settings.
func Load() (*Settings, error) {
	cfg := Default()

	path, err := settingsPath()
	if err != nil {
		log.Printf("config: failed to resolve settings path: %v", err)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("config: no settings file at %s, using defaults", path)
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	log.Printf("config: loaded from %s", path)
	return cfg, nil
}

// Save writes the settings to ~/.config/arcane-viewer/settings.json,
// creating the directory if necessary.
func (c *Settings) Save() error {
	path, err := settingsPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	log.Printf("config: saved to %s", path)
	return nil
}

// TrustsFingerprint reports whether fingerprint has already been accepted.
func (c *Settings) TrustsFingerprint(fingerprint string) bool {
	for _, fp := range c.TrustedFingerprints {
		if fp == fingerprint {
			return true
		}
	}
	return false
}

// TrustFingerprint records fingerprint as accepted, if not already present.
func (c *Settings) TrustFingerprint(fingerprint string) {
	if c.TrustsFingerprint(fingerprint) {
		return
	}
	c.TrustedFingerprints = append(c.TrustedFingerprints, fingerprint)
}
