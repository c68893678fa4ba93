// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/paths.go
// Summary: Path helpers for arcane-viewer configuration.

package config

import (
	"os"
	"path/filepath"
)

const settingsFileName = "settings.json"

func settingsPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "arcane-viewer", settingsFileName), nil
}
