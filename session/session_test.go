// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"testing"

	"github.com/phrozen-labs/arcane-viewer/protocol"
)

func TestReconcileTable(t *testing.T) {
	cases := []struct {
		client, server, want protocol.ClipboardMode
	}{
		{protocol.ClipboardDisabled, protocol.ClipboardBoth, protocol.ClipboardDisabled},
		{protocol.ClipboardReceive, protocol.ClipboardSend, protocol.ClipboardReceive},
		{protocol.ClipboardReceive, protocol.ClipboardReceive, protocol.ClipboardDisabled},
		{protocol.ClipboardSend, protocol.ClipboardReceive, protocol.ClipboardSend},
		{protocol.ClipboardSend, protocol.ClipboardSend, protocol.ClipboardDisabled},
		{protocol.ClipboardBoth, protocol.ClipboardReceive, protocol.ClipboardSend},
		{protocol.ClipboardBoth, protocol.ClipboardSend, protocol.ClipboardReceive},
		{protocol.ClipboardBoth, protocol.ClipboardBoth, protocol.ClipboardBoth},
	}
	for _, c := range cases {
		if got := Reconcile(c.client, c.server); got != c.want {
			t.Fatalf("Reconcile(%v, %v) = %v, want %v", c.client, c.server, got, c.want)
		}
	}
}

func TestReconcileIsIdempotentUnderRepeatedApplication(t *testing.T) {
	// Reconciling an already-effective mode against itself must not
	// oscillate: Both/Both -> Both and Disabled/Disabled -> Disabled are
	// the fixed points among equal pairs; Receive/Receive and Send/Send
	// collapse to Disabled in one step and stay there.
	for _, m := range []protocol.ClipboardMode{protocol.ClipboardDisabled, protocol.ClipboardReceive, protocol.ClipboardSend, protocol.ClipboardBoth} {
		once := Reconcile(m, m)
		twice := Reconcile(once, once)
		if once != twice {
			t.Fatalf("Reconcile not stable for %v: once=%v twice=%v", m, once, twice)
		}
	}
}

func TestSessionInfoCompleteRejectsMissingKeys(t *testing.T) {
	var info sessionInfo
	if err := info.UnmarshalJSON([]byte(`{"SessionId":"s","Version":"5.0.2"}`)); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if info.complete() {
		t.Fatalf("expected incomplete session info to be rejected")
	}
}

func TestSessionInfoCompleteAcceptsAllKeys(t *testing.T) {
	var info sessionInfo
	full := `{"SessionId":"s","Version":"5.0.2","ViewOnly":false,"Clipboard":4,"Username":"u","MachineName":"m","WindowsVersion":"Win"}`
	if err := info.UnmarshalJSON([]byte(full)); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !info.complete() {
		t.Fatalf("expected complete session info to be accepted")
	}
}
