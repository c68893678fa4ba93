// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package events

import "testing"

func TestEncodeKeyCtrlLetterIsShortcut(t *testing.T) {
	keys, isShortcut, ok := EncodeKey(KeyEvent{Code: KeyLetter, Rune: 'c', Modifiers: ModControl})
	if !ok || !isShortcut || keys != "{^}C" {
		t.Fatalf("got (%q, %v, %v), want ({^}C, true, true)", keys, isShortcut, ok)
	}
}

func TestEncodeKeyFunctionKeyPlain(t *testing.T) {
	keys, isShortcut, ok := EncodeKey(KeyEvent{Code: KeyF5})
	if !ok || isShortcut || keys != "{F5}" {
		t.Fatalf("got (%q, %v, %v), want ({F5}, false, true)", keys, isShortcut, ok)
	}
}

func TestEncodeKeyFunctionKeyWithAltIsShortcut(t *testing.T) {
	keys, isShortcut, ok := EncodeKey(KeyEvent{Code: KeyF4, Modifiers: ModAlt})
	if !ok || !isShortcut || keys != "{%}{F4}" {
		t.Fatalf("got (%q, %v, %v), want ({%%}{F4}, true, true)", keys, isShortcut, ok)
	}
}

func TestEncodeKeyMetaLIsLockWorkstation(t *testing.T) {
	keys, isShortcut, ok := EncodeKey(KeyEvent{Code: KeyLetter, Rune: 'L', Modifiers: ModMeta})
	if !ok || isShortcut || keys != "{LOCKWORKSTATION}" {
		t.Fatalf("got (%q, %v, %v), want ({LOCKWORKSTATION}, false, true)", keys, isShortcut, ok)
	}
}

func TestEncodeKeyBareMeta(t *testing.T) {
	keys, isShortcut, ok := EncodeKey(KeyEvent{Code: KeyMeta})
	if !ok || isShortcut || keys != "{!}" {
		t.Fatalf("got (%q, %v, %v), want ({!}, false, true)", keys, isShortcut, ok)
	}
}

func TestEncodeKeyBareModifiersAreSuppressed(t *testing.T) {
	for _, code := range []KeyCode{KeyControl, KeyAlt, KeyShift} {
		_, _, ok := EncodeKey(KeyEvent{Code: code})
		if ok {
			t.Fatalf("bare modifier %v should not produce a wire event", code)
		}
	}
}

func TestEncodeKeyNamedSpecials(t *testing.T) {
	cases := map[KeyCode]string{
		KeyUp:        "{UP}",
		KeyEnter:     "{ENTER}",
		KeyBackspace: "{BACKSPACE}",
		KeyEscape:    "{ESC}",
		KeyDelete:    "{DEL}",
	}
	for code, want := range cases {
		keys, isShortcut, ok := EncodeKey(KeyEvent{Code: code})
		if !ok || isShortcut || keys != want {
			t.Fatalf("code %v: got (%q, %v, %v), want (%q, false, true)", code, keys, isShortcut, ok, want)
		}
	}
}

func TestEncodeKeyLiteralBraceIsDoubled(t *testing.T) {
	keys, _, ok := EncodeKey(KeyEvent{Code: KeyOther, Rune: '{'})
	if !ok || keys != "{{" {
		t.Fatalf("got (%q, %v), want ({{, true)", keys, ok)
	}
}

func TestEncodeKeySpecialCharsAreEscaped(t *testing.T) {
	for _, r := range []rune("+}%()") {
		keys, _, ok := EncodeKey(KeyEvent{Code: KeyOther, Rune: r})
		want := "{" + string(r) + "}"
		if !ok || keys != want {
			t.Fatalf("rune %q: got (%q, %v), want (%q, true)", r, keys, ok, want)
		}
	}
}

func TestEncodeKeyPlainRuneFallsThrough(t *testing.T) {
	keys, isShortcut, ok := EncodeKey(KeyEvent{Code: KeyOther, Rune: 'a'})
	if !ok || isShortcut || keys != "a" {
		t.Fatalf("got (%q, %v, %v), want (a, false, true)", keys, isShortcut, ok)
	}
}

func TestEncodeKeyLetterWithoutRuneIsSuppressed(t *testing.T) {
	_, _, ok := EncodeKey(KeyEvent{Code: KeyLetter})
	if ok {
		t.Fatal("KeyLetter with zero Rune should not produce a wire event")
	}
}
