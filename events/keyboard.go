// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: events/keyboard.go
// Summary: Encodes a viewer-local key event into the wire "Keys" string.

package events

import "strings"

// KeyCode identifies a key independent of any particular local input
// toolkit. KeyOther covers any printable character, carried in Rune.
type KeyCode int

const (
	KeyOther KeyCode = iota
	KeyLetter
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyF13
	KeyF14
	KeyF15
	KeyF16
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyBackspace
	KeyTab
	KeyEscape
	KeyCapsLock
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyHelp
	KeyPrint
	KeyScrollLock
	KeyMeta
	KeyControl
	KeyAlt
	KeyShift
)

// Modifier is a bitmask of held modifier keys.
type Modifier uint8

const (
	ModControl Modifier = 1 << iota
	ModAlt
	ModMeta
	ModShift
)

func (m Modifier) only(bit Modifier) bool { return m == bit }

// KeyEvent is a single viewer-local key press, as delivered by the host
// InputSource capability.
type KeyEvent struct {
	Code      KeyCode
	Rune      rune // set for KeyOther and KeyLetter
	Modifiers Modifier
}

var fKeyTokens = map[KeyCode]string{
	KeyF1: "{F1}", KeyF2: "{F2}", KeyF3: "{F3}", KeyF4: "{F4}",
	KeyF5: "{F5}", KeyF6: "{F6}", KeyF7: "{F7}", KeyF8: "{F8}",
	KeyF9: "{F9}", KeyF10: "{F10}", KeyF11: "{F11}", KeyF12: "{F12}",
	KeyF13: "{F13}", KeyF14: "{F14}", KeyF15: "{F15}", KeyF16: "{F16}",
}

var namedSpecials = map[KeyCode]string{
	KeyUp:         "{UP}",
	KeyDown:       "{DOWN}",
	KeyLeft:       "{LEFT}",
	KeyRight:      "{RIGHT}",
	KeyEnter:      "{ENTER}",
	KeyBackspace:  "{BACKSPACE}",
	KeyTab:        "{TAB}",
	KeyEscape:     "{ESC}",
	KeyCapsLock:   "{CAPSLOCK}",
	KeyDelete:     "{DEL}",
	KeyHome:       "{HOME}",
	KeyEnd:        "{END}",
	KeyPageUp:     "{PGUP}",
	KeyPageDown:   "{PGDN}",
	KeyInsert:     "{INS}",
	KeyHelp:       "{HELP}",
	KeyPrint:      "{PRTSC}",
	KeyScrollLock: "{SCROLLLOCK}",
}

// escapedChars must be wrapped in braces when sent as literal text,
// since braces delimit the special tokens above. '{' is handled
// separately in EncodeKey (sent as "{{") and does not belong in this set.
const escapedChars = "+}%()"

// EncodeKey converts a viewer-local key event into the wire "Keys"
// string and reports whether it must be flagged as a shortcut.
// ok is false for bare modifier presses, which carry no wire event on
// their own (they arrive as part of a shortcut combination instead).
func EncodeKey(e KeyEvent) (keys string, isShortcut bool, ok bool) {
	switch {
	case e.Code == KeyLetter && e.Modifiers.only(ModControl):
		return "{^}" + strings.ToUpper(string(e.Rune)), true, true

	case e.Code >= KeyF1 && e.Code <= KeyF16:
		token := fKeyTokens[e.Code]
		if e.Modifiers.only(ModAlt) {
			return "{%}" + token, true, true
		}
		return token, false, true

	case e.Code == KeyLetter && (e.Rune == 'l' || e.Rune == 'L') && e.Modifiers.only(ModMeta):
		return "{LOCKWORKSTATION}", false, true

	case e.Code == KeyMeta:
		return "{!}", false, true

	case e.Code == KeyControl, e.Code == KeyAlt, e.Code == KeyShift:
		return "", false, false
	}

	if token, found := namedSpecials[e.Code]; found {
		return token, false, true
	}

	r := e.Rune
	if e.Code == KeyLetter && r == 0 {
		return "", false, false
	}
	if r == '{' {
		return "{{", false, true
	}
	if strings.ContainsRune(escapedChars, r) {
		return "{" + string(r) + "}", false, true
	}
	return string(r), false, true
}
