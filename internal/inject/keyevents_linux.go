package inject

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// Codes from linux/input-event-codes.h.
const (
	evSyn       = 0x00
	evKey       = 0x01
	synReport   = 0
	keyLeftCtrl = 29
	keyV        = 47
)

const deviceName = "clipd-virtual-keyboard"

// inputEvent mirrors struct input_event.
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

func encodeEvent(typ, code uint16, value int32) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer do not fail.
	_ = binary.Write(&buf, binary.NativeEndian, inputEvent{Type: typ, Code: code, Value: value})
	return buf.Bytes()
}

// pasteChord is Ctrl down, V down, V up, Ctrl up; each key event is
// followed by a SYN_REPORT in the same write.
func pasteChord() [][]byte {
	steps := []struct {
		code  uint16
		value int32
	}{
		{keyLeftCtrl, 1},
		{keyV, 1},
		{keyV, 0},
		{keyLeftCtrl, 0},
	}
	out := make([][]byte, len(steps))
	for i, s := range steps {
		out[i] = append(encodeEvent(evKey, s.code, s.value), encodeEvent(evSyn, synReport, 0)...)
	}
	return out
}
