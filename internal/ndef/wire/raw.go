// Package wire is the NDEF message binary codec.
//
// Ownership boundary:
// - record header framing (flags, type/id/payload lengths)
//
// - payload layouts of the record variants the editor can write back
//
// - raw passthrough for records it cannot interpret
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/danmuck/ndefsync/internal/ndef"
)

// Header flag bits.
const (
	FlagMB  byte = 0x80
	FlagME  byte = 0x40
	FlagCF  byte = 0x20
	FlagSR  byte = 0x10
	FlagIL  byte = 0x08
	tnfMask byte = 0x07
)

const maxShort = 0xFF

// Type name formats.
const (
	TNFEmpty       byte = 0x00
	TNFWellKnown   byte = 0x01
	TNFMedia       byte = 0x02
	TNFAbsoluteURI byte = 0x03
	TNFExternal    byte = 0x04
	TNFUnknown     byte = 0x05
	TNFUnchanged   byte = 0x06
	TNFReserved    byte = 0x07
)

var (
	ErrChunkedRecord     = errors.New("wire: chunked records are not supported")
	ErrUnsupportedRecord = errors.New("wire: record kind cannot be encoded")
	ErrTypeTooLong       = errors.New("wire: record type longer than 255 bytes")
)

// RawRecord is one record before payload interpretation.
type RawRecord struct {
	TNF     byte
	Type    []byte
	ID      []byte
	Payload []byte
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ndef.ErrMalformed, fmt.Sprintf(format, args...))
}

// EncodeRaw frames records into one message. MB and ME are set on the
// first and last record. No records encode to zero bytes.
func EncodeRaw(records []RawRecord) ([]byte, error) {
	out := make([]byte, 0)
	for i, r := range records {
		if len(r.Type) > maxShort {
			return nil, ErrTypeTooLong
		}
		if len(r.ID) > maxShort {
			return nil, fmt.Errorf("wire: record id longer than 255 bytes")
		}
		flags := r.TNF & tnfMask
		if i == 0 {
			flags |= FlagMB
		}
		if i == len(records)-1 {
			flags |= FlagME
		}
		short := len(r.Payload) <= maxShort
		if short {
			flags |= FlagSR
		}
		if len(r.ID) > 0 {
			flags |= FlagIL
		}
		out = append(out, flags, byte(len(r.Type)))
		if short {
			out = append(out, byte(len(r.Payload)))
		} else {
			out = binary.BigEndian.AppendUint32(out, uint32(len(r.Payload)))
		}
		if len(r.ID) > 0 {
			out = append(out, byte(len(r.ID)))
		}
		out = append(out, r.Type...)
		out = append(out, r.ID...)
		out = append(out, r.Payload...)
	}
	return out, nil
}

// DecodeRaw splits a message into records. An empty input is an empty
// message.
func DecodeRaw(data []byte) ([]RawRecord, error) {
	records := make([]RawRecord, 0)
	i := 0
	for i < len(data) {
		flags := data[i]
		i++
		if len(records) == 0 && flags&FlagMB == 0 {
			return nil, malformed("first record missing MB flag")
		}
		if len(records) > 0 && flags&FlagMB != 0 {
			return nil, malformed("MB flag on record %d", len(records))
		}
		if flags&FlagCF != 0 {
			return nil, ErrChunkedRecord
		}
		tnf := flags & tnfMask
		if tnf == TNFUnchanged {
			return nil, malformed("unchanged TNF outside a chunk")
		}
		if i >= len(data) {
			return nil, malformed("truncated header")
		}
		typeLen := int(data[i])
		i++
		var payloadLen int
		if flags&FlagSR != 0 {
			if i >= len(data) {
				return nil, malformed("truncated header")
			}
			payloadLen = int(data[i])
			i++
		} else {
			if len(data)-i < 4 {
				return nil, malformed("truncated payload length")
			}
			n := binary.BigEndian.Uint32(data[i : i+4])
			i += 4
			if uint64(n) > uint64(len(data)) {
				return nil, malformed("payload length %d exceeds message", n)
			}
			payloadLen = int(n)
		}
		idLen := 0
		if flags&FlagIL != 0 {
			if i >= len(data) {
				return nil, malformed("truncated id length")
			}
			idLen = int(data[i])
			i++
		}
		if len(data)-i < typeLen+idLen+payloadLen {
			return nil, malformed("record %d body truncated", len(records))
		}
		r := RawRecord{TNF: tnf}
		r.Type = clone(data[i : i+typeLen])
		i += typeLen
		r.ID = clone(data[i : i+idLen])
		i += idLen
		r.Payload = clone(data[i : i+payloadLen])
		i += payloadLen
		records = append(records, r)

		if flags&FlagME != 0 {
			if i != len(data) {
				return nil, malformed("%d trailing bytes after ME", len(data)-i)
			}
			return records, nil
		}
	}
	if len(records) > 0 {
		return nil, malformed("last record missing ME flag")
	}
	return records, nil
}

func clone(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
