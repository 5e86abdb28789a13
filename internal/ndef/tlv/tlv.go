// Package tlv reads and writes the TLV blocks of an NFC Forum Type 2 tag
// data area.
package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Block tags used by NFC Forum Type 2 tags.
const (
	TagNull          uint8 = 0x00
	TagLockControl   uint8 = 0x01
	TagMemoryControl uint8 = 0x02
	TagNDEFMessage   uint8 = 0x03
	TagProprietary   uint8 = 0xFD
	TagTerminator    uint8 = 0xFE
)

// Values of 0xFF bytes or more use the three-byte length form.
const (
	longLengthMarker = 0xFF
	maxValueLen      = 0xFFFE
)

var (
	ErrShortBlockHeader = errors.New("tlv: short block header")
	ErrShortBlockValue  = errors.New("tlv: short block value")
	ErrValueTooLarge    = errors.New("tlv: value too large")
)

// Block is one decoded TLV block. Null and Terminator blocks carry no value.
type Block struct {
	Tag   uint8
	Value []byte
}

func EncodeBlock(b Block) ([]byte, error) {
	if b.Tag == TagNull || b.Tag == TagTerminator {
		return []byte{b.Tag}, nil
	}
	n := len(b.Value)
	if n > maxValueLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrValueTooLarge, n)
	}
	var buf []byte
	if n < longLengthMarker {
		buf = make([]byte, 2, 2+n)
		buf[0] = b.Tag
		buf[1] = byte(n)
	} else {
		buf = make([]byte, 4, 4+n)
		buf[0] = b.Tag
		buf[1] = longLengthMarker
		binary.BigEndian.PutUint16(buf[2:4], uint16(n))
	}
	return append(buf, b.Value...), nil
}

func EncodeBlocks(blocks []Block) ([]byte, error) {
	out := make([]byte, 0)
	for _, b := range blocks {
		enc, err := EncodeBlock(b)
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}
	return out, nil
}

// DecodeBlocks parses a data area up to and including the first Terminator.
// Null blocks are skipped; bytes after the Terminator are ignored.
func DecodeBlocks(area []byte) ([]Block, error) {
	blocks := make([]Block, 0)
	i := 0
	for i < len(area) {
		tag := area[i]
		i++
		switch tag {
		case TagNull:
			continue
		case TagTerminator:
			blocks = append(blocks, Block{Tag: TagTerminator})
			return blocks, nil
		}
		if i >= len(area) {
			return nil, ErrShortBlockHeader
		}
		l := int(area[i])
		i++
		if l == longLengthMarker {
			if len(area)-i < 2 {
				return nil, ErrShortBlockHeader
			}
			l = int(binary.BigEndian.Uint16(area[i : i+2]))
			i += 2
		}
		if len(area)-i < l {
			return nil, ErrShortBlockValue
		}
		val := make([]byte, l)
		copy(val, area[i:i+l])
		i += l
		blocks = append(blocks, Block{Tag: tag, Value: val})
	}
	return blocks, nil
}

// FindMessage returns the value of the first NDEF Message block.
func FindMessage(blocks []Block) ([]byte, bool) {
	for _, b := range blocks {
		if b.Tag == TagNDEFMessage {
			return b.Value, true
		}
	}
	return nil, false
}

// WrapMessage encodes msg as an NDEF Message block followed by a Terminator.
func WrapMessage(msg []byte) ([]byte, error) {
	return EncodeBlocks([]Block{
		{Tag: TagNDEFMessage, Value: msg},
		{Tag: TagTerminator},
	})
}

// WrappedLen is the size WrapMessage produces for an n-byte message.
func WrappedLen(n int) int {
	if n < longLengthMarker {
		return 2 + n + 1
	}
	return 4 + n + 1
}
