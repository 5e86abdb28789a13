package virtual

import (
	"errors"
	"fmt"

	"github.com/danmuck/ndefsync/internal/ndef/tlv"
	"github.com/danmuck/ndefsync/internal/terminal"
)

// Capability container layout of a Type 2 tag image.
const (
	ccLen       = 4
	ccMagic     = 0xE1
	ccVersion   = 0x10
	ccAccessRW  = 0x00
	ccSizeScale = 8
)

var ErrNotFormatted = errors.New("virtual: tag not formatted")

// ParseImage reads a tag image. A missing or wrong capability container
// means the tag is not formatted, which is not an error. The returned
// message is nil when the tag holds no NDEF message block.
func ParseImage(image []byte) (msg []byte, formatted bool, err error) {
	if len(image) < ccLen || image[0] != ccMagic {
		return nil, false, nil
	}
	blocks, err := tlv.DecodeBlocks(image[ccLen:])
	if err != nil {
		return nil, true, err
	}
	msg, _ = tlv.FindMessage(blocks)
	return msg, true, nil
}

// BuildImage lays out a formatted image with a data area of areaSize bytes.
func BuildImage(areaSize int, msg []byte) ([]byte, error) {
	if need := tlv.WrappedLen(len(msg)); need > areaSize {
		return nil, fmt.Errorf("%w: need %d bytes, area is %d", terminal.ErrCapacity, need, areaSize)
	}
	area, err := tlv.WrapMessage(msg)
	if err != nil {
		return nil, err
	}
	out := make([]byte, ccLen, ccLen+areaSize)
	out[0] = ccMagic
	out[1] = ccVersion
	out[2] = byte(min(areaSize/ccSizeScale, 0xFF))
	out[3] = ccAccessRW
	out = append(out, area...)
	return out, nil
}

// maxMessage is the largest message whose TLV fits areaSize.
func maxMessage(areaSize int) int {
	n := areaSize - tlv.WrappedLen(0)
	if n < 0xFF {
		return max(n, 0)
	}
	n = areaSize - tlv.WrappedLen(0xFF) + 0xFF
	return max(n, 0xFE)
}
