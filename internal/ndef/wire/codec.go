package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/danmuck/ndefsync/internal/ndef"
)

// Well-known record type names.
const (
	typeText        = "T"
	typeURI         = "U"
	typeSmartPoster = "Sp"
	typeAction      = "act"
	androidAppType  = "android.com:pkg"
)

const (
	textUTF16Bit   byte = 0x80
	textLocaleMask byte = 0x3F
)

// Codec implements ndef.Codec. The zero value is ready to use.
type Codec struct{}

var _ ndef.Codec = Codec{}

func (Codec) Encode(records []ndef.Record) ([]byte, error) {
	raw, err := toRawRecords(records)
	if err != nil {
		return nil, err
	}
	return EncodeRaw(raw)
}

func (Codec) Decode(data []byte) ([]ndef.Record, error) {
	raw, err := DecodeRaw(data)
	if err != nil {
		return nil, err
	}
	return fromRawRecords(raw)
}

func toRawRecords(records []ndef.Record) ([]RawRecord, error) {
	out := make([]RawRecord, 0, len(records))
	for i, rec := range records {
		r, err := toRaw(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func toRaw(rec ndef.Record) (RawRecord, error) {
	switch r := rec.(type) {
	case *ndef.Empty:
		return RawRecord{TNF: TNFEmpty}, nil
	case *ndef.Text:
		return RawRecord{TNF: TNFWellKnown, Type: []byte(typeText), Payload: encodeText(r)}, nil
	case *ndef.URI:
		code, rest := compressURI(r.URI)
		return RawRecord{TNF: TNFWellKnown, Type: []byte(typeURI), Payload: append([]byte{code}, rest...)}, nil
	case *ndef.Action:
		return RawRecord{TNF: TNFWellKnown, Type: []byte(typeAction), Payload: encodeAction(r.Action)}, nil
	case *ndef.SmartPoster:
		nested := make([]ndef.Record, 0, 3)
		if r.URI != nil {
			nested = append(nested, r.URI)
		}
		if r.Title != nil {
			nested = append(nested, r.Title)
		}
		if r.Action != nil {
			nested = append(nested, r.Action)
		}
		payload, err := Codec{}.Encode(nested)
		if err != nil {
			return RawRecord{}, fmt.Errorf("smart poster: %w", err)
		}
		return RawRecord{TNF: TNFWellKnown, Type: []byte(typeSmartPoster), Payload: payload}, nil
	case ndef.MimeRecord:
		bin := r.Binary()
		return RawRecord{TNF: TNFMedia, Type: []byte(bin.ContentType), Payload: bin.Content}, nil
	case *ndef.AbsoluteURI:
		return RawRecord{TNF: TNFAbsoluteURI, Type: []byte(r.URI)}, nil
	case *ndef.AndroidApplication:
		return RawRecord{TNF: TNFExternal, Type: []byte(androidAppType), Payload: []byte(r.PackageName)}, nil
	case *ndef.GenericExternalType:
		return RawRecord{TNF: TNFExternal, Type: []byte(r.Domain + ":" + r.Type), Payload: r.Data}, nil
	case *ndef.Unknown:
		return RawRecord{TNF: TNFUnknown, Payload: r.Payload}, nil
	case *ndef.Unsupported:
		return RawRecord{TNF: r.TNF, Type: r.Type, ID: r.ID, Payload: r.Payload}, nil
	case nil:
		return RawRecord{}, fmt.Errorf("%w: nil record", ErrUnsupportedRecord)
	default:
		return RawRecord{}, fmt.Errorf("%w: %s", ErrUnsupportedRecord, rec.Kind())
	}
}

func encodeText(r *ndef.Text) []byte {
	locale := r.Locale
	if len(locale) > int(textLocaleMask) {
		locale = locale[:textLocaleMask]
	}
	status := byte(len(locale))
	var body []byte
	if r.Encoding == ndef.EncodingUTF16 {
		status |= textUTF16Bit
		units := utf16.Encode([]rune(r.Text))
		body = make([]byte, 0, 2*len(units))
		for _, u := range units {
			body = binary.BigEndian.AppendUint16(body, u)
		}
	} else {
		body = []byte(r.Text)
	}
	out := make([]byte, 0, 1+len(locale)+len(body))
	out = append(out, status)
	out = append(out, locale...)
	return append(out, body...)
}

func encodeAction(a ndef.ActionType) []byte {
	code, ok := a.Code()
	if !ok {
		return nil
	}
	return []byte{code}
}

func fromRawRecords(raw []RawRecord) ([]ndef.Record, error) {
	out := make([]ndef.Record, 0, len(raw))
	for i, r := range raw {
		rec, err := fromRaw(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func fromRaw(r RawRecord) (ndef.Record, error) {
	switch r.TNF {
	case TNFEmpty:
		if len(r.Type) != 0 || len(r.Payload) != 0 {
			return nil, malformed("empty record with type or payload")
		}
		return &ndef.Empty{}, nil
	case TNFWellKnown:
		return fromWellKnown(r)
	case TNFMedia:
		return &ndef.BinaryMime{ContentType: string(r.Type), Content: r.Payload}, nil
	case TNFAbsoluteURI:
		return &ndef.AbsoluteURI{URI: string(r.Type)}, nil
	case TNFExternal:
		name := string(r.Type)
		if name == androidAppType {
			return &ndef.AndroidApplication{PackageName: string(r.Payload)}, nil
		}
		domain, typ, _ := strings.Cut(name, ":")
		return &ndef.GenericExternalType{Domain: domain, Type: typ, Data: r.Payload}, nil
	case TNFUnknown:
		return &ndef.Unknown{Payload: r.Payload}, nil
	default:
		return unsupported(r), nil
	}
}

func fromWellKnown(r RawRecord) (ndef.Record, error) {
	switch string(r.Type) {
	case typeText:
		return decodeText(r.Payload)
	case typeURI:
		if len(r.Payload) == 0 {
			return nil, malformed("uri record without identifier code")
		}
		rest := r.Payload[1:]
		if !utf8.Valid(rest) {
			return nil, malformed("uri record is not utf-8")
		}
		return &ndef.URI{URI: expandURI(r.Payload[0], string(rest))}, nil
	case typeAction:
		if len(r.Payload) == 0 {
			return &ndef.Action{}, nil
		}
		return &ndef.Action{Action: ndef.ActionFromCode(r.Payload[0])}, nil
	case typeSmartPoster:
		return decodeSmartPoster(r.Payload)
	default:
		return unsupported(r), nil
	}
}

func decodeText(p []byte) (*ndef.Text, error) {
	if len(p) == 0 {
		return nil, malformed("text record without status byte")
	}
	status := p[0]
	n := int(status & textLocaleMask)
	if len(p) < 1+n {
		return nil, malformed("text locale length %d exceeds payload", n)
	}
	rec := &ndef.Text{Locale: string(p[1 : 1+n])}
	body := p[1+n:]
	if status&textUTF16Bit == 0 {
		rec.Encoding = ndef.EncodingUTF8
		rec.Text = string(body)
		return rec, nil
	}
	rec.Encoding = ndef.EncodingUTF16
	text, err := decodeUTF16(body)
	if err != nil {
		return nil, err
	}
	rec.Text = text
	return rec, nil
}

// decodeUTF16 reads big endian unless a little endian byte order mark is
// present.
func decodeUTF16(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", malformed("odd utf-16 text length %d", len(b))
	}
	order := binary.ByteOrder(binary.BigEndian)
	switch {
	case bytes.HasPrefix(b, []byte{0xFE, 0xFF}):
		b = b[2:]
	case bytes.HasPrefix(b, []byte{0xFF, 0xFE}):
		order = binary.LittleEndian
		b = b[2:]
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = order.Uint16(b[2*i:])
	}
	return string(utf16.Decode(units)), nil
}

func decodeSmartPoster(p []byte) (*ndef.SmartPoster, error) {
	nested, err := Codec{}.Decode(p)
	if err != nil {
		return nil, fmt.Errorf("smart poster: %w", err)
	}
	sp := &ndef.SmartPoster{}
	for _, rec := range nested {
		switch r := rec.(type) {
		case *ndef.URI:
			if sp.URI == nil {
				sp.URI = r
			}
		case *ndef.Text:
			if sp.Title == nil {
				sp.Title = r
			}
		case *ndef.Action:
			if sp.Action == nil {
				sp.Action = r
			}
		}
	}
	return sp, nil
}

func unsupported(r RawRecord) *ndef.Unsupported {
	return &ndef.Unsupported{TNF: r.TNF, Type: r.Type, ID: r.ID, Payload: r.Payload}
}
