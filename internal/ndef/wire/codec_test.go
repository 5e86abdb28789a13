package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/ndefsync/internal/ndef"
	"github.com/google/go-cmp/cmp"
)

func TestCodecRoundTripSupportedRecords(t *testing.T) {
	records := []ndef.Record{
		&ndef.Text{Text: "Hello", Locale: "en", Encoding: ndef.EncodingUTF8},
		&ndef.Text{Text: "Grüße", Locale: "de", Encoding: ndef.EncodingUTF16},
		&ndef.URI{URI: "https://www.example.com/tag"},
		&ndef.URI{URI: "geo:0,0"},
		&ndef.Action{Action: ndef.ActionSave},
		&ndef.SmartPoster{
			Title:  &ndef.Text{Text: "Site", Locale: "en", Encoding: ndef.EncodingUTF8},
			URI:    &ndef.URI{URI: "http://example.org"},
			Action: &ndef.Action{Action: ndef.ActionDefault},
		},
		&ndef.BinaryMime{ContentType: "application/octet-stream", Content: []byte{1, 2, 3}},
		&ndef.AbsoluteURI{URI: "urn:example:thing"},
		&ndef.AndroidApplication{PackageName: "com.example.app"},
		&ndef.GenericExternalType{Domain: "example.com", Type: "sensor", Data: []byte("v=1")},
		&ndef.Unknown{Payload: []byte{0xCA, 0xFE}},
		&ndef.Empty{},
	}

	var c Codec
	data, err := c.Encode(records)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := c.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(records, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	records := []ndef.Record{&ndef.URI{URI: "tel:+15551234"}}
	var c Codec
	a, err := c.Encode(records)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := c.Encode(records)
	if err != nil {
		t.Fatalf("encode again: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("encode not deterministic: % x vs % x", a, b)
	}
	want := []byte{FlagMB | FlagME | FlagSR | TNFWellKnown, 1, 10, 'U', 0x05, '+', '1', '5', '5', '5', '1', '2', '3', '4'}
	if !bytes.Equal(a, want) {
		t.Fatalf("unexpected bytes: % x want % x", a, want)
	}
}

func TestEmptyMessage(t *testing.T) {
	var c Codec
	data, err := c.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected zero bytes, got % x", data)
	}
	recs, err := c.Decode(nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
}

func TestLongPayloadUsesFourByteLength(t *testing.T) {
	content := bytes.Repeat([]byte{0x7F}, 400)
	var c Codec
	data, err := c.Encode([]ndef.Record{&ndef.BinaryMime{ContentType: "a/b", Content: content}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if data[0]&FlagSR != 0 {
		t.Fatalf("expected long record header, flags=%#x", data[0])
	}
	got, err := c.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	mime, ok := got[0].(*ndef.BinaryMime)
	if !ok || !bytes.Equal(mime.Content, content) {
		t.Fatalf("unexpected decoded record: %#v", got[0])
	}
}

func TestTextMimeEncodesAsBinary(t *testing.T) {
	var c Codec
	data, err := c.Encode([]ndef.Record{&ndef.TextMime{ContentType: "text/plain", Content: "hi"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := c.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []ndef.Record{&ndef.BinaryMime{ContentType: "text/plain", Content: []byte("hi")}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}
}

func TestUnrecognizedWellKnownPassesThrough(t *testing.T) {
	raw := []RawRecord{{TNF: TNFWellKnown, Type: []byte("Hs"), ID: []byte("id"), Payload: []byte{0x12, 0x00}}}
	data, err := EncodeRaw(raw)
	if err != nil {
		t.Fatalf("encode raw: %v", err)
	}
	var c Codec
	recs, err := c.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	u, ok := recs[0].(*ndef.Unsupported)
	if !ok {
		t.Fatalf("expected unsupported record, got %T", recs[0])
	}
	again, err := c.Encode(recs)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Fatalf("passthrough changed bytes: % x vs % x (%+v)", again, data, u)
	}
}

func TestEncodeRejectsUnwritableKinds(t *testing.T) {
	var c Codec
	_, err := c.Encode([]ndef.Record{&ndef.HandoverSelect{MajorVersion: 1}})
	if !errors.Is(err, ErrUnsupportedRecord) {
		t.Fatalf("expected ErrUnsupportedRecord, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string][]byte{
		"missing MB":      {FlagME | FlagSR | TNFEmpty, 0, 0},
		"truncated":       {FlagMB | FlagME | FlagSR | TNFWellKnown, 1, 5, 'T'},
		"missing ME":      {FlagMB | FlagSR | TNFEmpty, 0, 0},
		"trailing bytes":  {FlagMB | FlagME | FlagSR | TNFEmpty, 0, 0, 0xAA},
		"bad text locale": {FlagMB | FlagME | FlagSR | TNFWellKnown, 1, 2, 'T', 0x05, 'e'},
		"odd utf16":       {FlagMB | FlagME | FlagSR | TNFWellKnown, 1, 2, 'T', 0x80, 'x'},
	}
	var c Codec
	for name, data := range cases {
		if _, err := c.Decode(data); !errors.Is(err, ndef.ErrMalformed) {
			t.Fatalf("%s: expected ErrMalformed, got %v", name, err)
		}
	}
}

func TestDecodeRejectsChunks(t *testing.T) {
	data := []byte{FlagMB | FlagCF | FlagSR | TNFMedia, 1, 1, 'a', 'x'}
	var c Codec
	if _, err := c.Decode(data); !errors.Is(err, ErrChunkedRecord) {
		t.Fatalf("expected ErrChunkedRecord, got %v", err)
	}
}

func TestUTF16LittleEndianBOM(t *testing.T) {
	payload := []byte{0x80, 0xFF, 0xFE, 'h', 0x00, 'i', 0x00}
	rec, err := decodeText(payload)
	if err != nil {
		t.Fatalf("decode text: %v", err)
	}
	if rec.Text != "hi" || rec.Locale != "" || rec.Encoding != ndef.EncodingUTF16 {
		t.Fatalf("unexpected text record: %+v", rec)
	}
}

func TestCompressURIPicksLongestPrefix(t *testing.T) {
	code, rest := compressURI("https://www.example.com")
	if code != 0x02 || rest != "example.com" {
		t.Fatalf("unexpected compression: %#x %q", code, rest)
	}
	code, rest = compressURI("urn:epc:id:abc")
	if code != 0x1E || rest != "abc" {
		t.Fatalf("unexpected compression: %#x %q", code, rest)
	}
	if got := expandURI(0x40, "x"); got != "x" {
		t.Fatalf("reserved code should expand to rest, got %q", got)
	}
}
