// Package ndef owns the closed set of decoded NDEF record variants.
//
// Ownership boundary:
// - record variant structs and their field-presence semantics
//
// - the Kind enumeration and well-known classification
//
// - the Codec collaborator contract (encode/decode lives elsewhere)
//
// Optional fields are absent when they hold their zero value: empty string,
// nil slice, nil pointer, or an enum's Unset member.
package ndef

import (
	"errors"
	"fmt"
)

// Record is one decoded NDEF record. The set of implementations is closed;
// switch on the concrete type and treat the default branch as a bug.
type Record interface {
	Kind() Kind
	record()
}

// Kind tags a record variant.
type Kind int

const (
	KindUnset Kind = iota
	KindURI
	KindText
	KindSmartPoster
	KindAction
	KindMime
	KindUnknown
	KindAndroidApplication
	KindGenericExternalType
	KindAbsoluteURI
	KindHandoverCarrier
	KindHandoverRequest
	KindHandoverSelect
	KindAlternativeCarrier
	KindCollisionResolution
	KindError
	KindEmpty
	KindGenericControl
	KindGcTarget
	KindGcAction
	KindGcData
	KindUnsupported
	KindSignature
)

var kindNames = [...]string{
	KindUnset:               "Unset",
	KindURI:                 "URI",
	KindText:                "Text",
	KindSmartPoster:         "Smart Poster",
	KindAction:              "Action",
	KindMime:                "MIME",
	KindUnknown:             "Unknown",
	KindAndroidApplication:  "Android Application",
	KindGenericExternalType: "External Type",
	KindAbsoluteURI:         "Absolute URI",
	KindHandoverCarrier:     "Handover Carrier",
	KindHandoverRequest:     "Handover Request",
	KindHandoverSelect:      "Handover Select",
	KindAlternativeCarrier:  "Alternative Carrier",
	KindCollisionResolution: "Collision Resolution",
	KindError:               "Error",
	KindEmpty:               "Empty",
	KindGenericControl:      "Generic Control",
	KindGcTarget:            "Generic Control Target",
	KindGcAction:            "Generic Control Action",
	KindGcData:              "Generic Control Data",
	KindUnsupported:         "Unsupported",
	KindSignature:           "Signature",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsWellKnown reports whether records of this kind use the NFC Forum
// well-known type name format.
func (k Kind) IsWellKnown() bool {
	switch k {
	case KindURI, KindText, KindSmartPoster, KindAction,
		KindHandoverCarrier, KindHandoverRequest, KindHandoverSelect,
		KindAlternativeCarrier, KindCollisionResolution, KindError,
		KindGenericControl, KindGcTarget, KindGcAction, KindGcData,
		KindSignature:
		return true
	default:
		return false
	}
}

// Codec is the binary wire collaborator. Implementations must be
// deterministic and report malformed input as an error wrapping ErrMalformed.
type Codec interface {
	Encode(records []Record) ([]byte, error)
	Decode(data []byte) ([]Record, error)
}

var ErrMalformed = errors.New("ndef: malformed message")
