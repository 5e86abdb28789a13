package ndef

import "fmt"

// CarrierTypeFormat is the handover carrier type name format.
type CarrierTypeFormat int

const (
	CarrierFormatUnset CarrierTypeFormat = iota
	CarrierFormatWellKnown
	CarrierFormatMedia
	CarrierFormatAbsoluteURI
	CarrierFormatExternal
)

func (f CarrierTypeFormat) String() string {
	switch f {
	case CarrierFormatUnset:
		return ""
	case CarrierFormatWellKnown:
		return "WellKnown"
	case CarrierFormatMedia:
		return "Media"
	case CarrierFormatAbsoluteURI:
		return "AbsoluteURI"
	case CarrierFormatExternal:
		return "External"
	default:
		return fmt.Sprintf("CarrierTypeFormat(%d)", int(f))
	}
}

type CarrierPowerState int

const (
	PowerStateUnset CarrierPowerState = iota
	PowerStateInactive
	PowerStateActive
	PowerStateActivating
	PowerStateUnknown
)

func (s CarrierPowerState) String() string {
	switch s {
	case PowerStateInactive:
		return "Inactive"
	case PowerStateActive:
		return "Active"
	case PowerStateActivating:
		return "Activating"
	case PowerStateUnknown:
		return "Unknown"
	default:
		return ""
	}
}

type ErrorReason int

const (
	ErrorReasonUnset ErrorReason = iota
	ErrorReasonTemporaryMemoryConstraints
	ErrorReasonPermanentMemoryConstraints
	ErrorReasonCarrierSpecificConstraints
)

func (r ErrorReason) String() string {
	switch r {
	case ErrorReasonTemporaryMemoryConstraints:
		return "TemporaryMemoryConstraints"
	case ErrorReasonPermanentMemoryConstraints:
		return "PermanentMemoryConstraints"
	case ErrorReasonCarrierSpecificConstraints:
		return "CarrierSpecificConstraints"
	default:
		return ""
	}
}

// HandoverCarrier describes a carrier. Which carrier-type field is meaningful
// depends on Format: WellKnown and External use CarrierRecord, Media and
// AbsoluteURI use CarrierName.
type HandoverCarrier struct {
	Format        CarrierTypeFormat
	CarrierRecord Record
	CarrierName   string
	CarrierData   []byte
}

// HasCarrierType reports whether the slot selected by Format is populated.
func (r *HandoverCarrier) HasCarrierType() bool {
	switch r.Format {
	case CarrierFormatWellKnown, CarrierFormatExternal:
		return r.CarrierRecord != nil
	case CarrierFormatMedia, CarrierFormatAbsoluteURI:
		return r.CarrierName != ""
	default:
		return false
	}
}

type HandoverRequest struct {
	MajorVersion        byte
	MinorVersion        byte
	CollisionResolution *CollisionResolution
	AlternativeCarriers []*AlternativeCarrier
}

type HandoverSelect struct {
	MajorVersion        byte
	MinorVersion        byte
	AlternativeCarriers []*AlternativeCarrier
	Error               *Error
}

type AlternativeCarrier struct {
	PowerState              CarrierPowerState
	CarrierDataReference    string
	AuxiliaryDataReferences []string
}

type CollisionResolution struct {
	RandomNumber int
}

type Error struct {
	Reason ErrorReason
	Data   *uint64
}

func (*HandoverCarrier) Kind() Kind     { return KindHandoverCarrier }
func (*HandoverRequest) Kind() Kind     { return KindHandoverRequest }
func (*HandoverSelect) Kind() Kind      { return KindHandoverSelect }
func (*AlternativeCarrier) Kind() Kind  { return KindAlternativeCarrier }
func (*CollisionResolution) Kind() Kind { return KindCollisionResolution }
func (*Error) Kind() Kind               { return KindError }

func (*HandoverCarrier) record()     {}
func (*HandoverRequest) record()     {}
func (*HandoverSelect) record()      {}
func (*AlternativeCarrier) record()  {}
func (*CollisionResolution) record() {}
func (*Error) record()               {}
