package model

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/danmuck/ndefsync/internal/ndef"
)

// Labels used by more than one record kind.
const (
	labelAction  = "Action"
	labelContent = "Content"
	labelURI     = "URI"
	labelType    = "Type"
	unsetMarker  = "-"
)

// MimeTypeSink is told about every MIME content type the projector sees.
type MimeTypeSink interface {
	ObserveMimeType(contentType string)
}

// Projector turns decoded records into record nodes. The zero value is
// usable; MimeTypes is optional.
type Projector struct {
	MimeTypes MimeTypeSink
}

// Project returns a detached record node for rec.
func (p Projector) Project(rec ndef.Record) *RecordNode {
	return p.ProjectInto(rec, nil)
}

// ProjectInto projects rec and appends the result to parent when parent is
// not nil.
func (p Projector) ProjectInto(rec ndef.Record, parent ParentNode) *RecordNode {
	if absent(rec) {
		violate("projecting nil record")
	}
	if m, ok := rec.(ndef.MimeRecord); ok {
		rec = m.Binary()
	}
	node := &RecordNode{record: rec}
	if parent != nil {
		parent.Add(node)
	}
	p.fill(node, rec)
	return node
}

// Represent builds a container over the records in order.
func (p Projector) Represent(records []ndef.Record) *Container {
	c := NewContainer()
	for _, rec := range records {
		p.ProjectInto(rec, c)
	}
	return c
}

func (p Projector) fill(node *RecordNode, rec ndef.Record) {
	switch r := rec.(type) {
	case *ndef.URI:
		addProperty(node, labelURI, r.URI)
	case *ndef.Text:
		addProperty(node, "Text", r.Text)
		addProperty(node, "Locale", r.Locale)
		addProperty(node, "Encoding", r.Encoding.String())
	case *ndef.SmartPoster:
		p.slot(node, "Title", r.Title)
		p.slot(node, labelURI, r.URI)
		p.slot(node, labelAction, r.Action)
	case *ndef.Action:
		addProperty(node, labelAction, r.Action.String())
	case *ndef.BinaryMime:
		if p.MimeTypes != nil && r.ContentType != "" {
			p.MimeTypes.ObserveMimeType(r.ContentType)
		}
		addProperty(node, "Mime-type", r.ContentType)
		addProperty(node, labelContent, BytesLabel(len(r.Content)))
	case *ndef.Unknown:
		addProperty(node, "Payload", BytesLabel(len(r.Payload)))
	case *ndef.AndroidApplication:
		addProperty(node, "Package name", r.PackageName)
	case *ndef.GenericExternalType:
		addProperty(node, "Domain", r.Domain)
		addProperty(node, labelType, r.Type)
		addProperty(node, labelContent, BytesLabel(len(r.Data)))
	case *ndef.AbsoluteURI:
		addProperty(node, labelURI, r.URI)
	case *ndef.HandoverCarrier:
		p.fillHandoverCarrier(node, r)
	case *ndef.HandoverRequest:
		addProperty(node, "Major version", strconv.Itoa(int(r.MajorVersion)))
		addProperty(node, "Minor version", strconv.Itoa(int(r.MinorVersion)))
		cr := r.CollisionResolution
		if cr == nil {
			cr = &ndef.CollisionResolution{}
		}
		p.ProjectInto(cr, node)
		p.alternativeCarriers(node, r.AlternativeCarriers)
	case *ndef.HandoverSelect:
		addProperty(node, "Major version", strconv.Itoa(int(r.MajorVersion)))
		addProperty(node, "Minor version", strconv.Itoa(int(r.MinorVersion)))
		p.alternativeCarriers(node, r.AlternativeCarriers)
		p.slot(node, "Error", r.Error)
	case *ndef.AlternativeCarrier:
		addProperty(node, "Carrier power state", r.PowerState.String())
		addProperty(node, "Carrier data reference", r.CarrierDataReference)
		list := addPropertyList(node, "Auxiliary data references", "Auxiliary data reference #%d")
		for _, ref := range r.AuxiliaryDataReferences {
			list.Add(&PropertyListItem{Value: ref})
		}
	case *ndef.CollisionResolution:
		addProperty(node, "Random number", strconv.Itoa(r.RandomNumber))
	case *ndef.Error:
		addProperty(node, "Error Reason", r.Reason.String())
		data := ""
		if r.Data != nil {
			data = strconv.FormatUint(*r.Data, 16)
		}
		addProperty(node, "Error Data", data)
	case *ndef.GenericControl:
		addProperty(node, "Configuration", strconv.Itoa(int(r.ConfigurationByte)))
		target, action, data := r.Target, r.Action, r.Data
		if target == nil {
			target = &ndef.GcTarget{}
		}
		if action == nil {
			action = &ndef.GcAction{}
		}
		if data == nil {
			data = &ndef.GcData{}
		}
		p.ProjectInto(target, node)
		p.ProjectInto(action, node)
		p.ProjectInto(data, node)
	case *ndef.GcTarget:
		p.slot(node, "Target identifier", r.TargetIdentifier)
	case *ndef.GcAction:
		value := r.Action.String()
		if r.Action == ndef.ActionUnset {
			value = unsetMarker
		}
		addProperty(node, labelAction, value)
		p.slot(node, "ActionRecord", r.ActionRecord)
	case *ndef.GcData:
		for _, nested := range r.Records {
			p.ProjectInto(nested, node)
		}
	case *ndef.Signature:
		p.fillSignature(node, r)
	case *ndef.Empty, *ndef.Unsupported:
		// no fields
	}
}

func (p Projector) fillHandoverCarrier(node *RecordNode, r *ndef.HandoverCarrier) {
	addProperty(node, "Carrier type format", r.Format.String())
	slot := &ParentProperty{Label: "Carrier type"}
	node.Add(slot)
	switch r.Format {
	case ndef.CarrierFormatUnset:
	case ndef.CarrierFormatWellKnown:
		if !absent(r.CarrierRecord) {
			if !r.CarrierRecord.Kind().IsWellKnown() {
				violate("well-known carrier type holds %s record", r.CarrierRecord.Kind())
			}
			p.ProjectInto(r.CarrierRecord, slot)
		}
	case ndef.CarrierFormatExternal:
		if !absent(r.CarrierRecord) {
			switch r.CarrierRecord.(type) {
			case *ndef.GenericExternalType, *ndef.AndroidApplication:
			default:
				violate("external carrier type holds %s record", r.CarrierRecord.Kind())
			}
			p.ProjectInto(r.CarrierRecord, slot)
		}
	case ndef.CarrierFormatMedia:
		slot.Add(&Property{Label: "Media type", Value: r.CarrierName})
	case ndef.CarrierFormatAbsoluteURI:
		slot.Add(&Property{Label: "Absolute URI", Value: r.CarrierName})
	default:
		violate("unknown carrier type format %d", int(r.Format))
	}
	data := ""
	if r.CarrierData != nil {
		data = fmt.Sprintf("%d bytes", len(r.CarrierData))
	}
	addProperty(node, "Carrier data", data)
}

func (p Projector) fillSignature(node *RecordNode, r *ndef.Signature) {
	addProperty(node, "Version", strconv.Itoa(int(r.Version)))
	addProperty(node, "Signature type", orUnset(r.SignatureType.String()))
	if r.StartMarker() {
		return
	}
	value := &ParentProperty{Label: "Signature"}
	node.Add(value)
	if r.SignatureURI != "" {
		value.Add(&Property{Label: labelURI, Value: r.SignatureURI})
	} else if len(r.Signature) > 0 {
		value.Add(&Property{Label: "Embedded value", Value: BytesLabel(len(r.Signature))})
	}
	addProperty(node, "Certificate format", orUnset(r.CertificateFormat.String()))
	chain := addPropertyList(node, "Certificate chain", "Certificate #%d")
	for _, cert := range r.Certificates {
		chain.Add(&PropertyListItem{Value: BytesLabel(len(cert))})
	}
	addProperty(node, "Certificate chain URI", r.CertificateURI)
}

func (p Projector) alternativeCarriers(node *RecordNode, carriers []*ndef.AlternativeCarrier) {
	list := &RecordList{Label: "Alternative carriers"}
	node.Add(list)
	for _, ac := range carriers {
		if ac == nil {
			continue
		}
		p.ProjectInto(ac, list)
	}
}

// slot adds a labeled parent property holding rec's projection. A nil rec,
// typed or not, leaves the slot empty.
func (p Projector) slot(node *RecordNode, label string, rec ndef.Record) {
	pp := &ParentProperty{Label: label}
	node.Add(pp)
	if !absent(rec) {
		p.ProjectInto(rec, pp)
	}
}

// absent reports a nil interface or a nil record pointer inside one.
func absent(rec ndef.Record) bool {
	if rec == nil {
		return true
	}
	v := reflect.ValueOf(rec)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func addProperty(parent ParentNode, label, value string) *Property {
	prop := &Property{Label: label, Value: value}
	parent.Add(prop)
	return prop
}

func addPropertyList(parent ParentNode, label, itemFormat string) *PropertyList {
	list := &PropertyList{Label: label, ItemFormat: itemFormat}
	parent.Add(list)
	return list
}

func orUnset(s string) string {
	if s == "" {
		return unsetMarker
	}
	return s
}

// BytesLabel renders a byte count for display.
func BytesLabel(n int) string {
	if n == 0 {
		return "Zero bytes"
	}
	return fmt.Sprintf("%d bytes", n)
}
