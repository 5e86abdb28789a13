package ndef

// TextEncoding is the text record character encoding.
type TextEncoding int

const (
	EncodingUnset TextEncoding = iota
	EncodingUTF8
	EncodingUTF16
)

func (e TextEncoding) String() string {
	switch e {
	case EncodingUTF8:
		return "UTF-8"
	case EncodingUTF16:
		return "UTF-16"
	default:
		return ""
	}
}

// ActionType is the recommended action of Action and GcAction records.
type ActionType int

const (
	ActionUnset ActionType = iota
	ActionDefault
	ActionSave
	ActionEdit
)

func (a ActionType) String() string {
	switch a {
	case ActionDefault:
		return "DEFAULT_ACTION"
	case ActionSave:
		return "SAVE_FOR_LATER"
	case ActionEdit:
		return "OPEN_FOR_EDITING"
	default:
		return ""
	}
}

// Code returns the one-byte wire value; ok is false for ActionUnset.
func (a ActionType) Code() (byte, bool) {
	if a < ActionDefault || a > ActionEdit {
		return 0, false
	}
	return byte(a - ActionDefault), true
}

// ActionFromCode maps a wire value to its ActionType, or ActionUnset.
func ActionFromCode(b byte) ActionType {
	a := ActionType(b) + ActionDefault
	if a > ActionEdit {
		return ActionUnset
	}
	return a
}

type URI struct {
	URI string
}

type Text struct {
	Text     string
	Locale   string
	Encoding TextEncoding
}

type SmartPoster struct {
	Title  *Text
	URI    *URI
	Action *Action
}

type Action struct {
	Action ActionType
}

// GenericControl carries a configuration byte and its three sub-records.
type GenericControl struct {
	ConfigurationByte byte
	Target            *GcTarget
	Action            *GcAction
	Data              *GcData
}

// GcTarget identifies the control target with a Text or URI record.
type GcTarget struct {
	TargetIdentifier Record
}

type GcAction struct {
	Action       ActionType
	ActionRecord Record
}

type GcData struct {
	Records []Record
}

func (*URI) Kind() Kind            { return KindURI }
func (*Text) Kind() Kind           { return KindText }
func (*SmartPoster) Kind() Kind    { return KindSmartPoster }
func (*Action) Kind() Kind         { return KindAction }
func (*GenericControl) Kind() Kind { return KindGenericControl }
func (*GcTarget) Kind() Kind       { return KindGcTarget }
func (*GcAction) Kind() Kind       { return KindGcAction }
func (*GcData) Kind() Kind         { return KindGcData }

func (*URI) record()            {}
func (*Text) record()           {}
func (*SmartPoster) record()    {}
func (*Action) record()         {}
func (*GenericControl) record() {}
func (*GcTarget) record()       {}
func (*GcAction) record()       {}
func (*GcData) record()         {}
