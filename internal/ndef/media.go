package ndef

// MimeRecord is any MIME-typed payload. Every implementation can be
// represented in binary form, which is the form the editor works on.
type MimeRecord interface {
	Record
	MimeType() string
	Binary() *BinaryMime
}

type BinaryMime struct {
	ContentType string
	Content     []byte
}

// TextMime is a MIME record whose payload is held as a string.
type TextMime struct {
	ContentType string
	Content     string
}

func (r *BinaryMime) MimeType() string { return r.ContentType }
func (r *BinaryMime) Binary() *BinaryMime {
	return r
}

func (r *TextMime) MimeType() string { return r.ContentType }
func (r *TextMime) Binary() *BinaryMime {
	var content []byte
	if r.Content != "" {
		content = []byte(r.Content)
	}
	return &BinaryMime{ContentType: r.ContentType, Content: content}
}

type AbsoluteURI struct {
	URI string
}

// AndroidApplication is the "android.com:pkg" external type.
type AndroidApplication struct {
	PackageName string
}

type GenericExternalType struct {
	Domain string
	Type   string
	Data   []byte
}

type Unknown struct {
	Payload []byte
}

type Empty struct{}

// Unsupported keeps the raw parts of a record no variant understands so it
// can be written back unchanged.
type Unsupported struct {
	TNF     byte
	Type    []byte
	ID      []byte
	Payload []byte
}

func (*BinaryMime) Kind() Kind          { return KindMime }
func (*TextMime) Kind() Kind            { return KindMime }
func (*AbsoluteURI) Kind() Kind         { return KindAbsoluteURI }
func (*AndroidApplication) Kind() Kind  { return KindAndroidApplication }
func (*GenericExternalType) Kind() Kind { return KindGenericExternalType }
func (*Unknown) Kind() Kind             { return KindUnknown }
func (*Empty) Kind() Kind               { return KindEmpty }
func (*Unsupported) Kind() Kind         { return KindUnsupported }

func (*BinaryMime) record()          {}
func (*TextMime) record()            {}
func (*AbsoluteURI) record()         {}
func (*AndroidApplication) record()  {}
func (*GenericExternalType) record() {}
func (*Unknown) record()             {}
func (*Empty) record()               {}
func (*Unsupported) record()         {}
