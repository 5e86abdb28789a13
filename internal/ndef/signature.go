package ndef

type SignatureType int

const (
	SignatureTypeUnset SignatureType = iota
	// SignatureNotPresent marks the start of a signed record range.
	SignatureNotPresent
	SignatureRSASSAPSSSHA1
	SignatureRSASSAPKCS1v15SHA1
	SignatureDSA
	SignatureECDSA
)

func (s SignatureType) String() string {
	switch s {
	case SignatureNotPresent:
		return "NOT_PRESENT"
	case SignatureRSASSAPSSSHA1:
		return "RSASSA_PSS_SHA_1"
	case SignatureRSASSAPKCS1v15SHA1:
		return "RSASSA_PKCS1_v1_5_WITH_SHA_1"
	case SignatureDSA:
		return "DSA"
	case SignatureECDSA:
		return "ECDSA"
	default:
		return ""
	}
}

type CertificateFormat int

const (
	CertificateFormatUnset CertificateFormat = iota
	CertificateX509
	CertificateX968
)

func (f CertificateFormat) String() string {
	switch f {
	case CertificateX509:
		return "X_509"
	case CertificateX968:
		return "X9_68"
	default:
		return ""
	}
}

// Signature signs the preceding records. The signature value is either
// embedded (Signature) or linked (SignatureURI); the certificate chain
// likewise (Certificates / CertificateURI).
type Signature struct {
	Version           byte
	SignatureType     SignatureType
	Signature         []byte
	SignatureURI      string
	CertificateFormat CertificateFormat
	Certificates      [][]byte
	CertificateURI    string
}

// StartMarker reports whether this record only opens a signed range and
// carries no signature block.
func (r *Signature) StartMarker() bool {
	return r.SignatureType == SignatureNotPresent
}

func (*Signature) Kind() Kind { return KindSignature }
func (*Signature) record()    {}
