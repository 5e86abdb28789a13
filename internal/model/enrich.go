package model

import (
	"crypto/x509"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/danmuck/ndefsync/internal/ndef"
)

// NotAvailable is shown when best-effort enrichment has nothing to add.
const NotAvailable = "not available"

const previewLimit = 64

// CertificateSummary parses one DER certificate for display.
func CertificateSummary(der []byte) (string, bool) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return NotAvailable, false
	}
	return fmt.Sprintf("subject=%q issuer=%q not_after=%s",
		cert.Subject.String(), cert.Issuer.String(), cert.NotAfter.UTC().Format("2006-01-02")), true
}

// TextPreview returns the start of a text/* payload.
func TextPreview(contentType string, content []byte) (string, bool) {
	if !strings.HasPrefix(contentType, "text/") || len(content) == 0 || !utf8.Valid(content) {
		return NotAvailable, false
	}
	s := string(content)
	if utf8.RuneCountInString(s) <= previewLimit {
		return s, true
	}
	return string([]rune(s)[:previewLimit]) + "...", true
}

// Describe returns enrichment for a node, or "" when the node is not one
// that has any. Failures come back as NotAvailable.
func Describe(n Node) string {
	switch node := n.(type) {
	case *PropertyListItem:
		rec := RecordOf(node)
		if rec == nil {
			return ""
		}
		sig, ok := rec.Record().(*ndef.Signature)
		if !ok || sig.CertificateFormat != ndef.CertificateX509 {
			return ""
		}
		i := ParentIndex(node)
		if i < 0 || i >= len(sig.Certificates) {
			return NotAvailable
		}
		s, _ := CertificateSummary(sig.Certificates[i])
		return s
	case *Property:
		if node.Label != labelContent {
			return ""
		}
		rec := RecordOf(node)
		if rec == nil {
			return ""
		}
		mime, ok := rec.Record().(*ndef.BinaryMime)
		if !ok || !strings.HasPrefix(mime.ContentType, "text/") {
			return ""
		}
		s, _ := TextPreview(mime.ContentType, mime.Content)
		return s
	default:
		return ""
	}
}
