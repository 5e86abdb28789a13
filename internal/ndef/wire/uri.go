package wire

import "strings"

// uriPrefixes is the URI record identifier code table. Codes past the end
// of the table are reserved and decode as no prefix.
var uriPrefixes = [...]string{
	"",
	"http://www.",
	"https://www.",
	"http://",
	"https://",
	"tel:",
	"mailto:",
	"ftp://anonymous:anonymous@",
	"ftp://ftp.",
	"ftps://",
	"sftp://",
	"smb://",
	"nfs://",
	"ftp://",
	"dav://",
	"news:",
	"telnet://",
	"imap:",
	"rtsp://",
	"urn:",
	"pop:",
	"sip:",
	"sips:",
	"tftp:",
	"btspp://",
	"btl2cap://",
	"btgoep://",
	"tcpobex://",
	"irdaobex://",
	"file://",
	"urn:epc:id:",
	"urn:epc:tag:",
	"urn:epc:pat:",
	"urn:epc:raw:",
	"urn:epc:",
	"urn:nfc:",
}

// compressURI picks the longest matching prefix.
func compressURI(uri string) (byte, string) {
	best := 0
	for code := 1; code < len(uriPrefixes); code++ {
		p := uriPrefixes[code]
		if len(p) > len(uriPrefixes[best]) && strings.HasPrefix(uri, p) {
			best = code
		}
	}
	return byte(best), uri[len(uriPrefixes[best]):]
}

func expandURI(code byte, rest string) string {
	if int(code) >= len(uriPrefixes) {
		return rest
	}
	return uriPrefixes[code] + rest
}
