package spss

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// textDecoder turns the raw bytes of names, labels and string values into
// UTF-8.
type textDecoder struct {
	name string
	enc  encoding.Encoding // nil means UTF-8 with a Windows-1252 fallback
}

// newTextDecoder picks the decoder for a character encoding name (extension
// record 20) or, when that is absent, a code page number (extension record 3).
func newTextDecoder(name string, codePage int32) textDecoder {
	if name == "" && codePage != 0 {
		name = codePageName(codePage)
	}
	if name == "" {
		return textDecoder{}
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return textDecoder{name: name}
	}
	if canonical, err := htmlindex.Name(enc); err == nil && canonical == "utf-8" {
		return textDecoder{name: canonical}
	}
	return textDecoder{name: name, enc: enc}
}

// decode converts p to UTF-8. Without a declared encoding, invalid UTF-8 is
// read as Windows-1252, the code page of most legacy Spanish-language files.
func (d textDecoder) decode(p []byte) string {
	if d.enc == nil {
		if utf8.Valid(p) {
			return string(p)
		}
		return decodeWith(charmap.Windows1252, p)
	}
	return decodeWith(d.enc, p)
}

func decodeWith(enc encoding.Encoding, p []byte) string {
	out, err := enc.NewDecoder().Bytes(p)
	if err != nil {
		return strings.ToValidUTF8(string(p), "�")
	}
	return string(out)
}

// codePageName maps the character code of the machine integer record.
func codePageName(cp int32) string {
	switch {
	case cp == 65001:
		return "utf-8"
	case cp == 20127, cp == 2:
		return "us-ascii"
	case cp == 28591:
		return "iso-8859-1"
	case cp >= 28592 && cp <= 28606:
		return fmt.Sprintf("iso-8859-%d", cp-28590)
	case cp >= 1250 && cp <= 1258:
		return fmt.Sprintf("windows-%d", cp)
	case cp == 437, cp == 850, cp == 852, cp == 866:
		return fmt.Sprintf("ibm%d", cp)
	default:
		return ""
	}
}
