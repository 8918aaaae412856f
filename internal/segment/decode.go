package segment

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// encodingCandidate pairs a name with its decoder. Tried in order; the first
// clean decode wins.
type encodingCandidate struct {
	name string
	enc  encoding.Encoding
}

// candidateEncodings is the fixed priority list for local text files.
// GB2312 text decodes under GBK (a superset), so both names share a decoder.
var candidateEncodings = []encodingCandidate{
	{"utf-8", nil},
	{"gb18030", simplifiedchinese.GB18030},
	{"gbk", simplifiedchinese.GBK},
	{"gb2312", simplifiedchinese.GBK},
	{"big5", traditionalchinese.Big5},
	{"utf-16", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
}

// DecodeFile reads a file and decodes it with the first candidate encoding
// that produces valid text. Returns the decoded content and the name of the
// winning encoding, or a *DecodeError when every candidate fails.
func DecodeFile(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	for _, c := range candidateEncodings {
		if c.enc == nil {
			if utf8.Valid(data) {
				return string(data), c.name, nil
			}
			continue
		}
		decoded, err := c.enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		// The x/text decoders substitute U+FFFD for undecodable bytes
		// instead of failing; treat any substitution as a failed candidate.
		if strings.ContainsRune(string(decoded), utf8.RuneError) {
			continue
		}
		return string(decoded), c.name, nil
	}

	return "", "", &DecodeError{Path: path}
}
