package importer

import (
	"strings"
	"unicode/utf8"

	"github.com/Zaphodious/oosikle-app/data"
	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
)

// sniffLen is how much of a file is kept for content detection.
const sniffLen = 3072

type headBuffer struct {
	buf   []byte
	limit int
}

func (h *headBuffer) Write(p []byte) (int, error) {
	if room := h.limit - len(h.buf); room > 0 {
		h.buf = append(h.buf, p[:min(room, len(p))]...)
	}
	return len(p), nil
}

// detectEncoding returns the encoding recorded for a file. A known extension
// decides between text and binary; otherwise the content is sniffed. Text that
// is not valid UTF-8 gets the charset chardet considers most likely.
func detectEncoding(name string, head []byte) string {
	text := false
	if ct := data.GetMIMEType(name); ct != data.ContentTypeApplicationStream {
		text = ct.IsText()
	} else {
		for m := mimetype.Detect(head); m != nil; m = m.Parent() {
			if m.Is("text/plain") {
				text = true
				break
			}
		}
	}
	if !text {
		return data.EncodingBinary
	}

	if validUTF8(head, len(head) == sniffLen) {
		return data.EncodingUTF8
	}

	result, err := chardet.NewTextDetector().DetectBest(head)
	if err != nil || result == nil {
		return data.EncodingUTF8
	}
	return strings.ToLower(result.Charset)
}

// validUTF8 tolerates a rune cut off at the end of a truncated sample.
func validUTF8(b []byte, truncated bool) bool {
	if utf8.Valid(b) {
		return true
	}
	if !truncated {
		return false
	}
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.Valid(b[:len(b)-i]) {
			return true
		}
	}
	return false
}
