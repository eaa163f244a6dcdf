package ingest

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// marshalASCII marshals v the normal way and then rewrites any non-ASCII
// UTF-8 sequence it contains as a \uXXXX escape (with a surrogate pair
// for runes outside the BMP), so the resulting line is byte-identical
// across locales (§4.6, §8). encoding/json only escapes HTML metacharacters
// by default, never plain non-ASCII text, so this second pass is required
// to get the locale-independence invariant.
func marshalASCII(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalASCII: %w", err)
	}
	return escapeASCII(b), nil
}

func escapeASCII(b []byte) []byte {
	out := make([]byte, 0, len(b)+16)
	for i := 0; i < len(b); {
		c := b[i]
		if c < utf8.RuneSelf {
			out = append(out, c)
			i++
			continue
		}
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			// Invalid byte, pass through rather than corrupt the stream.
			out = append(out, c)
			i++
			continue
		}
		out = appendUnicodeEscape(out, r)
		i += size
	}
	return out
}

func appendUnicodeEscape(out []byte, r rune) []byte {
	const hex = "0123456789abcdef"
	appendUnit := func(u uint16) {
		out = append(out, '\\', 'u',
			hex[(u>>12)&0xF], hex[(u>>8)&0xF], hex[(u>>4)&0xF], hex[u&0xF])
	}
	if r <= 0xFFFF {
		appendUnit(uint16(r))
		return out
	}
	r -= 0x10000
	hi := uint16(0xD800 + (r >> 10))
	lo := uint16(0xDC00 + (r & 0x3FF))
	appendUnit(hi)
	appendUnit(lo)
	return out
}
