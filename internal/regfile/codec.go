// Package regfile reads and writes the text format regedit uses for exported
// keys (.reg files, "Windows Registry Editor Version 5.00").
package regfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/blackwell-systems/regprune/internal/winreg"
)

const (
	Header       = "Windows Registry Editor Version 5.00"
	legacyHeader = "REGEDIT4"

	crlf          = "\r\n"
	maxLineWidth  = 80
	continuation  = `\`
	hexIndent     = "  "
	maxLineBuffer = 16 * 1024 * 1024
)

// ErrMissingHeader is returned by Decode when the first significant line is
// not a .reg header.
var ErrMissingHeader = errors.New("missing .reg header")

// KeyBlock is one bracketed section of a .reg file. Delete marks a
// "[-path]" section, which removes the key and carries no values.
type KeyBlock struct {
	Path   string
	Delete bool
	Values []winreg.Value
}

// SyntaxError reports a malformed line in .reg input.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Encode writes blocks as UTF-16LE text with a byte order mark and CRLF line
// endings, the way regedit exports.
func Encode(w io.Writer, blocks []*KeyBlock) error {
	text := EncodeText(blocks)
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte(text))
	if err != nil {
		return fmt.Errorf("failed to encode .reg text: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write .reg data: %w", err)
	}
	return nil
}

// EncodeText renders blocks as .reg text without transcoding.
func EncodeText(blocks []*KeyBlock) string {
	var b strings.Builder
	b.WriteString(Header + crlf + crlf)
	for _, blk := range blocks {
		if blk.Delete {
			b.WriteString("[-" + blk.Path + "]" + crlf + crlf)
			continue
		}
		b.WriteString("[" + blk.Path + "]" + crlf)
		for _, v := range blk.Values {
			writeValue(&b, v)
		}
		b.WriteString(crlf)
	}
	return b.String()
}

func writeValue(b *strings.Builder, v winreg.Value) {
	name := "@"
	if v.Name != "" {
		name = `"` + escape(v.Name) + `"`
	}
	prefix := name + "="

	switch v.Type {
	case winreg.TypeString:
		if s, ok := plainString(v.Data); ok {
			b.WriteString(prefix + `"` + escape(s) + `"` + crlf)
			return
		}
	case winreg.TypeDWord:
		if len(v.Data) == 4 {
			n, _ := v.Uint32()
			fmt.Fprintf(b, "%sdword:%08x%s", prefix, n, crlf)
			return
		}
	case winreg.TypeBinary:
		writeHex(b, prefix+"hex:", v.Data)
		return
	}
	writeHex(b, fmt.Sprintf("%shex(%x):", prefix, uint32(v.Type)), v.Data)
}

// plainString reports whether data can be written as a quoted literal and
// read back byte for byte.
func plainString(data []byte) (string, bool) {
	s := winreg.DecodeUTF16(data)
	if strings.ContainsAny(s, "\r\n") {
		return "", false
	}
	return s, bytes.Equal(winreg.EncodeUTF16(s), data)
}

func writeHex(b *strings.Builder, prefix string, data []byte) {
	b.WriteString(prefix)
	col := utf8.RuneCountInString(prefix)
	for i, x := range data {
		item := fmt.Sprintf("%02x", x)
		if i < len(data)-1 {
			item += ","
		}
		if i > 0 && col+len(item)+len(continuation) > maxLineWidth {
			b.WriteString(continuation + crlf + hexIndent)
			col = len(hexIndent)
		}
		b.WriteString(item)
		col += len(item)
	}
	b.WriteString(crlf)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Decode parses .reg input. UTF-16 input with a byte order mark and UTF-8
// input (with or without one) are both accepted.
func Decode(r io.Reader) ([]*KeyBlock, error) {
	text := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	sc := bufio.NewScanner(text)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBuffer)

	var (
		blocks    []*KeyBlock
		current   *KeyBlock
		seenHdr   bool
		lineNo    int
		startLine int
		pending   strings.Builder
	)

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())

		// A comment is never continued, even when it ends in a backslash.
		if pending.Len() == 0 && strings.HasPrefix(line, ";") {
			continue
		}

		if pending.Len() > 0 || strings.HasSuffix(line, continuation) {
			if pending.Len() == 0 {
				startLine = lineNo
			}
			if strings.HasSuffix(line, continuation) {
				pending.WriteString(strings.TrimSuffix(line, continuation))
				continue
			}
			pending.WriteString(line)
			line = pending.String()
			pending.Reset()
		} else {
			startLine = lineNo
		}

		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if !seenHdr {
			if line != Header && line != legacyHeader {
				return nil, ErrMissingHeader
			}
			seenHdr = true
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, &SyntaxError{Line: startLine, Msg: fmt.Sprintf("malformed key section %q", line)}
			}
			section := line[1 : len(line)-1]
			if strings.HasPrefix(section, "-") {
				blocks = append(blocks, &KeyBlock{Path: section[1:], Delete: true})
				current = nil
				continue
			}
			current = &KeyBlock{Path: section}
			blocks = append(blocks, current)
			continue
		}

		if current == nil {
			return nil, &SyntaxError{Line: startLine, Msg: "value outside a key section"}
		}
		v, err := parseValueLine(line)
		if err != nil {
			return nil, &SyntaxError{Line: startLine, Msg: err.Error()}
		}
		current.Values = append(current.Values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read .reg data: %w", err)
	}
	if pending.Len() > 0 {
		return nil, &SyntaxError{Line: startLine, Msg: "unterminated continuation"}
	}
	if !seenHdr {
		return nil, ErrMissingHeader
	}
	return blocks, nil
}

func parseValueLine(line string) (winreg.Value, error) {
	var name, payload string
	switch {
	case strings.HasPrefix(line, "@="):
		payload = line[2:]
	case strings.HasPrefix(line, `"`):
		end := closingQuote(line)
		if end < 0 {
			return winreg.Value{}, fmt.Errorf("unterminated value name in %q", line)
		}
		rest := strings.TrimSpace(line[end+1:])
		if !strings.HasPrefix(rest, "=") {
			return winreg.Value{}, fmt.Errorf("missing '=' in %q", line)
		}
		name = unescape(line[1:end])
		payload = rest[1:]
	default:
		return winreg.Value{}, fmt.Errorf("malformed value line %q", line)
	}
	return parsePayload(name, strings.TrimSpace(payload))
}

func parsePayload(name, payload string) (winreg.Value, error) {
	switch {
	case strings.HasPrefix(payload, `"`):
		if len(payload) < 2 || closingQuote(payload) != len(payload)-1 {
			return winreg.Value{}, fmt.Errorf("unterminated string %q", payload)
		}
		return winreg.StringValue(name, unescape(payload[1:len(payload)-1])), nil

	case strings.HasPrefix(payload, "dword:"):
		digits := payload[len("dword:"):]
		n, err := strconv.ParseUint(digits, 16, 32)
		if err != nil || len(digits) != 8 {
			return winreg.Value{}, fmt.Errorf("invalid dword %q", payload)
		}
		return winreg.DWordValue(name, uint32(n)), nil

	case strings.HasPrefix(payload, "hex:"):
		data, err := parseHexList(payload[len("hex:"):])
		if err != nil {
			return winreg.Value{}, err
		}
		return winreg.Value{Name: name, Type: winreg.TypeBinary, Data: data}, nil

	case strings.HasPrefix(payload, "hex("):
		end := strings.Index(payload, "):")
		if end < 0 {
			return winreg.Value{}, fmt.Errorf("malformed hex type in %q", payload)
		}
		typ, err := strconv.ParseUint(payload[len("hex("):end], 16, 32)
		if err != nil {
			return winreg.Value{}, fmt.Errorf("invalid hex type in %q", payload)
		}
		data, err := parseHexList(payload[end+2:])
		if err != nil {
			return winreg.Value{}, err
		}
		return winreg.Value{Name: name, Type: winreg.ValueType(typ), Data: data}, nil

	case payload == "-":
		return winreg.Value{}, fmt.Errorf("value deletion is not supported")
	}
	return winreg.Value{}, fmt.Errorf("unsupported value %q", payload)
}

func parseHexList(s string) ([]byte, error) {
	var out []byte
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte %q", part)
		}
		out = append(out, byte(n))
	}
	return out, nil
}

// closingQuote returns the index of the quote that closes the one at
// position 0, skipping escaped characters, or -1.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
