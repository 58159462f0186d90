package winreg

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"
)

// ValueType is the raw REG_* type code of a value.
type ValueType uint32

const (
	TypeNone                     ValueType = 0
	TypeString                   ValueType = 1
	TypeExpandString             ValueType = 2
	TypeBinary                   ValueType = 3
	TypeDWord                    ValueType = 4
	TypeDWordBigEndian           ValueType = 5
	TypeLink                     ValueType = 6
	TypeMultiString              ValueType = 7
	TypeResourceList             ValueType = 8
	TypeFullResourceDescriptor   ValueType = 9
	TypeResourceRequirementsList ValueType = 10
	TypeQWord                    ValueType = 11
)

var typeNames = map[ValueType]string{
	TypeNone:                     "REG_NONE",
	TypeString:                   "REG_SZ",
	TypeExpandString:             "REG_EXPAND_SZ",
	TypeBinary:                   "REG_BINARY",
	TypeDWord:                    "REG_DWORD",
	TypeDWordBigEndian:           "REG_DWORD_BIG_ENDIAN",
	TypeLink:                     "REG_LINK",
	TypeMultiString:              "REG_MULTI_SZ",
	TypeResourceList:             "REG_RESOURCE_LIST",
	TypeFullResourceDescriptor:   "REG_FULL_RESOURCE_DESCRIPTOR",
	TypeResourceRequirementsList: "REG_RESOURCE_REQUIREMENTS_LIST",
	TypeQWord:                    "REG_QWORD",
}

func (t ValueType) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("REG_TYPE_%d", uint32(t))
}

// Value is a named registry value with its raw data as stored by Windows.
// The empty name is the key's default value.
type Value struct {
	Name string
	Type ValueType
	Data []byte
}

// StringValue builds a REG_SZ value.
func StringValue(name, s string) Value {
	return Value{Name: name, Type: TypeString, Data: EncodeUTF16(s)}
}

// ExpandStringValue builds a REG_EXPAND_SZ value.
func ExpandStringValue(name, s string) Value {
	return Value{Name: name, Type: TypeExpandString, Data: EncodeUTF16(s)}
}

// MultiStringValue builds a REG_MULTI_SZ value.
func MultiStringValue(name string, ss []string) Value {
	var data []byte
	for _, s := range ss {
		data = append(data, EncodeUTF16(s)...)
	}
	data = append(data, 0, 0)
	return Value{Name: name, Type: TypeMultiString, Data: data}
}

// DWordValue builds a REG_DWORD value.
func DWordValue(name string, v uint32) Value {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, v)
	return Value{Name: name, Type: TypeDWord, Data: data}
}

// QWordValue builds a REG_QWORD value.
func QWordValue(name string, v uint64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, v)
	return Value{Name: name, Type: TypeQWord, Data: data}
}

// BinaryValue builds a REG_BINARY value.
func BinaryValue(name string, data []byte) Value {
	return Value{Name: name, Type: TypeBinary, Data: append([]byte(nil), data...)}
}

// String decodes a REG_SZ or REG_EXPAND_SZ value.
func (v Value) String() (string, error) {
	if v.Type != TypeString && v.Type != TypeExpandString {
		return "", fmt.Errorf("%w: %s is %s", ErrUnexpectedType, v.Name, v.Type)
	}
	return DecodeUTF16(v.Data), nil
}

// Strings decodes a REG_MULTI_SZ value. Empty elements are dropped.
func (v Value) Strings() ([]string, error) {
	if v.Type != TypeMultiString {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnexpectedType, v.Name, v.Type)
	}
	var out []string
	for _, s := range strings.Split(decodeUTF16Raw(v.Data), "\x00") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Uint32 decodes a REG_DWORD or REG_DWORD_BIG_ENDIAN value.
func (v Value) Uint32() (uint32, error) {
	if len(v.Data) != 4 {
		return 0, fmt.Errorf("%w: %s has %d bytes", ErrUnexpectedType, v.Name, len(v.Data))
	}
	switch v.Type {
	case TypeDWord:
		return binary.LittleEndian.Uint32(v.Data), nil
	case TypeDWordBigEndian:
		return binary.BigEndian.Uint32(v.Data), nil
	}
	return 0, fmt.Errorf("%w: %s is %s", ErrUnexpectedType, v.Name, v.Type)
}

// Uint64 decodes a REG_QWORD value.
func (v Value) Uint64() (uint64, error) {
	if v.Type != TypeQWord || len(v.Data) != 8 {
		return 0, fmt.Errorf("%w: %s is %s", ErrUnexpectedType, v.Name, v.Type)
	}
	return binary.LittleEndian.Uint64(v.Data), nil
}

// EncodeUTF16 encodes s as null-terminated UTF-16LE.
func EncodeUTF16(s string) []byte {
	codes := utf16.Encode([]rune(s))
	buf := make([]byte, (len(codes)+1)*2)
	for i, c := range codes {
		binary.LittleEndian.PutUint16(buf[i*2:], c)
	}
	return buf
}

// DecodeUTF16 decodes UTF-16LE data, stopping at the first null.
func DecodeUTF16(data []byte) string {
	s := decodeUTF16Raw(data)
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return s
}

func decodeUTF16Raw(data []byte) string {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	codes := make([]uint16, len(data)/2)
	for i := range codes {
		codes[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return string(utf16.Decode(codes))
}
