// Package eventstream implements the binary event-stream codec (§4.8)
// and the chained per-event signer (§4.9) used by services such as
// Transcribe Streaming. The frame layout and dual-CRC32 scheme are
// grounded on kubernetes/kubernetes's remotecommand StreamSigner
// (stream.go) and nspcc-dev/neofs-s3-gw's equivalent, generalized here
// into a standalone encoder/decoder neither of those examples needed
// (they only ever produce signatures over caller-supplied bytes).
package eventstream

import (
	"encoding/binary"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValueType is the wire discriminant for a header value (§3).
type ValueType byte

const (
	TypeBoolTrue  ValueType = 0
	TypeBoolFalse ValueType = 1
	TypeInt8      ValueType = 2
	TypeInt16     ValueType = 3
	TypeInt32     ValueType = 4
	TypeInt64     ValueType = 5
	TypeBytes     ValueType = 6
	TypeString    ValueType = 7
	TypeTimestamp ValueType = 8
	TypeUUID      ValueType = 9
)

const (
	maxNameLen  = 255
	maxValueLen = 65535
)

// Value is a tagged header value. Exactly the fields relevant to Type
// are meaningful; the constructors below are the intended way to
// build one.
type Value struct {
	Type      ValueType
	Int       int64
	Bytes     []byte
	Str       string
	Timestamp time.Time
	UUID      uuid.UUID
}

func BoolValue(b bool) Value {
	if b {
		return Value{Type: TypeBoolTrue}
	}
	return Value{Type: TypeBoolFalse}
}
func Int8Value(v int8) Value   { return Value{Type: TypeInt8, Int: int64(v)} }
func Int16Value(v int16) Value { return Value{Type: TypeInt16, Int: int64(v)} }
func Int32Value(v int32) Value { return Value{Type: TypeInt32, Int: int64(v)} }
func Int64Value(v int64) Value { return Value{Type: TypeInt64, Int: v} }
func BytesValue(b []byte) Value { return Value{Type: TypeBytes, Bytes: b} }
func StringValue(s string) Value { return Value{Type: TypeString, Str: s} }
func TimestampValue(t time.Time) Value { return Value{Type: TypeTimestamp, Timestamp: t} }
func UUIDValue(u uuid.UUID) Value { return Value{Type: TypeUUID, UUID: u} }

// UUIDValueFromBytes builds a UUID header value from a raw 16-byte
// slice, rejecting anything else — the wire type has no length
// prefix of its own, so malformed input must be caught here rather
// than at decode time.
func UUIDValueFromBytes(b []byte) (Value, error) {
	if len(b) != 16 {
		return Value{}, fmt.Errorf("uuid value must be exactly 16 bytes, got %d", len(b))
	}
	var u uuid.UUID
	copy(u[:], b)
	return Value{Type: TypeUUID, UUID: u}, nil
}

// Bool reports the value if Type is a boolean, else ok is false.
func (v Value) Bool() (bool, bool) {
	switch v.Type {
	case TypeBoolTrue:
		return true, true
	case TypeBoolFalse:
		return false, true
	default:
		return false, false
	}
}

// Header is one name/value pair in the concatenated header block.
type Header struct {
	Name  string
	Value Value
}

// EncodeHeaders serializes an ordered list of headers into the wire
// format §4.8 calls "encode header": name_len:u8 || name_utf8 ||
// type:u8 || value.
func EncodeHeaders(headers []Header) ([]byte, error) {
	var out []byte
	for _, h := range headers {
		if len(h.Name) > maxNameLen {
			return nil, fmt.Errorf("eventstream: header name %q exceeds %d bytes", h.Name, maxNameLen)
		}
		if !utf8.ValidString(h.Name) {
			return nil, fmt.Errorf("eventstream: header name %q is not valid UTF-8", h.Name)
		}
		out = append(out, byte(len(h.Name)))
		out = append(out, h.Name...)
		out = append(out, byte(h.Value.Type))

		encoded, err := encodeValue(h.Value)
		if err != nil {
			return nil, fmt.Errorf("eventstream: header %q: %w", h.Name, err)
		}
		out = append(out, encoded...)
	}
	return out, nil
}

func encodeValue(v Value) ([]byte, error) {
	switch v.Type {
	case TypeBoolTrue, TypeBoolFalse:
		return nil, nil
	case TypeInt8:
		return []byte{byte(int8(v.Int))}, nil
	case TypeInt16:
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, uint16(int16(v.Int)))
		return buf, nil
	case TypeInt32:
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(int32(v.Int)))
		return buf, nil
	case TypeInt64:
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(v.Int))
		return buf, nil
	case TypeBytes:
		if len(v.Bytes) > maxValueLen {
			return nil, fmt.Errorf("binary value exceeds %d bytes", maxValueLen)
		}
		buf := make([]byte, 2+len(v.Bytes))
		binary.BigEndian.PutUint16(buf[:2], uint16(len(v.Bytes)))
		copy(buf[2:], v.Bytes)
		return buf, nil
	case TypeString:
		if len(v.Str) > maxValueLen {
			return nil, fmt.Errorf("string value exceeds %d bytes", maxValueLen)
		}
		if !utf8.ValidString(v.Str) {
			return nil, fmt.Errorf("string value is not valid UTF-8")
		}
		buf := make([]byte, 2+len(v.Str))
		binary.BigEndian.PutUint16(buf[:2], uint16(len(v.Str)))
		copy(buf[2:], v.Str)
		return buf, nil
	case TypeTimestamp:
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(v.Timestamp.UnixMilli()))
		return buf, nil
	case TypeUUID:
		return v.UUID[:], nil
	default:
		return nil, fmt.Errorf("unknown header value type %d", v.Type)
	}
}

// DecodeHeaders parses the concatenated header block produced by
// EncodeHeaders, returning both the ordered-array and keyed-mapping
// views the spec calls for. Duplicate names (case-sensitive), unknown
// type codes, and truncated values are all rejected.
func DecodeHeaders(data []byte) ([]Header, map[string]Value, error) {
	var ordered []Header
	keyed := make(map[string]Value)

	pos := 0
	for pos < len(data) {
		if pos+1 > len(data) {
			return nil, nil, fmt.Errorf("eventstream: truncated header name length")
		}
		nameLen := int(data[pos])
		pos++
		if pos+nameLen > len(data) {
			return nil, nil, fmt.Errorf("eventstream: truncated header name")
		}
		name := string(data[pos : pos+nameLen])
		pos += nameLen
		if !utf8.ValidString(name) {
			return nil, nil, fmt.Errorf("eventstream: header name is not valid UTF-8")
		}
		if _, dup := keyed[name]; dup {
			return nil, nil, fmt.Errorf("eventstream: duplicate header name %q", name)
		}

		if pos+1 > len(data) {
			return nil, nil, fmt.Errorf("eventstream: truncated header type for %q", name)
		}
		typ := ValueType(data[pos])
		pos++

		value, n, err := decodeValue(typ, data[pos:])
		if err != nil {
			return nil, nil, fmt.Errorf("eventstream: header %q: %w", name, err)
		}
		pos += n

		ordered = append(ordered, Header{Name: name, Value: value})
		keyed[name] = value
	}
	return ordered, keyed, nil
}

func decodeValue(typ ValueType, data []byte) (Value, int, error) {
	need := func(n int) error {
		if len(data) < n {
			return fmt.Errorf("truncated value, need %d bytes, have %d", n, len(data))
		}
		return nil
	}
	switch typ {
	case TypeBoolTrue:
		return Value{Type: TypeBoolTrue}, 0, nil
	case TypeBoolFalse:
		return Value{Type: TypeBoolFalse}, 0, nil
	case TypeInt8:
		if err := need(1); err != nil {
			return Value{}, 0, err
		}
		return Value{Type: TypeInt8, Int: int64(int8(data[0]))}, 1, nil
	case TypeInt16:
		if err := need(2); err != nil {
			return Value{}, 0, err
		}
		return Value{Type: TypeInt16, Int: int64(int16(binary.BigEndian.Uint16(data)))}, 2, nil
	case TypeInt32:
		if err := need(4); err != nil {
			return Value{}, 0, err
		}
		return Value{Type: TypeInt32, Int: int64(int32(binary.BigEndian.Uint32(data)))}, 4, nil
	case TypeInt64:
		if err := need(8); err != nil {
			return Value{}, 0, err
		}
		return Value{Type: TypeInt64, Int: int64(binary.BigEndian.Uint64(data))}, 8, nil
	case TypeBytes:
		if err := need(2); err != nil {
			return Value{}, 0, err
		}
		n := int(binary.BigEndian.Uint16(data))
		if err := need(2 + n); err != nil {
			return Value{}, 0, err
		}
		b := make([]byte, n)
		copy(b, data[2:2+n])
		return Value{Type: TypeBytes, Bytes: b}, 2 + n, nil
	case TypeString:
		if err := need(2); err != nil {
			return Value{}, 0, err
		}
		n := int(binary.BigEndian.Uint16(data))
		if err := need(2 + n); err != nil {
			return Value{}, 0, err
		}
		s := string(data[2 : 2+n])
		if !utf8.ValidString(s) {
			return Value{}, 0, fmt.Errorf("string value is not valid UTF-8")
		}
		return Value{Type: TypeString, Str: s}, 2 + n, nil
	case TypeTimestamp:
		if err := need(8); err != nil {
			return Value{}, 0, err
		}
		ms := int64(binary.BigEndian.Uint64(data))
		return Value{Type: TypeTimestamp, Timestamp: time.UnixMilli(ms).UTC()}, 8, nil
	case TypeUUID:
		if err := need(16); err != nil {
			return Value{}, 0, err
		}
		var u uuid.UUID
		copy(u[:], data[:16])
		return Value{Type: TypeUUID, UUID: u}, 16, nil
	default:
		return Value{}, 0, fmt.Errorf("unknown header value type %d", typ)
	}
}
