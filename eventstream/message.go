package eventstream

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// preludeLen is the byte length of total_len+headers_len, the region
// prelude_crc covers.
const preludeLen = 8

// frameFixedOverhead is the bytes around headers+payload: total_len,
// headers_len, prelude_crc, and the trailing message_crc.
const frameFixedOverhead = 4 + 4 + 4 + 4

// Message is a decoded event-stream frame, carrying the parsed headers
// both as an ordered list and keyed by name, plus the payload.
type Message struct {
	Headers       []Header
	HeadersByName map[string]Value
	Payload       []byte
}

// EncodeMessage builds the §4.8 wire frame: total_len, headers_len,
// prelude_crc (over the first 8 bytes), the header block, the
// payload, and message_crc (over everything preceding it).
func EncodeMessage(headers []Header, payload []byte) ([]byte, error) {
	encodedHeaders, err := EncodeHeaders(headers)
	if err != nil {
		return nil, err
	}

	totalLen := frameFixedOverhead + len(encodedHeaders) + len(payload)
	buf := make([]byte, totalLen)

	binary.BigEndian.PutUint32(buf[0:4], uint32(totalLen))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(encodedHeaders)))
	binary.BigEndian.PutUint32(buf[8:12], crc32.ChecksumIEEE(buf[0:preludeLen]))

	copy(buf[12:12+len(encodedHeaders)], encodedHeaders)
	copy(buf[12+len(encodedHeaders):12+len(encodedHeaders)+len(payload)], payload)

	binary.BigEndian.PutUint32(buf[totalLen-4:totalLen], crc32.ChecksumIEEE(buf[:totalLen-4]))
	return buf, nil
}

// DecodeMessage strictly validates and parses an event frame: total
// length, both CRC32s, a non-negative payload region, and the header
// block itself (via DecodeHeaders, which rejects duplicate names,
// unknown types and truncated values).
func DecodeMessage(data []byte) (Message, error) {
	if len(data) < frameFixedOverhead {
		return Message{}, fmt.Errorf("eventstream: frame shorter than minimum %d bytes", frameFixedOverhead)
	}

	totalLen := int(binary.BigEndian.Uint32(data[0:4]))
	if totalLen != len(data) {
		return Message{}, fmt.Errorf("eventstream: total_len %d does not match frame length %d", totalLen, len(data))
	}

	headersLen := int(binary.BigEndian.Uint32(data[4:8]))
	preludeCRC := binary.BigEndian.Uint32(data[8:12])
	if got := crc32.ChecksumIEEE(data[0:preludeLen]); got != preludeCRC {
		return Message{}, fmt.Errorf("eventstream: prelude CRC mismatch: got %x want %x", got, preludeCRC)
	}

	payloadStart := 12 + headersLen
	payloadEnd := totalLen - 4
	if headersLen < 0 || payloadStart > payloadEnd {
		return Message{}, fmt.Errorf("eventstream: headers_len %d leaves a negative payload region", headersLen)
	}

	messageCRC := binary.BigEndian.Uint32(data[totalLen-4 : totalLen])
	if got := crc32.ChecksumIEEE(data[0 : totalLen-4]); got != messageCRC {
		return Message{}, fmt.Errorf("eventstream: message CRC mismatch: got %x want %x", got, messageCRC)
	}

	headerBlock := data[12:payloadStart]
	ordered, keyed, err := DecodeHeaders(headerBlock)
	if err != nil {
		return Message{}, err
	}

	payload := make([]byte, payloadEnd-payloadStart)
	copy(payload, data[payloadStart:payloadEnd])

	return Message{Headers: ordered, HeadersByName: keyed, Payload: payload}, nil
}
