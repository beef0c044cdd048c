package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// CurrentSchemaVersion is the leading byte written by Encode.
const CurrentSchemaVersion = 1

const (
	maxKeyLen   = math.MaxUint8
	maxValueLen = math.MaxUint16
	maxEntries  = math.MaxUint16
)

var errTooManyEntries = errors.New("too many session entries")

// Encode serializes the session values and timestamps. The session ID is not part of
// the blob; stores key blobs by ID.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(CurrentSchemaVersion)

	keys := s.Keys()
	if len(keys) > maxEntries {
		return nil, errTooManyEntries
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(keys))); err != nil {
		return nil, err
	}

	for _, k := range keys {
		v := s.values[k]
		if len(k) == 0 || len(k) > maxKeyLen {
			return nil, fmt.Errorf("invalid session key length %d", len(k))
		}
		if len(v) > maxValueLen {
			return nil, fmt.Errorf("session value for %q too long", k)
		}
		buf.WriteByte(byte(len(k)))
		buf.WriteString(k)
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(v))); err != nil {
			return nil, err
		}
		buf.WriteString(v)
	}

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != CurrentSchemaVersion {
		return nil, fmt.Errorf("unsupported session schema version %d", version)
	}

	var count uint16
	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return nil, err
	}

	s := &Session{values: make(map[string]string, count)}
	for i := 0; i < int(count); i++ {
		keyLen, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}
		if keyLen == 0 {
			return nil, errors.New("empty session key")
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(reader, key); err != nil {
			return nil, err
		}

		var valueLen uint16
		if err := binary.Read(reader, binary.BigEndian, &valueLen); err != nil {
			return nil, err
		}
		value := make([]byte, valueLen)
		if _, err := io.ReadFull(reader, value); err != nil {
			return nil, err
		}
		s.values[string(key)] = string(value)
	}

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes after session blob")
	}

	return s, nil
}
