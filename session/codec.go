package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/exagonbr/portal-auth/permission"
)

const sessionFormatVersion = 1

var errSessionBlobCorrupt = errors.New("session blob corrupt")

func writeShortString(buf *bytes.Buffer, field, value string) error {
	if len(value) > 255 {
		return errors.New(field + " too long")
	}
	buf.WriteByte(byte(len(value)))
	buf.WriteString(value)
	return nil
}

func writeString(buf *bytes.Buffer, field, value string) error {
	if len(value) > 65535 {
		return errors.New(field + " too long")
	}
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(value)))
	buf.Write(l[:])
	buf.WriteString(value)
	return nil
}

func readShortString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", errSessionBlobCorrupt
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return "", errSessionBlobCorrupt
	}
	return string(out), nil
}

func readString(r *bytes.Reader) (string, error) {
	var l [2]byte
	if _, err := io.ReadFull(r, l[:]); err != nil {
		return "", errSessionBlobCorrupt
	}
	out := make([]byte, binary.BigEndian.Uint16(l[:]))
	if _, err := io.ReadFull(r, out); err != nil {
		return "", errSessionBlobCorrupt
	}
	return string(out), nil
}

// Encode serializes a [Session] into the versioned binary wire format
// stored in Redis. SessionID is the Redis key and is not part of the blob.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersion)

	if err := writeShortString(&buf, "userID", s.UserID); err != nil {
		return nil, err
	}
	if err := writeShortString(&buf, "institutionID", s.InstitutionID); err != nil {
		return nil, err
	}
	if err := writeString(&buf, "email", s.Email); err != nil {
		return nil, err
	}
	if err := writeShortString(&buf, "role", s.Role); err != nil {
		return nil, err
	}

	buf.Write(permission.EncodeMask(s.Mask))

	if err := writeShortString(&buf, "ip", s.IP); err != nil {
		return nil, err
	}
	if err := writeString(&buf, "userAgent", s.UserAgent); err != nil {
		return nil, err
	}

	for _, ts := range []int64{s.CreatedAt, s.LastActivityAt, s.ExpiresAt} {
		if err := binary.Write(&buf, binary.BigEndian, ts); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Decode parses a binary session blob produced by [Encode].
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil || version != sessionFormatVersion {
		return nil, errSessionBlobCorrupt
	}

	s := &Session{}

	if s.UserID, err = readShortString(reader); err != nil {
		return nil, err
	}
	if s.InstitutionID, err = readShortString(reader); err != nil {
		return nil, err
	}
	if s.Email, err = readString(reader); err != nil {
		return nil, err
	}
	if s.Role, err = readShortString(reader); err != nil {
		return nil, err
	}

	maskBytes := make([]byte, permission.MaskSize)
	if _, err := io.ReadFull(reader, maskBytes); err != nil {
		return nil, errSessionBlobCorrupt
	}
	s.Mask = permission.DecodeMask(maskBytes)

	if s.IP, err = readShortString(reader); err != nil {
		return nil, err
	}
	if s.UserAgent, err = readString(reader); err != nil {
		return nil, err
	}

	for _, ts := range []*int64{&s.CreatedAt, &s.LastActivityAt, &s.ExpiresAt} {
		if err := binary.Read(reader, binary.BigEndian, ts); err != nil {
			return nil, errSessionBlobCorrupt
		}
	}

	return s, nil
}
