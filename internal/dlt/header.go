package dlt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	magicPattern       = "DLT\x01"
	magicSize          = 4
	storageHeaderSize  = 12
	standardHeaderSize = 4
	extendedHeaderSize = 10
	optionalFieldSize  = 4

	htypUEH  = 0x01
	htypWEID = 0x04
	htypWSID = 0x08
	htypWTMS = 0x10

	msinVerbose = 0x01
)

var (
	ErrBadMagic    = errors.New("storage header magic \"DLT\\x01\" not found at expected position")
	ErrBadLength   = errors.New("standard header length smaller than the header itself")
	ErrShortHeader = errors.New("message body too short for the fields its header announces")
	ErrTruncated   = errors.New("message truncated by end of file")
	ErrNoMarker    = errors.New("no further storage header marker in file")
)

// frame is one message as laid out on disk, with the payload still raw.
type frame struct {
	offset   int64
	size     int64
	storage  StorageHeader
	standard StandardHeader
	extended *ExtendedHeader
	payload  []byte
}

// decodeFrame decodes the message starting at offset. ErrTruncated means the
// usable data of the file is exhausted; any other error is structural and the
// caller is expected to resynchronize.
func decodeFrame(src dataSource, offset int64) (frame, error) {
	fr := frame{offset: offset}
	lead, err := readExact(src, offset, magicSize+storageHeaderSize+standardHeaderSize)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			// Whatever is left cannot hold a full header; still tell a bad
			// marker apart so a stray tail does not look like a lost message.
			if tail, _ := src.Slice(offset, magicSize); len(tail) == magicSize && string(tail) != magicPattern {
				return fr, ErrBadMagic
			}
			return fr, ErrTruncated
		}
		return fr, err
	}
	if string(lead[:magicSize]) != magicPattern {
		return fr, ErrBadMagic
	}
	fr.storage = decodeStorageHeader(lead[magicSize : magicSize+storageHeaderSize])
	std := lead[magicSize+storageHeaderSize:]
	fr.standard = StandardHeader{
		HTYP:    std[0],
		Counter: std[1],
		Length:  binary.BigEndian.Uint16(std[2:4]),
	}
	remaining := int(fr.standard.Length) - standardHeaderSize
	if remaining < 0 {
		return fr, fmt.Errorf("length %d: %w", fr.standard.Length, ErrBadLength)
	}
	bodyOffset := offset + magicSize + storageHeaderSize + standardHeaderSize
	body, err := readExact(src, bodyOffset, remaining)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fr, fmt.Errorf("body of %d bytes at offset %d: %w", remaining, bodyOffset, ErrTruncated)
		}
		return fr, err
	}
	fr.size = bodyOffset + int64(remaining) - offset
	fr.extended, fr.payload, err = decodeBody(&fr.standard, body)
	if err != nil {
		return fr, err
	}
	return fr, nil
}

func decodeStorageHeader(buf []byte) StorageHeader {
	return StorageHeader{
		Seconds:      binary.LittleEndian.Uint32(buf[0:4]),
		Microseconds: binary.LittleEndian.Uint32(buf[4:8]),
		ECUID:        asciiID(buf[8:12]),
	}
}

// decodeBody walks the optional standard header fields and the extended
// header, filling std in place, and returns what is left as the payload.
func decodeBody(std *StandardHeader, body []byte) (*ExtendedHeader, []byte, error) {
	cursor := 0
	take := func(n int, what string) ([]byte, error) {
		if len(body)-cursor < n {
			return nil, fmt.Errorf("%s needs %d bytes, %d left: %w", what, n, len(body)-cursor, ErrShortHeader)
		}
		field := body[cursor : cursor+n]
		cursor += n
		return field, nil
	}

	if std.HTYP&htypWEID != 0 {
		field, err := take(optionalFieldSize, "ecu id")
		if err != nil {
			return nil, nil, err
		}
		id := asciiID(field)
		std.ECUID = &id
	}
	if std.HTYP&htypWSID != 0 {
		field, err := take(optionalFieldSize, "session id")
		if err != nil {
			return nil, nil, err
		}
		sid := binary.BigEndian.Uint32(field)
		std.SessionID = &sid
	}
	if std.HTYP&htypWTMS != 0 {
		field, err := take(optionalFieldSize, "timestamp")
		if err != nil {
			return nil, nil, err
		}
		ts := binary.BigEndian.Uint32(field)
		std.Timestamp = &ts
	}

	var ext *ExtendedHeader
	if std.HTYP&htypUEH != 0 {
		field, err := take(extendedHeaderSize, "extended header")
		if err != nil {
			return nil, nil, err
		}
		ext = &ExtendedHeader{
			MessageInfo: field[0],
			NumArgs:     field[1],
			AppID:       asciiID(field[2:6]),
			ContextID:   asciiID(field[6:10]),
		}
	}
	return ext, body[cursor:], nil
}

// asciiID renders a fixed 4-byte identifier, keeping printable ASCII only.
func asciiID(raw []byte) string {
	var b strings.Builder
	for _, c := range raw {
		if c >= 0x20 && c <= 0x7E {
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}
