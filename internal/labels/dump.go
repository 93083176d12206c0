package labels

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"hash/crc32"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/errors"
)

// MagicBytes identifies a label dump ("AGSD").
const (
	MagicBytes    uint32 = 0x41475344
	FormatVersion uint32 = 1
	HeaderSize    int    = 32
	FooterSize    int    = 8
)

// Kind tells which map a dump holds.
type Kind uint32

const (
	KindGenders Kind = iota + 1
	KindAuthorSet
)

func (k Kind) String() string {
	switch k {
	case KindGenders:
		return "genders"
	case KindAuthorSet:
		return "author-set"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

// DumpHeader is the fixed header written at the start of every dump.
type DumpHeader struct {
	Magic       uint32
	Version     uint32
	Kind        Kind
	Count       uint32
	CreatedAt   int64
	PayloadSize int64
}

// encodeDump serialises value (Genders or AuthorSet) into the dump layout:
// header, gob payload, then a footer holding the payload CRC32.
func encodeDump(kind Kind, count int, value any) ([]byte, error) {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(value); err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", kind, err)
	}
	out := make([]byte, HeaderSize, HeaderSize+payload.Len()+FooterSize)
	binary.LittleEndian.PutUint32(out[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(out[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(out[8:12], uint32(kind))
	binary.LittleEndian.PutUint32(out[12:16], uint32(count))
	binary.LittleEndian.PutUint64(out[16:24], uint64(time.Now().Unix()))
	binary.LittleEndian.PutUint64(out[24:32], uint64(payload.Len()))
	out = append(out, payload.Bytes()...)

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(payload.Bytes()))
	binary.LittleEndian.PutUint32(footer[4:8], uint32(count))
	return append(out, footer...), nil
}

// decodeDump validates data as a dump of the wanted kind and decodes its
// payload into into. Any structural problem is reported as ErrCacheCorrupt.
func decodeDump(data []byte, want Kind, into any) (DumpHeader, error) {
	if len(data) < HeaderSize+FooterSize {
		return DumpHeader{}, corrupt("dump too short: %d bytes", len(data))
	}
	header := DumpHeader{
		Magic:       binary.LittleEndian.Uint32(data[0:4]),
		Version:     binary.LittleEndian.Uint32(data[4:8]),
		Kind:        Kind(binary.LittleEndian.Uint32(data[8:12])),
		Count:       binary.LittleEndian.Uint32(data[12:16]),
		CreatedAt:   int64(binary.LittleEndian.Uint64(data[16:24])),
		PayloadSize: int64(binary.LittleEndian.Uint64(data[24:32])),
	}
	if header.Magic != MagicBytes {
		return header, corrupt("bad magic bytes %x", header.Magic)
	}
	if header.Version != FormatVersion {
		return header, corrupt("unsupported dump version %d", header.Version)
	}
	if header.Kind != want {
		return header, corrupt("dump holds %s, want %s", header.Kind, want)
	}
	if header.PayloadSize != int64(len(data)-HeaderSize-FooterSize) {
		return header, corrupt("payload size %d does not match file", header.PayloadSize)
	}
	payload := data[HeaderSize : HeaderSize+int(header.PayloadSize)]
	footer := data[HeaderSize+int(header.PayloadSize):]
	if sum := binary.LittleEndian.Uint32(footer[0:4]); sum != crc32.ChecksumIEEE(payload) {
		return header, corrupt("checksum mismatch")
	}
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(into); err != nil {
		return header, corrupt("decoding payload: %v", err)
	}
	return header, nil
}

func corrupt(format string, args ...any) error {
	return apperrors.Newf(apperrors.ErrCacheCorrupt, apperrors.ExitBadCache, format, args...)
}
