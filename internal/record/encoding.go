package record

import (
	"encoding/binary"
	"hash/crc32"
)

// MarshalTo writes c into dest and returns the number of bytes written.
// dest must be at least int(c.Size()) long.
func (c Command) MarshalTo(dest []byte) (int, error) {
	total := c.Size()
	if uint32(len(dest)) < total {
		return 0, ErrInsufficientBuffer
	}

	keyLen := uint32(len(c.Key))
	var valLen uint32
	if c.Kind == KindSet {
		valLen = uint32(len(c.Value))
	}

	binary.BigEndian.PutUint32(dest[0:4], total)
	dest[4] = byte(c.Kind)
	// CRC filled in below, once the body is in place.
	binary.BigEndian.PutUint32(dest[9:13], keyLen)
	binary.BigEndian.PutUint32(dest[13:17], valLen)

	copy(dest[HeaderSize:], c.Key)
	if c.Kind == KindSet {
		copy(dest[HeaderSize+int(keyLen):], c.Value)
	}

	// CRC covers everything after TotalSize: Kind, KeySize, ValueSize and body.
	crc := crc32.ChecksumIEEE(dest[4:total])
	binary.BigEndian.PutUint32(dest[5:9], crc)

	return int(total), nil
}

// Encode allocates a fresh buffer and marshals c into it.
func Encode(c Command) []byte {
	buf := make([]byte, c.Size())
	_, _ = c.MarshalTo(buf)
	return buf
}

type header struct {
	totalSize uint32
	kind      Kind
	crc       uint32
	keySize   uint32
	valueSize uint32
}

func parseHeader(src []byte) header {
	return header{
		totalSize: binary.BigEndian.Uint32(src[0:4]),
		kind:      Kind(src[4]),
		crc:       binary.BigEndian.Uint32(src[5:9]),
		keySize:   binary.BigEndian.Uint32(src[9:13]),
		valueSize: binary.BigEndian.Uint32(src[13:17]),
	}
}

// Decode parses a single record from src, which must hold exactly one
// encoded record (no trailing bytes). Used where a record's byte range
// is already known: reading a record back through the index, and by
// StreamDecoder once it has read a whole record off the log.
func Decode(src []byte) (Command, error) {
	if len(src) < HeaderSize {
		return Command{}, ErrCorruptRecord
	}
	h := parseHeader(src)
	if h.kind != KindSet && h.kind != KindRemove {
		return Command{}, ErrInvalidCommand
	}
	if uint32(len(src)) < h.totalSize {
		return Command{}, ErrCorruptRecord
	}

	calculated := crc32.ChecksumIEEE(src[4:h.totalSize])
	if calculated != h.crc {
		return Command{}, ErrCorruptRecord
	}

	keyStart := HeaderSize
	keyEnd := keyStart + int(h.keySize)
	valEnd := keyEnd + int(h.valueSize)
	if uint32(valEnd) > uint32(len(src)) {
		return Command{}, ErrCorruptRecord
	}

	cmd := Command{Kind: h.kind, Key: string(src[keyStart:keyEnd])}
	if h.kind == KindSet {
		cmd.Value = string(src[keyEnd:valEnd])
	}
	return cmd, nil
}
