package wire

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

const requestHeaderSize = 4 + 1 + 4 + 4 + 4 // total + kind + crc + keyLen + valueLen

// size returns the encoded size of r in bytes.
func (r Request) size() uint32 {
	n := uint32(requestHeaderSize) + uint32(len(r.Key))
	if r.Kind == ReqSet {
		n += uint32(len(r.Value))
	}
	return n
}

// EncodeRequest marshals r into a fresh self-delimiting buffer.
func EncodeRequest(r Request) []byte {
	total := r.size()
	buf := make([]byte, total)

	keyLen := uint32(len(r.Key))
	var valLen uint32
	if r.Kind == ReqSet {
		valLen = uint32(len(r.Value))
	}

	binary.BigEndian.PutUint32(buf[0:4], total)
	buf[4] = byte(r.Kind)
	binary.BigEndian.PutUint32(buf[9:13], keyLen)
	binary.BigEndian.PutUint32(buf[13:17], valLen)

	copy(buf[requestHeaderSize:], r.Key)
	if r.Kind == ReqSet {
		copy(buf[requestHeaderSize+int(keyLen):], r.Value)
	}

	crc := crc32.ChecksumIEEE(buf[4:total])
	binary.BigEndian.PutUint32(buf[5:9], crc)

	return buf
}

// WriteRequest encodes r and writes it to w in one call.
func WriteRequest(w io.Writer, r Request) error {
	_, err := w.Write(EncodeRequest(r))
	if err != nil {
		return fmt.Errorf("wire: write request: %w", err)
	}
	return nil
}

// ReadRequest reads and decodes exactly one request from r.
func ReadRequest(r io.Reader) (Request, error) {
	hdr := make([]byte, requestHeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		if err == io.EOF {
			return Request{}, io.EOF
		}
		return Request{}, ErrCorruptMessage
	}

	total := binary.BigEndian.Uint32(hdr[0:4])
	kind := RequestKind(hdr[4])
	crc := binary.BigEndian.Uint32(hdr[5:9])
	keyLen := binary.BigEndian.Uint32(hdr[9:13])
	valLen := binary.BigEndian.Uint32(hdr[13:17])

	if kind != ReqGet && kind != ReqSet && kind != ReqRemove {
		return Request{}, ErrInvalidKind
	}
	if total < requestHeaderSize {
		return Request{}, ErrCorruptMessage
	}

	body := make([]byte, int(total)-requestHeaderSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return Request{}, ErrCorruptMessage
	}

	full := make([]byte, total)
	copy(full, hdr)
	copy(full[requestHeaderSize:], body)
	if crc32.ChecksumIEEE(full[4:total]) != crc {
		return Request{}, ErrCorruptMessage
	}

	if uint32(len(body)) < keyLen+valLen {
		return Request{}, ErrCorruptMessage
	}

	req := Request{Kind: kind, Key: string(body[:keyLen])}
	if kind == ReqSet {
		req.Value = string(body[keyLen : keyLen+valLen])
	}
	return req, nil
}
