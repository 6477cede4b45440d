package wire

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

const responseHeaderSize = 4 + 1 + 4 + 1 + 4 + 4 // total + kind + crc + hasValue + valueLen + errLen

func (resp Response) size() uint32 {
	n := uint32(responseHeaderSize)
	if resp.Kind == RespOK && resp.HasValue {
		n += uint32(len(resp.Value))
	}
	if resp.Kind == RespErr {
		n += uint32(len(resp.Err))
	}
	return n
}

// EncodeResponse marshals resp into a fresh self-delimiting buffer.
func EncodeResponse(resp Response) []byte {
	total := resp.size()
	buf := make([]byte, total)

	var hasValue byte
	var valLen, errLen uint32
	if resp.Kind == RespOK && resp.HasValue {
		hasValue = 1
		valLen = uint32(len(resp.Value))
	}
	if resp.Kind == RespErr {
		errLen = uint32(len(resp.Err))
	}

	binary.BigEndian.PutUint32(buf[0:4], total)
	buf[4] = byte(resp.Kind)
	buf[9] = hasValue
	binary.BigEndian.PutUint32(buf[10:14], valLen)
	binary.BigEndian.PutUint32(buf[14:18], errLen)

	copy(buf[responseHeaderSize:], resp.Value)
	copy(buf[responseHeaderSize+int(valLen):], resp.Err)

	crc := crc32.ChecksumIEEE(buf[4:total])
	binary.BigEndian.PutUint32(buf[5:9], crc)

	return buf
}

// WriteResponse encodes resp and writes it to w in one call.
func WriteResponse(w io.Writer, resp Response) error {
	_, err := w.Write(EncodeResponse(resp))
	if err != nil {
		return fmt.Errorf("wire: write response: %w", err)
	}
	return nil
}

// ReadResponse reads and decodes exactly one response from r.
func ReadResponse(r io.Reader) (Response, error) {
	hdr := make([]byte, responseHeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		if err == io.EOF {
			return Response{}, io.EOF
		}
		return Response{}, ErrCorruptMessage
	}

	total := binary.BigEndian.Uint32(hdr[0:4])
	kind := ResponseKind(hdr[4])
	crc := binary.BigEndian.Uint32(hdr[5:9])
	hasValue := hdr[9] != 0
	valLen := binary.BigEndian.Uint32(hdr[10:14])
	errLen := binary.BigEndian.Uint32(hdr[14:18])

	if kind != RespOK && kind != RespErr {
		return Response{}, ErrInvalidKind
	}
	if total < responseHeaderSize {
		return Response{}, ErrCorruptMessage
	}

	body := make([]byte, int(total)-responseHeaderSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return Response{}, ErrCorruptMessage
	}

	full := make([]byte, total)
	copy(full, hdr)
	copy(full[responseHeaderSize:], body)
	if crc32.ChecksumIEEE(full[4:total]) != crc {
		return Response{}, ErrCorruptMessage
	}
	if uint32(len(body)) < valLen+errLen {
		return Response{}, ErrCorruptMessage
	}

	resp := Response{Kind: kind, HasValue: hasValue}
	if kind == RespOK && hasValue {
		resp.Value = string(body[:valLen])
	}
	if kind == RespErr {
		resp.Err = string(body[valLen : valLen+errLen])
	}
	return resp, nil
}
