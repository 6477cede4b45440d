package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRequestRoundTrip(t *testing.T) {
	tests := []Request{
		{Kind: ReqGet, Key: "hello"},
		{Kind: ReqSet, Key: "hello", Value: "world"},
		{Kind: ReqRemove, Key: "hello"},
	}
	for _, req := range tests {
		var buf bytes.Buffer
		if err := WriteRequest(&buf, req); err != nil {
			t.Fatalf("WriteRequest() error = %v", err)
		}
		got, err := ReadRequest(&buf)
		if err != nil {
			t.Fatalf("ReadRequest() error = %v", err)
		}
		if diff := cmp.Diff(req, got); diff != "" {
			t.Errorf("ReadRequest() mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestResponseRoundTrip(t *testing.T) {
	tests := []Response{
		OK(),
		OKValue("value1"),
		ErrResponse("Key not found"),
	}
	for _, resp := range tests {
		var buf bytes.Buffer
		if err := WriteResponse(&buf, resp); err != nil {
			t.Fatalf("WriteResponse() error = %v", err)
		}
		got, err := ReadResponse(&buf)
		if err != nil {
			t.Fatalf("ReadResponse() error = %v", err)
		}
		if diff := cmp.Diff(resp, got); diff != "" {
			t.Errorf("ReadResponse() mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestReadRequest_EOF(t *testing.T) {
	var buf bytes.Buffer
	if _, err := ReadRequest(&buf); err != io.EOF {
		t.Errorf("ReadRequest() on empty stream: error = %v, want io.EOF", err)
	}
}

func TestReadRequest_CorruptCRC(t *testing.T) {
	buf := bytes.NewBuffer(EncodeRequest(Request{Kind: ReqSet, Key: "k", Value: "v"}))
	data := buf.Bytes()
	data[6] ^= 0xFF

	if _, err := ReadRequest(bytes.NewReader(data)); err != ErrCorruptMessage {
		t.Errorf("ReadRequest() error = %v, want %v", err, ErrCorruptMessage)
	}
}

func TestReadRequest_Truncated(t *testing.T) {
	full := EncodeRequest(Request{Kind: ReqSet, Key: "k", Value: "v"})
	truncated := full[:len(full)-2]
	if _, err := ReadRequest(bytes.NewReader(truncated)); err != ErrCorruptMessage {
		t.Errorf("ReadRequest() on truncated message: error = %v, want %v", err, ErrCorruptMessage)
	}
}
