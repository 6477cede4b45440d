package record

import (
	"bytes"
	"testing"
)

func TestCommand_Size(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want uint32
	}{
		{"set with key and value", Command{Kind: KindSet, Key: "k", Value: "v"}, HeaderSize + 1 + 1},
		{"set empty value", Command{Kind: KindSet, Key: "k"}, HeaderSize + 1},
		{"remove ignores value field", Command{Kind: KindRemove, Key: "k", Value: "ignored"}, HeaderSize + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.Size(); got != tt.want {
				t.Errorf("Size() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []Command{
		{Kind: KindSet, Key: "hello", Value: "world"},
		{Kind: KindSet, Key: "k", Value: ""},
		{Kind: KindRemove, Key: "hello"},
	}
	for _, cmd := range tests {
		buf := Encode(cmd)
		got, err := Decode(buf)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if got.Kind != cmd.Kind || got.Key != cmd.Key {
			t.Errorf("Decode() = %+v, want %+v", got, cmd)
		}
		if cmd.Kind == KindSet && got.Value != cmd.Value {
			t.Errorf("Decode() Value = %q, want %q", got.Value, cmd.Value)
		}
	}
}

func TestDecode_CorruptCRC(t *testing.T) {
	buf := Encode(Command{Kind: KindSet, Key: "k", Value: "v"})
	buf[5] ^= 0xFF
	if _, err := Decode(buf); err != ErrCorruptRecord {
		t.Errorf("Decode() error = %v, want %v", err, ErrCorruptRecord)
	}
}

func TestDecode_InvalidKind(t *testing.T) {
	buf := Encode(Command{Kind: KindSet, Key: "k", Value: "v"})
	buf[4] = 0x7F
	if _, err := Decode(buf); err != ErrInvalidCommand {
		t.Errorf("Decode() error = %v, want %v", err, ErrInvalidCommand)
	}
}

func TestStreamDecoder_Offsets(t *testing.T) {
	cmds := []Command{
		{Kind: KindSet, Key: "a", Value: "1"},
		{Kind: KindSet, Key: "bb", Value: "22"},
		{Kind: KindRemove, Key: "a"},
	}
	var buf []byte
	for _, c := range cmds {
		buf = append(buf, Encode(c)...)
	}

	dec := NewStreamDecoder(bytes.NewReader(buf), 0)
	var prevEnd int64
	for i := 0; i < len(cmds); i++ {
		start, end, got, err := dec.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if start != prevEnd {
			t.Errorf("record %d start = %d, want %d", i, start, prevEnd)
		}
		if got.Kind != cmds[i].Kind || got.Key != cmds[i].Key {
			t.Errorf("record %d = %+v, want %+v", i, got, cmds[i])
		}
		prevEnd = end
	}
	if _, _, _, err := dec.Next(); err == nil {
		t.Errorf("Next() at end of stream: want io.EOF, got nil")
	}
}

func TestStreamDecoder_CorruptTail(t *testing.T) {
	cmd := Encode(Command{Kind: KindSet, Key: "a", Value: "1"})
	buf := append(cmd, []byte{0x00, 0x01, 0x02}...) // truncated trailing record

	dec := NewStreamDecoder(bytes.NewReader(buf), 0)
	if _, _, _, err := dec.Next(); err != nil {
		t.Fatalf("first record: unexpected error %v", err)
	}
	if _, _, _, err := dec.Next(); err != ErrCorruptRecord {
		t.Errorf("trailing garbage: error = %v, want %v", err, ErrCorruptRecord)
	}
}

func TestValidateText(t *testing.T) {
	if _, err := ValidateText(""); err != ErrInvalidText {
		t.Errorf("empty string: error = %v, want %v", err, ErrInvalidText)
	}
	if _, err := ValidateText("\xff\xfe"); err != ErrInvalidText {
		t.Errorf("invalid utf8: error = %v, want %v", err, ErrInvalidText)
	}
	got, err := ValidateText("hello")
	if err != nil || got != "hello" {
		t.Errorf("ValidateText(hello) = %q, %v", got, err)
	}
}

func TestValidateValue(t *testing.T) {
	if got, err := ValidateValue(""); err != nil || got != "" {
		t.Errorf("ValidateValue(\"\") = %q, %v, want \"\", nil", got, err)
	}
	if _, err := ValidateValue("\xff\xfe"); err != ErrInvalidText {
		t.Errorf("ValidateValue(invalid utf8): error = %v, want %v", err, ErrInvalidText)
	}
	if got, err := ValidateValue("world"); err != nil || got != "world" {
		t.Errorf("ValidateValue(world) = %q, %v", got, err)
	}
}
