package frame

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		{0x01},
		{0x01, 0x02, 0x03, 0x04},
		bytes.Repeat([]byte{0x5A}, MaxPayload),
	}
	for _, payload := range payloads {
		encoded, err := Encode(0x16, payload)
		if err != nil {
			t.Fatalf("encode %d bytes: %v", len(payload), err)
		}
		typ, decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("decode %d bytes: %v", len(payload), err)
		}
		if typ != 0x16 {
			t.Fatalf("type mismatch: got 0x%02X", typ)
		}
		if !bytes.Equal(decoded, payload) {
			t.Fatalf("payload mismatch for %d bytes", len(payload))
		}
	}
}

func TestEncodeEmptyPayloadLayout(t *testing.T) {
	encoded, err := Encode(0x20, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(encoded) != Overhead {
		t.Fatalf("frame size: got %d, want %d", len(encoded), Overhead)
	}
	if encoded[0] != Marker0 || encoded[1] != Marker1 {
		t.Fatalf("bad markers: %02X %02X", encoded[0], encoded[1])
	}
	if encoded[2] != 1 || encoded[3] != 0 {
		t.Fatalf("length field: %02X %02X, want 01 00", encoded[2], encoded[3])
	}
	if encoded[4] != 0x20 {
		t.Fatalf("type byte: %02X", encoded[4])
	}
}

func TestEncodePayloadTooLarge(t *testing.T) {
	_, err := Encode(0x10, make([]byte, MaxPayload+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestDecodeTooShort(t *testing.T) {
	_, _, err := Decode([]byte{Marker0, Marker1, 0x01})
	if !errors.Is(err, ErrFrameTooShort) {
		t.Fatalf("expected ErrFrameTooShort, got %v", err)
	}
}

func TestDecodeInvalidStartBytes(t *testing.T) {
	encoded, _ := Encode(0x10, nil)
	encoded[0] = 0x00
	_, _, err := Decode(encoded)
	if !errors.Is(err, ErrInvalidStartBytes) {
		t.Fatalf("expected ErrInvalidStartBytes, got %v", err)
	}
}

func TestDecodeInvalidLength(t *testing.T) {
	encoded, _ := Encode(0x10, nil)
	encoded[2], encoded[3] = 0x00, 0x00 // declared length 0
	if _, _, err := Decode(encoded); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength for 0, got %v", err)
	}
	encoded[2], encoded[3] = 0x02, 0x04 // 1026 > MaxPayload+1
	if _, _, err := Decode(encoded); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength for 1026, got %v", err)
	}
}

func TestDecodeIncompleteFrame(t *testing.T) {
	encoded, _ := Encode(0x10, []byte{1, 2, 3, 4, 5, 6})
	_, _, err := Decode(encoded[:len(encoded)-2])
	if !errors.Is(err, ErrIncompleteFrame) {
		t.Fatalf("expected ErrIncompleteFrame, got %v", err)
	}
}

func TestDecodeDetectsSingleBitCorruption(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x42}
	encoded, err := Encode(0x13, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Flip every bit of the type+payload+CRC region in turn; each must be
	// caught by the trailing CRC.
	for i := 4; i < len(encoded); i++ {
		for bit := 0; bit < 8; bit++ {
			corrupted := make([]byte, len(encoded))
			copy(corrupted, encoded)
			corrupted[i] ^= 1 << bit
			if _, _, err := Decode(corrupted); !errors.Is(err, ErrCrcMismatch) {
				t.Fatalf("byte %d bit %d: expected ErrCrcMismatch, got %v", i, bit, err)
			}
		}
	}
}
