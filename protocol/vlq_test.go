package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestVLQEncodeDecodeInt(t *testing.T) {
	testCases := []int32{
		0, 1, -1, 95, 96, -32, -33,
		127, -127, 128, -128, 1000, -1000,
		65535, -65535, 1000000, -1000000,
		2147483647, -2147483648,
	}

	for _, expected := range testCases {
		encoded := EncodeVLQ(expected)

		data := encoded
		decoded, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}
		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as %v)", expected, decoded, encoded)
		}
		if len(data) != 0 {
			t.Errorf("VLQ decode didn't consume all bytes for value %d: %d bytes remaining", expected, len(data))
		}
	}
}

func TestVLQEncoding(t *testing.T) {
	testCases := []struct {
		v    int32
		want []byte
	}{
		{0, []byte{0x00}},
		{95, []byte{0x5f}},
		{96, []byte{0x80, 0x60}},
		{-1, []byte{0x7f}},
		{-32, []byte{0x60}},
		{-33, []byte{0xff, 0x5f}},
		{1000, []byte{0x87, 0x68}},
		{2147483647, []byte{0x87, 0xff, 0xff, 0xff, 0x7f}},
	}

	for _, tc := range testCases {
		if got := EncodeVLQ(tc.v); !bytes.Equal(got, tc.want) {
			t.Errorf("EncodeVLQ(%d) = % x, want % x", tc.v, got, tc.want)
		}
	}
}

func TestVLQEncodeDecodeUint(t *testing.T) {
	for _, expected := range []uint32{0, 1, 127, 128, 255, 1000, 65535, 1000000, 0xFFFFFFFF} {
		output := NewScratchOutput()
		EncodeVLQUint(output, expected)

		data := output.Result()
		decoded, err := DecodeVLQUint(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}
		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d", expected, decoded)
		}
	}
}

func TestDecodeVLQUints(t *testing.T) {
	output := NewScratchOutput()
	EncodeVLQUint(output, 12)
	EncodeVLQUint(output, 1)

	data := output.Result()
	var pin, level uint32
	if err := DecodeVLQUints(&data, &pin, &level); err != nil {
		t.Fatal(err)
	}
	if pin != 12 || level != 1 {
		t.Errorf("decoded pin=%d level=%d, want 12 1", pin, level)
	}

	if err := DecodeVLQUints(&data, &pin); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
}

func TestVLQBufferTooSmall(t *testing.T) {
	data := []byte{0x80} // continuation byte with nothing after it
	if _, err := DecodeVLQInt(&data); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
}

func TestVLQTooLong(t *testing.T) {
	data := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&data); err != ErrInvalidVLQ {
		t.Errorf("Expected ErrInvalidVLQ, got %v", err)
	}
}
