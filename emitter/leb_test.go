package emitter

import (
	"reflect"
	"testing"
)

func TestEncodeULEB128(t *testing.T) {
	tests := []struct {
		in   uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{624485, []byte{0xe5, 0x8e, 0x26}},
	}
	for _, tt := range tests {
		got := encodeULEB128(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("encodeULEB128(%d) = % X, want % X", tt.in, got, tt.want)
		}
	}
}

func TestEncodeSLEB128(t *testing.T) {
	tests := []struct {
		in   int64
		want []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x7f}},
		{63, []byte{0x3f}},
		{-123456, []byte{0xc0, 0xbb, 0x78}},
	}
	for _, tt := range tests {
		got := encodeSLEB128(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("encodeSLEB128(%d) = % X, want % X", tt.in, got, tt.want)
		}
	}
}

func TestLittleEndian(t *testing.T) {
	got := littleEndian(0x01020304, 4)
	want := []byte{0x04, 0x03, 0x02, 0x01}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("littleEndian(0x01020304, 4) = % X, want % X", got, want)
	}
}
