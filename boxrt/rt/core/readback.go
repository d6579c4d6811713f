package core

import "fmt"

// CopyRowAlignment is the row pitch alignment of texture-to-buffer copies.
const CopyRowAlignment = 256

// PaddedBytesPerRow returns the aligned row pitch of an RGBA8 image.
func PaddedBytesPerRow(width uint32) uint32 {
	return (width*4 + CopyRowAlignment - 1) &^ (CopyRowAlignment - 1)
}

// StripRowPadding copies height rows of width*4 bytes out of a buffer whose
// rows are pitch bytes apart, producing a tightly packed RGBA8 image.
func StripRowPadding(src []byte, width, height, pitch uint32) ([]byte, error) {
	row := width * 4
	if pitch < row {
		return nil, fmt.Errorf("row pitch %d smaller than row size %d", pitch, row)
	}
	if height > 0 && uint64(len(src)) < uint64(pitch)*uint64(height-1)+uint64(row) {
		return nil, fmt.Errorf("readback buffer holds %d bytes, need %d rows of pitch %d", len(src), height, pitch)
	}
	out := make([]byte, int(row)*int(height))
	for y := uint32(0); y < height; y++ {
		copy(out[y*row:(y+1)*row], src[y*pitch:y*pitch+row])
	}
	return out, nil
}
