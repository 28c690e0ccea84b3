// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package mediatest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodeTestPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeRGBA(t *testing.T) {
	want := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	src := encodeTestPNG(t, 4, 3, want)

	f, err := DecodeRGBA(src)
	if err != nil {
		t.Fatalf("DecodeRGBA: %v", err)
	}
	if f.Width != 4 || f.Height != 3 {
		t.Fatalf("Width/Height = %d/%d, want 4/3", f.Width, f.Height)
	}
	if len(f.Data) != 1 {
		t.Fatalf("len(Data) = %d, want 1", len(f.Data))
	}
	stride := f.Linesize[0]
	px := f.Data[0][0*stride+0*4 : 0*stride+0*4+4]
	if px[0] != want.R || px[1] != want.G || px[2] != want.B || px[3] != want.A {
		t.Errorf("pixel(0,0) = %v, want %v", px, want)
	}
}

func TestDecodeRGBAInvalidData(t *testing.T) {
	if _, err := DecodeRGBA([]byte("not a png")); err == nil {
		t.Error("DecodeRGBA with invalid data: want error, got nil")
	}
}
