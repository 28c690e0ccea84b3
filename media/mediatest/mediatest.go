// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package mediatest builds media.Frame fixtures from PNG-encoded
// pixels for tests that want a real decoded image instead of a
// synthetic buffer, the same role PNG fixtures play in esimov-caire's
// pixel-pipeline tests.
package mediatest

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/nope-engine/ngl/media"
)

// DecodeRGBA decodes src as a PNG and converts it to a single-plane,
// tightly packed, top-left-origin RGBA8 media.Frame.
func DecodeRGBA(src []byte) (media.Frame, error) {
	img, err := png.Decode(bytes.NewReader(src))
	if err != nil {
		return media.Frame{}, fmt.Errorf("mediatest: decode PNG: %w", err)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return media.Frame{
		Format:   media.RGBA,
		Width:    w,
		Height:   h,
		Data:     [][]byte{rgba.Pix},
		Linesize: []int{rgba.Stride},
	}, nil
}
