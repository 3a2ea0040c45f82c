// Package imgio converts between image files and tensors for the
// artifact runner.
package imgio

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/5usu/depthgo/internal/tensor"
)

// DefaultMaxEdge caps the long edge of loaded photos. Preprocessing
// resizes to the network resolution anyway, so decoding a full
// camera frame buys nothing but memory.
const DefaultMaxEdge = 1024

// Load decodes a PNG or JPEG file into a [1, 3, H, W] uint8 tensor.
//
// When maxEdge is positive and the image's long edge exceeds it, the
// image is scaled down to fit, preserving aspect ratio.
func Load(path string, maxEdge int) (*tensor.RawTensor, error) {
	//nolint:gosec // G304: the image path comes from the CLI flags
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imgio: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imgio: decode %s: %w", path, err)
	}

	img = capLongEdge(img, maxEdge)
	return toTensor(img)
}

func capLongEdge(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	long := w
	if h > long {
		long = h
	}
	if maxEdge <= 0 || long <= maxEdge {
		return img
	}

	scale := float64(maxEdge) / float64(long)
	outW := int(math.Round(float64(w) * scale))
	outH := int(math.Round(float64(h) * scale))
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func toTensor(img image.Image) (*tensor.RawTensor, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	raw, err := tensor.NewRaw(tensor.Shape{1, 3, h, w}, tensor.Uint8)
	if err != nil {
		return nil, fmt.Errorf("imgio: %w", err)
	}

	data := raw.AsUint8()
	plane := h * w
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := y*w + x
			data[i] = uint8(r >> 8)
			data[plane+i] = uint8(g >> 8)
			data[2*plane+i] = uint8(bl >> 8)
		}
	}
	return raw, nil
}

// SaveDepthPNG writes a [1, 1, H, W] float32 depth map as an 8-bit
// grayscale PNG, min-max normalized so the nearest point is white.
func SaveDepthPNG(path string, depth *tensor.RawTensor) error {
	shape := depth.Shape()
	if len(shape) != 4 || shape[0] != 1 || shape[1] != 1 {
		return fmt.Errorf("imgio: expected depth shape [1, 1, H, W], got %v", shape)
	}
	if depth.DType() != tensor.Float32 {
		return fmt.Errorf("imgio: expected float32 depth, got %s", depth.DType())
	}

	h, w := shape[2], shape[3]
	data := depth.AsFloat32()

	lo, hi := data[0], data[0]
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	scale := float32(0)
	if hi > lo {
		scale = 255 / (hi - lo)
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := (data[y*w+x] - lo) * scale
			img.SetGray(x, y, color.Gray{Y: uint8(v + 0.5)})
		}
	}

	//nolint:gosec // G304: the output path comes from the CLI flags
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imgio: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("imgio: encode %s: %w", path, err)
	}
	return f.Close()
}
