package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/5usu/depthgo/internal/export"
)

func writeTestImage(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	path := filepath.Join(dir, "photo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "depth.ptl")
	if _, err := export.Run(export.Options{Model: "midas_small", Size: 16, Out: artifact}); err != nil {
		t.Fatalf("export: %v", err)
	}
	imagePath := writeTestImage(t, dir)
	out := filepath.Join(dir, "depth.png")

	code := run([]string{"-model", artifact, "-image", imagePath, "-out", out})
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("depth map missing: %v", err)
	}
	defer f.Close()
	depth, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if depth.Bounds().Dx() != 16 || depth.Bounds().Dy() != 16 {
		t.Fatalf("depth map bounds = %v, want 16x16", depth.Bounds())
	}
}

func TestRun_MissingArtifact(t *testing.T) {
	dir := t.TempDir()
	imagePath := writeTestImage(t, dir)

	code := run([]string{"-model", filepath.Join(dir, "nope.ptl"), "-image", imagePath})
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestRun_MissingImageFlag(t *testing.T) {
	if code := run([]string{}); code != 1 {
		t.Fatalf("exit code = %d, want 1 when -image is absent", code)
	}
}
