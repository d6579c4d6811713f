package physobx

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/tiff"
)

// ImageFormat selects the encoder used by SaveImage.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatTIFF ImageFormat = "tiff"
	FormatBMP  ImageFormat = "bmp"
)

// FormatFromPath picks an encoder from the file extension.
func FormatFromPath(path string) (ImageFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	case ".bmp":
		return FormatBMP, nil
	}
	return "", fmt.Errorf("unsupported image extension %q: %w", filepath.Ext(path), ErrInvalidConfig)
}

// EncodeImage writes img to w in format.
func EncodeImage(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatBMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("unsupported image format %q: %w", format, ErrInvalidConfig)
}

// StampLabel draws text in the top-left corner of img over a dark box.
func StampLabel(img *image.RGBA, text string) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.RGBA{240, 240, 240, 255}), Face: face}
	width := d.MeasureString(text).Ceil()
	m := face.Metrics()
	box := image.Rect(0, 0, width+8, (m.Ascent + m.Descent).Ceil()+6).Intersect(img.Rect)
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			o := img.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				img.Pix[o+c] /= 3
			}
		}
	}
	d.Dot = fixed.Point26_6{X: fixed.I(4), Y: m.Ascent + fixed.I(3)}
	d.DrawString(text)
}

// SavePNG renders snap and writes it to path as PNG.
func (r *Renderer) SavePNG(snap *FrameSnapshot, path string) error {
	return r.saveAs(snap, path, FormatPNG)
}

// SaveImage renders snap and writes it to path, choosing the encoder from
// the extension (.png, .tif, .tiff or .bmp).
func (r *Renderer) SaveImage(snap *FrameSnapshot, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return r.saveAs(snap, path, format)
}

func (r *Renderer) saveAs(snap *FrameSnapshot, path string, format ImageFormat) error {
	img, err := r.RenderImage(snap)
	if err != nil {
		return err
	}
	r.mu.Lock()
	label := r.label
	r.mu.Unlock()
	StampLabel(img, label)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodeImage(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	r.logger.Debugf("wrote %s", path)
	return nil
}
