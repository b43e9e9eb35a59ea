// Package imgio handles image loading and saving for the pipeline:
// multi-frame TIFF decoding for merged captures and format-aware encoding
// for the per-frame outputs.
package imgio

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/tiff"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Load loads a single image from a file path with WebP support.
func Load(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if img, _, err := image.Decode(f); err == nil {
		return img, nil
	}
	if _, err := f.Seek(0, 0); err == nil {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("image: unknown format for %s", path)
}

// LoadFrames decodes every frame of a multi-page TIFF, flattened into
// document order.
func LoadFrames(path string) ([]image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged TIFF: %w", err)
	}
	pages, pageErrs, err := tiff.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode merged TIFF: %w", err)
	}

	var frames []image.Image
	for i, page := range pages {
		for j, frame := range page {
			if len(pageErrs) > i && len(pageErrs[i]) > j && pageErrs[i][j] != nil {
				return nil, fmt.Errorf("failed to decode frame %d: %w", len(frames)+1, pageErrs[i][j])
			}
			frames = append(frames, frame)
		}
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("merged TIFF contains no frames")
	}
	return frames, nil
}

// EncodeFrames writes frames as a multi-page TIFF.
func EncodeFrames(w io.Writer, frames []image.Image) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to encode")
	}
	data, err := encodePages(frames)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write merged TIFF: %w", err)
	}
	return nil
}

// WriteFrames saves frames as a multi-page TIFF file.
func WriteFrames(path string, frames []image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create merged TIFF: %w", err)
	}
	defer f.Close()
	return EncodeFrames(f, frames)
}

// Save saves an image to a file, choosing the encoder from the extension.
// TIFF, PNG, JPEG and GIF go through imaging; WebP uses its own encoder.
func Save(img image.Image, path string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return webp.Encode(f, img, &webp.Options{Lossless: true})
	default:
		return imaging.Save(img, path)
	}
}
