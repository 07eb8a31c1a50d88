// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging validates uploaded featured images and downsizes them
// for the web. Only formats the decoder understands are accepted, so a
// file that merely claims to be an image is rejected.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/disintegration/imaging"
)

const (
	// MaxWidth is the widest featured image stored; wider uploads are scaled down.
	MaxWidth = 1600

	// MaxPixels rejects decompression bombs before a full decode.
	MaxPixels = 50_000_000

	jpegQuality = 85
)

// ErrNotImage is returned for uploads that cannot be decoded as an image.
var ErrNotImage = errors.New("not a supported image")

// Processed is a web-ready image.
type Processed struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

var formats = map[string]struct {
	format imaging.Format
	ext    string
}{
	"image/jpeg": {imaging.JPEG, ".jpg"},
	"image/png":  {imaging.PNG, ".png"},
	"image/gif":  {imaging.GIF, ".gif"},
}

// Process decodes an uploaded image, applies EXIF orientation, scales it
// down to at most maxWidth pixels wide and re-encodes it in its original
// format. maxWidth <= 0 uses MaxWidth.
func Process(data []byte, maxWidth int) (*Processed, error) {
	if maxWidth <= 0 {
		maxWidth = MaxWidth
	}

	contentType := http.DetectContentType(data)
	f, ok := formats[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrNotImage, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f.format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("imaging: encode: %w", err)
	}

	b := img.Bounds()
	return &Processed{
		Data:        buf.Bytes(),
		ContentType: contentType,
		Ext:         f.ext,
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}
