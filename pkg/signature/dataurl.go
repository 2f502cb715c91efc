package signature

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

const pngDataURLPrefix = "data:image/png;base64,"

// ErrInvalidImage is returned when an uploaded image cannot be decoded as PNG.
var ErrInvalidImage = errors.New("invalid signature image")

// EncodeDataURL renders PNG bytes as a data URL.
func EncodeDataURL(png []byte) string {
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(png)
}

// DecodeDataURL extracts PNG bytes from a base64 data URL.
func DecodeDataURL(dataURL string) ([]byte, error) {
	dataURL = strings.TrimSpace(dataURL)
	if !strings.HasPrefix(dataURL, pngDataURLPrefix) {
		return nil, fmt.Errorf("%w: expected %s", ErrInvalidImage, strings.TrimSuffix(pngDataURLPrefix, ","))
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[len(pngDataURLPrefix):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return raw, nil
}

// Normalize decodes an uploaded PNG, rejects fully transparent images, and
// re-encodes it so stored artifacts never carry foreign chunks or metadata.
func Normalize(png []byte) ([]byte, error) {
	if err := checkDimensions(png); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(png))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	nrgba := imaging.Clone(img)
	if isBlankNRGBA(nrgba) {
		return nil, ErrNothingDrawn
	}
	var out bytes.Buffer
	if err := imaging.Encode(&out, nrgba, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode signature: %w", err)
	}
	return out.Bytes(), nil
}

// Fit scales an image down to fit within maxWidth x maxHeight, preserving aspect ratio.
func Fit(png []byte, maxWidth, maxHeight int) (image.Image, error) {
	if err := checkDimensions(png); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(png))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	b := img.Bounds()
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return img, nil
	}
	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos), nil
}

// checkDimensions reads only the PNG header and rejects images whose pixel area
// exceeds MaxDevicePixels, so oversized payloads are never decoded.
func checkDimensions(png []byte) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(png))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if format != "png" {
		return fmt.Errorf("%w: unexpected format %s", ErrInvalidImage, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxDevicePixels/cfg.Height {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}
