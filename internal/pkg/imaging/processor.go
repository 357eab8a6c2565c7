package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
)

// Rendition is a generated image normalised for delivery plus its thumbnail.
type Rendition struct {
	Original    []byte
	Thumbnail   []byte
	ContentType string
	Width       int
	Height      int
}

// Config for image processing
type Config struct {
	MaxSide    int // longest side of the delivered original
	ThumbSide  int // square thumbnail edge
	Quality    int // JPEG quality 1-100
	KeepFormat bool
}

// DefaultConfig returns default processing config
func DefaultConfig() Config {
	return Config{
		MaxSide:   1536,
		ThumbSide: 256,
		Quality:   85,
	}
}

// Processor handles image processing
type Processor struct {
	config Config
}

// NewProcessor creates image processor
func NewProcessor(config Config) *Processor {
	if config.MaxSide <= 0 || config.ThumbSide <= 0 || config.Quality <= 0 {
		config = DefaultConfig()
	}
	return &Processor{config: config}
}

// Process decodes a provider image, bounds it to MaxSide and cuts a
// centre-cropped square thumbnail.
func (p *Processor) Process(data []byte) (*Rendition, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if !p.config.KeepFormat {
		format = "jpeg"
	}

	bounded := img
	b := img.Bounds()
	if b.Dx() > p.config.MaxSide || b.Dy() > p.config.MaxSide {
		bounded = imaging.Fit(img, p.config.MaxSide, p.config.MaxSide, imaging.Lanczos)
	}

	original, err := p.encode(bounded, format)
	if err != nil {
		return nil, fmt.Errorf("failed to encode original: %w", err)
	}

	thumb := imaging.Fill(img, p.config.ThumbSide, p.config.ThumbSide, imaging.Center, imaging.Lanczos)
	thumbnail, err := p.encode(thumb, format)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return &Rendition{
		Original:    original,
		Thumbnail:   thumbnail,
		ContentType: mimeFromFormat(format),
		Width:       bounded.Bounds().Dx(),
		Height:      bounded.Bounds().Dy(),
	}, nil
}

// Extension returns the file extension matching a rendition content type.
func Extension(contentType string) string {
	if contentType == "image/png" {
		return "png"
	}
	return "jpg"
}

func (p *Processor) encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.config.Quality}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func mimeFromFormat(format string) string {
	if format == "png" {
		return "image/png"
	}
	return "image/jpeg"
}
