// Package qr renders reward QR codes for approved evidence and stores them
// as PNG images.
package qr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"path"

	"github.com/boombuler/barcode"
	bqr "github.com/boombuler/barcode/qr"

	"github.com/templui/promoproof/internal/storage"
)

const (
	DefaultBoxSize = 10 // pixels per module
	DefaultBorder  = 5  // quiet zone, in modules
)

// Generator encodes reward payloads and persists the rendered images under
// the qr/ storage prefix.
type Generator struct {
	storage storage.Storage
	boxSize int
	border  int
}

func NewGenerator(s storage.Storage) *Generator {
	return &Generator{
		storage: s,
		boxSize: DefaultBoxSize,
		border:  DefaultBorder,
	}
}

// Payload is the text encoded into the reward QR code.
func Payload(materialID int64, timestamp string) string {
	return fmt.Sprintf("Reward for material %d at %s", materialID, timestamp)
}

// Filename is the deterministic image name for a material/timestamp pair.
func Filename(materialID int64, timestamp string) string {
	return fmt.Sprintf("qr_reward_%d_%s.png", materialID, timestamp)
}

// Key is the storage key of a QR image name.
func Key(filename string) string {
	return path.Join(storage.PrefixQR, filename)
}

// Generate renders the reward code for materialID/timestamp, stores it and
// returns the image filename. An existing image with the same name is replaced.
func (g *Generator) Generate(ctx context.Context, materialID int64, timestamp string) (string, error) {
	img, err := g.Render(Payload(materialID, timestamp))
	if err != nil {
		return "", err
	}

	filename := Filename(materialID, timestamp)
	slog.Debug("generating QR code", "path", Key(filename))

	err = g.storage.Save(ctx, Key(filename), bytes.NewReader(img))
	if err != nil {
		return "", fmt.Errorf("failed to store QR code %s: %w", filename, err)
	}

	slog.Info("generated QR code", "filename", filename)
	return filename, nil
}

// Render encodes payload with medium error correction and returns PNG bytes,
// black modules on white, boxSize pixels per module with a border-module
// quiet zone. The encoder picks the smallest symbol version that fits.
func (g *Generator) Render(payload string) ([]byte, error) {
	code, err := bqr.Encode(payload, bqr.M, bqr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR payload: %w", err)
	}

	var buf bytes.Buffer
	err = png.Encode(&buf, g.rasterize(code))
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR image: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) rasterize(code barcode.Barcode) *image.Gray {
	modules := code.Bounds().Dx()
	size := (modules + 2*g.border) * g.boxSize

	img := image.NewGray(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	black := image.NewUniform(color.Black)
	origin := code.Bounds().Min
	for y := 0; y < modules; y++ {
		for x := 0; x < modules; x++ {
			if !dark(code.At(origin.X+x, origin.Y+y)) {
				continue
			}
			px := (x + g.border) * g.boxSize
			py := (y + g.border) * g.boxSize
			draw.Draw(img, image.Rect(px, py, px+g.boxSize, py+g.boxSize), black, image.Point{}, draw.Src)
		}
	}
	return img
}

func dark(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < 128
}
