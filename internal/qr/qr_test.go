package qr

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/promoproof/internal/storage"
)

func TestPayloadAndFilename(t *testing.T) {
	assert.Equal(t, "Reward for material 7 at 20250101_120000", Payload(7, "20250101_120000"))
	assert.Equal(t, "qr_reward_7_20250101_120000.png", Filename(7, "20250101_120000"))
	assert.Equal(t, "qr/qr_reward_7_20250101_120000.png", Key(Filename(7, "20250101_120000")))
}

func TestRenderGeometry(t *testing.T) {
	g := NewGenerator(nil)

	data, err := g.Render(Payload(7, "20250101_120000"))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	b := img.Bounds()
	assert.Equal(t, b.Dx(), b.Dy())
	// Whole number of modules plus the border on both sides
	assert.Zero(t, b.Dx()%DefaultBoxSize)
	modules := b.Dx()/DefaultBoxSize - 2*DefaultBorder
	assert.GreaterOrEqual(t, modules, 21)
	assert.Zero(t, (modules-21)%4, "QR symbols grow in steps of 4 modules")

	// Quiet zone is white, the top-left finder pattern starts black
	assert.Equal(t, color.Gray{Y: 255}, color.GrayModel.Convert(img.At(0, 0)))
	edge := DefaultBorder * DefaultBoxSize
	assert.Equal(t, color.Gray{Y: 0}, color.GrayModel.Convert(img.At(edge, edge)))
	assert.Equal(t, color.Gray{Y: 255}, color.GrayModel.Convert(img.At(edge-1, edge-1)))
}

func TestRenderDeterministic(t *testing.T) {
	g := NewGenerator(nil)

	a, err := g.Render("Reward for material 1 at 20250101_000000")
	require.NoError(t, err)
	b, err := g.Render("Reward for material 1 at 20250101_000000")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateStoresImage(t *testing.T) {
	s, err := storage.NewLocalStorage(t.TempDir(), storage.PrefixQR)
	require.NoError(t, err)
	g := NewGenerator(s)
	ctx := context.Background()

	name, err := g.Generate(ctx, 7, "20250101_120000")
	require.NoError(t, err)
	assert.Equal(t, "qr_reward_7_20250101_120000.png", name)

	rc, err := s.Open(ctx, Key(name))
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}
