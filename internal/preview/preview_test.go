package preview

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truck2jbeam/truck2jbeam/internal/config"
	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

func boxRig() *rig.Rig {
	r := rig.New()
	r.Nodes = []*rig.Node{
		rig.NewNode("a", 0, 0, 0),
		rig.NewNode("b", 4, 0, 0),
		rig.NewNode("c", 4, 2, 0),
		rig.NewNode("d", 0, 2, 1),
	}
	r.Beams = []*rig.Beam{
		rig.NewBeam("a", "b", 1, 1, 1, 1),
		rig.NewBeam("b", "c", 1, 1, 1, 1),
		rig.NewBeam("c", "d", 1, 1, 1, 1),
		rig.NewBeam("d", "missing", 1, 1, 1, 1),
	}
	return r
}

// isBackground allows for rounding in the downscale filter.
func isBackground(c color.RGBA) bool {
	near := func(a, b uint8) bool { return int(a)-int(b) <= 2 && int(b)-int(a) <= 2 }
	return near(c.R, Background.R) && near(c.G, Background.G) && near(c.B, Background.B)
}

func TestRender(t *testing.T) {
	tests := []struct {
		name          string
		cfg           config.PreviewConfig
		width, height int
	}{
		{name: "configured", cfg: config.PreviewConfig{Width: 64, Height: 48, Padding: 4}, width: 64, height: 48},
		{name: "defaults", cfg: config.PreviewConfig{}, width: 512, height: 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Render(boxRig(), tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.width, img.Bounds().Dx())
			assert.Equal(t, tt.height, img.Bounds().Dy())

			// corners stay background, the wireframe does not
			assert.True(t, isBackground(img.RGBAAt(0, 0)))
			var lit bool
			for y := 0; y < img.Bounds().Dy() && !lit; y++ {
				for x := 0; x < img.Bounds().Dx(); x++ {
					if !isBackground(img.RGBAAt(x, y)) {
						lit = true
						break
					}
				}
			}
			assert.True(t, lit)
		})
	}
}

func TestRender_SingleNode(t *testing.T) {
	r := rig.New()
	r.Nodes = []*rig.Node{rig.NewNode("only", 1, 1, 1)}
	img, err := Render(r, config.PreviewConfig{Width: 16, Height: 16})
	require.NoError(t, err)
	assert.False(t, isBackground(img.RGBAAt(8, 8)))
}

func TestRender_NoNodes(t *testing.T) {
	_, err := Render(rig.New(), DefaultConfig())
	assert.ErrorIs(t, err, ErrNoNodes)
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, boxRig(), config.PreviewConfig{Width: 32, Height: 32, Padding: 2}))

	data := buf.Bytes()
	require.Greater(t, len(data), 12)
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WEBP", string(data[8:12]))
	assert.Equal(t, uint32(len(data)-8), binary.LittleEndian.Uint32(data[4:8]))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "box.webp")
	require.NoError(t, WriteFile(path, boxRig(), DefaultConfig()))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	empty := filepath.Join(dir, "empty.webp")
	assert.ErrorIs(t, WriteFile(empty, rig.New(), DefaultConfig()), ErrNoNodes)
	_, err = os.Stat(empty)
	assert.True(t, os.IsNotExist(err))
}
