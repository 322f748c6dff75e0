package mesh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

const sampleDAE = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <library_geometries>
    <geometry id="wheel" name="wheel">
      <mesh/>
    </geometry>
    <geometry id='seat' name="seat-mesh"/>
  </library_geometries>
  <library_visual_scenes>
    <visual_scene id="Scene">
      <node id="wheel_node" name="wheel">
        <instance_geometry url="#wheel"/>
      </node>
      <!-- <geometry id="wheel"/> stays a comment -->
    </visual_scene>
  </library_visual_scenes>
</COLLADA>
`

func TestMapping(t *testing.T) {
	r := rig.New()
	r.Flexbodies = []*rig.Flexbody{rig.NewFlexbody("a", "b", "c", mgl64.Vec3{}, mgl64.Vec3{}, "Wheel.dae")}
	p := rig.NewProp("a", "b", "c", mgl64.Vec3{}, mgl64.Vec3{}, "dash.mesh")
	p.GroupOverride = "cockpit"
	r.Props = []*rig.Prop{p}

	assert.Equal(t, map[string]string{
		"Wheel":     "wheel_flexbody",
		"Wheel.dae": "wheel_flexbody",
		"dash":      "cockpit",
		"dash.mesh": "cockpit",
	}, Mapping(r))
}

func TestRewriteDAE(t *testing.T) {
	mapping := map[string]string{"wheel": "wheel_flexbody", "seat": "seat_prop"}

	out, changes, err := RewriteDAE([]byte(sampleDAE), mapping)
	require.NoError(t, err)

	assert.Equal(t, []Change{
		{Element: "geometry", Attr: "id", From: "wheel", To: "wheel_flexbody"},
		{Element: "geometry", Attr: "name", From: "wheel", To: "wheel_flexbody"},
		{Element: "geometry", Attr: "id", From: "seat", To: "seat_prop"},
		{Element: "node", Attr: "name", From: "wheel", To: "wheel_flexbody"},
		{Element: "instance_geometry", Attr: "url", From: "#wheel", To: "#wheel_flexbody"},
	}, changes)

	s := string(out)
	assert.Contains(t, s, `<geometry id="wheel_flexbody" name="wheel_flexbody">`)
	assert.Contains(t, s, `<geometry id='seat_prop' name="seat-mesh"/>`)
	assert.Contains(t, s, `<node id="wheel_node" name="wheel_flexbody">`)
	assert.Contains(t, s, `<instance_geometry url="#wheel_flexbody"/>`)
	assert.Contains(t, s, `<!-- <geometry id="wheel"/> stays a comment -->`)
	assert.Contains(t, s, `<?xml version="1.0" encoding="utf-8"?>`)
}

func TestRewriteDAE_NoMatchesIsIdentity(t *testing.T) {
	out, changes, err := RewriteDAE([]byte(sampleDAE), map[string]string{"other": "x"})
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, sampleDAE, string(out))
}

func TestRewriteDAE_Malformed(t *testing.T) {
	_, _, err := RewriteDAE([]byte(`<COLLADA><geometry id="a"`), map[string]string{"a": "b"})
	assert.Error(t, err)
}

func TestExtractNames(t *testing.T) {
	names, err := ExtractNames([]byte(sampleDAE))
	require.NoError(t, err)
	assert.Equal(t, []string{"wheel", "seat", "wheel_node"}, names)
}

func TestProcessDirectory(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "car.DAE"), []byte(sampleDAE), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("wheel"), 0644))

	mapping := map[string]string{"wheel": "wheel_flexbody"}

	t.Run("to output directory", func(t *testing.T) {
		out := t.TempDir()
		res, err := ProcessDirectory(src, out, mapping, nil)
		require.NoError(t, err)
		assert.Equal(t, DirResult{Files: 1, Rewritten: 1, Changes: 4}, res)

		data, err := os.ReadFile(filepath.Join(out, "sub", "car.DAE"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `url="#wheel_flexbody"`)

		orig, err := os.ReadFile(filepath.Join(src, "sub", "car.DAE"))
		require.NoError(t, err)
		assert.Equal(t, sampleDAE, string(orig))
	})

	t.Run("in place", func(t *testing.T) {
		res, err := ProcessDirectory(src, "", mapping, nil)
		require.NoError(t, err)
		assert.Equal(t, 4, res.Changes)

		data, err := os.ReadFile(filepath.Join(src, "sub", "car.DAE"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `<geometry id="wheel_flexbody"`)
	})
}

func TestProcessDirectory_MissingDir(t *testing.T) {
	_, err := ProcessDirectory(filepath.Join(t.TempDir(), "nope"), "", map[string]string{"a": "b"}, nil)
	assert.Error(t, err)
}

func TestProcessDirectory_EmptyMapping(t *testing.T) {
	res, err := ProcessDirectory("does-not-matter", "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DirResult{}, res)
}
