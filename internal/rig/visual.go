package rig

import (
	"regexp"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_]`)
	underscoreRe = regexp.MustCompile(`_+`)
)

// Visual is the placement shared by flexbodies and props: a node triad,
// an offset and rotation in the source coordinate frame, and a mesh.
type Visual struct {
	RefNode, XNode, YNode string

	Offset   mgl64.Vec3
	Rotation mgl64.Vec3
	Scale    mgl64.Vec3
	Mesh     string

	// GroupOverride replaces the derived group name when set.
	GroupOverride string
}

// TriadNodes returns the reference, X and Y node ids.
func (v *Visual) TriadNodes() []string {
	return []string{v.RefNode, v.XNode, v.YNode}
}

// MeshBase returns the mesh name without its .mesh or .dae suffix.
func (v *Visual) MeshBase() string {
	return StripMeshExt(v.Mesh)
}

// StripMeshExt removes one trailing ".mesh" or ".dae".
func StripMeshExt(name string) string {
	if s, ok := strings.CutSuffix(name, ".mesh"); ok {
		return s
	}
	if s, ok := strings.CutSuffix(name, ".dae"); ok {
		return s
	}
	return name
}

// DeriveGroupName lowercases mesh, strips the extension, replaces every
// character that is not a Unicode letter, digit or "_" with "_", collapses runs of "_", trims them and
// appends suffix.
func DeriveGroupName(mesh, suffix string) string {
	name := StripMeshExt(strings.ToLower(mesh))
	name = nonWordRe.ReplaceAllString(name, "_")
	name = underscoreRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	return name + suffix
}

type Flexbody struct {
	Visual

	ForsetNodes         []string
	NonFlexMaterials    []string
	DisableMeshBreaking bool
	PlasticDeformCoef   float64
	DamageThreshold     float64
}

func NewFlexbody(ref, x, y string, offset, rotation mgl64.Vec3, mesh string) *Flexbody {
	return &Flexbody{Visual: Visual{
		RefNode: ref, XNode: x, YNode: y,
		Offset: offset, Rotation: rotation,
		Scale: mgl64.Vec3{1, 1, 1},
		Mesh:  mesh,
	}}
}

func (f *Flexbody) GroupName() string {
	if f.GroupOverride != "" {
		return f.GroupOverride
	}
	return DeriveGroupName(f.Mesh, "_flexbody")
}

// Nodes returns the triad followed by the forset nodes, without duplicates.
func (f *Flexbody) Nodes() []string {
	seen := make(map[string]struct{}, 3+len(f.ForsetNodes))
	var out []string
	for _, id := range append(f.TriadNodes(), f.ForsetNodes...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// AddForsetNode appends id unless it is already listed.
func (f *Flexbody) AddForsetNode(id string) {
	for _, have := range f.ForsetNodes {
		if have == id {
			return
		}
	}
	f.ForsetNodes = append(f.ForsetNodes, id)
}

const (
	AnimationRotation    = "rotation"
	AnimationTranslation = "translation"
	AnimationNone        = "none"
)

type Prop struct {
	Visual

	AnimationFactor float64
	AnimationMode   string
	AnimationAxis   mgl64.Vec3
}

func NewProp(ref, x, y string, offset, rotation mgl64.Vec3, mesh string) *Prop {
	return &Prop{
		Visual: Visual{
			RefNode: ref, XNode: x, YNode: y,
			Offset: offset, Rotation: rotation,
			Scale: mgl64.Vec3{1, 1, 1},
			Mesh:  mesh,
		},
		AnimationMode: AnimationRotation,
		AnimationAxis: mgl64.Vec3{0, 0, 1},
	}
}

func (p *Prop) GroupName() string {
	if p.GroupOverride != "" {
		return p.GroupOverride
	}
	return DeriveGroupName(p.Mesh, "_prop")
}

// Nodes returns the prop triad.
func (p *Prop) Nodes() []string {
	return p.TriadNodes()
}
