// Package mesh keeps external mesh files in step with the converted rig:
// it maps mesh names to jbeam group names and rewrites COLLADA scene files
// so their geometry and node names match.
package mesh

import (
	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

// Mapping returns, for every flexbody and prop, both the full mesh name
// and the name without extension mapped to the object's group name. Later
// objects overwrite earlier ones sharing a name.
func Mapping(r *rig.Rig) map[string]string {
	m := make(map[string]string, 2*(len(r.Flexbodies)+len(r.Props)))
	for _, fb := range r.Flexbodies {
		group := fb.GroupName()
		m[fb.MeshBase()] = group
		m[fb.Mesh] = group
	}
	for _, p := range r.Props {
		group := p.GroupName()
		m[p.MeshBase()] = group
		m[p.Mesh] = group
	}
	return m
}
