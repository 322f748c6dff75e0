// Package groups names mesh objects uniquely and attaches their group
// names to the structural nodes that carry them.
package groups

import (
	"log/slog"
	"slices"

	"github.com/dhconnelly/rtreego"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

const (
	// Nodes already in this many groups are passed over when possible.
	crowdedGroupCount = 2
	// Below this many uncrowded candidates the full candidate set is used.
	minFlexbodyNodes = 10
	searchRadiusScale = 2.0
)

type indexedNode struct {
	order int
	node  *rig.Node
	rect  rtreego.Rect
}

func (n *indexedNode) Bounds() rtreego.Rect {
	return n.rect
}

// Assigner adds flexbody and prop group names to node group lists.
type Assigner struct {
	logger *slog.Logger
	rig    *rig.Rig
	index  map[string]int
	tree   *rtreego.Rtree
}

func NewAssigner(r *rig.Rig, logger *slog.Logger) *Assigner {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Assigner{logger: logger, rig: r, index: r.NodeIndex()}

	spatials := make([]rtreego.Spatial, 0, len(r.Nodes))
	for i, n := range r.Nodes {
		spatials = append(spatials, &indexedNode{
			order: i,
			node:  n,
			rect:  rtreego.Point{n.Pos.X(), n.Pos.Y(), n.Pos.Z()}.ToRect(0.0001),
		})
	}
	a.tree = rtreego.NewTree(3, 25, 50, spatials...)
	return a
}

// Assign attaches every flexbody and prop group of r to its nodes.
func Assign(r *rig.Rig, logger *slog.Logger) {
	NewAssigner(r, logger).Run()
}

func (a *Assigner) Run() {
	for _, fb := range a.rig.Flexbodies {
		group := fb.GroupName()
		ids := a.FlexbodyNodes(fb)
		a.addGroup(ids, group)
		a.logger.Debug("Assigned flexbody group", "group", group, "nodes", len(ids))
	}
	for _, p := range a.rig.Props {
		a.addGroup(p.TriadNodes(), p.GroupName())
	}
}

// FlexbodyNodes returns the ids that receive the flexbody's group: the
// triad nodes present in the rig plus the forset list, or the spatial
// search result when no forset was given.
func (a *Assigner) FlexbodyNodes(fb *rig.Flexbody) []string {
	var ids []string
	for _, id := range fb.TriadNodes() {
		if _, ok := a.index[id]; ok {
			ids = append(ids, id)
		}
	}
	if len(fb.ForsetNodes) > 0 {
		return append(ids, fb.ForsetNodes...)
	}
	return append(ids, a.nearbyNodes(fb)...)
}

func (a *Assigner) triad(v *rig.Visual) ([]*rig.Node, bool) {
	nodes := make([]*rig.Node, 0, 3)
	for _, id := range v.TriadNodes() {
		i, ok := a.index[id]
		if !ok {
			return nil, false
		}
		nodes = append(nodes, a.rig.Nodes[i])
	}
	return nodes, true
}

// nearbyNodes collects nodes within twice the triad's circumscribing
// distance of its centroid, preferring nodes that are not yet crowded.
func (a *Assigner) nearbyNodes(fb *rig.Flexbody) []string {
	triad, ok := a.triad(&fb.Visual)
	if !ok {
		return nil
	}

	var center mgl64.Vec3
	for _, n := range triad {
		center = center.Add(n.Pos)
	}
	center = center.Mul(1.0 / 3)

	maxDist := 0.0
	for _, n := range triad {
		maxDist = max(maxDist, n.Pos.Sub(center).Len())
	}
	radius := maxDist * searchRadiusScale

	candidates := a.within(center, radius)

	var preferred []string
	for _, n := range candidates {
		if len(n.Groups) < crowdedGroupCount {
			preferred = append(preferred, n.ID)
		}
	}
	if len(preferred) >= minFlexbodyNodes {
		return preferred
	}

	all := make([]string, len(candidates))
	for i, n := range candidates {
		all[i] = n.ID
	}
	return all
}

// within returns the nodes at most radius from center, in rig order.
func (a *Assigner) within(center mgl64.Vec3, radius float64) []*rig.Node {
	const pad = 0.001
	side := 2*radius + 2*pad
	box, err := rtreego.NewRect(
		rtreego.Point{center.X() - radius - pad, center.Y() - radius - pad, center.Z() - radius - pad},
		[]float64{side, side, side},
	)
	if err != nil {
		a.logger.Warn("Invalid search box for flexbody nodes", "error", err)
		return nil
	}

	var hits []*indexedNode
	for _, s := range a.tree.SearchIntersect(box) {
		in := s.(*indexedNode)
		if in.node.Pos.Sub(center).Len() <= radius {
			hits = append(hits, in)
		}
	}
	slices.SortFunc(hits, func(x, y *indexedNode) int { return x.order - y.order })

	out := make([]*rig.Node, len(hits))
	for i, h := range hits {
		out[i] = h.node
	}
	return out
}

func (a *Assigner) addGroup(ids []string, group string) {
	for _, id := range ids {
		if i, ok := a.index[id]; ok {
			a.rig.Nodes[i].AddGroup(group)
		}
	}
}
