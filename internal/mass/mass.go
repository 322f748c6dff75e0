// Package mass distributes dry and load weight over the nodes of a rig the
// way the Rigs of Rods beam engine historically did.
package mass

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

var (
	ErrNoNodes      = errors.New("no nodes found")
	ErrNoValidBeams = errors.New("no valid beams found")
)

// Result summarizes one distribution run.
type Result struct {
	LoadNodes     int
	RegularNodes  int
	ValidBeams    int
	Density       float64
	AdjustedNodes int
	TotalMass     float64
	ExpectedMass  float64
}

// Distribute assigns Node.Mass for every node of r. Beam contributions are
// weighted by squared beam length, matching the reference engine's
// density term. Fatal conditions are also recorded as rig errors.
func Distribute(r *rig.Rig, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res Result

	if len(r.Nodes) == 0 {
		r.AddError(0, "Cannot calculate masses: no nodes found")
		return res, ErrNoNodes
	}

	for _, n := range r.Nodes {
		if n.LoadBearer {
			res.LoadNodes++
		} else {
			res.RegularNodes++
		}
	}
	logger.Debug("Counted nodes", "loadBearing", res.LoadNodes, "regular", res.RegularNodes)

	warnedNoLoad := false
	for _, n := range r.Nodes {
		switch {
		case !n.LoadBearer:
			n.Mass = 0
		case n.OverrideMass != 0:
			n.Mass = n.OverrideMass
		case res.LoadNodes > 0:
			n.Mass = r.LoadWeight / float64(res.LoadNodes)
		default:
			n.Mass = r.MinimumMass
			if !warnedNoLoad {
				r.AddWarning(0, "No load-bearing nodes found, using minimum mass")
				warnedNoLoad = true
			}
		}
	}

	index := r.NodeIndex()
	lookup := func(b *rig.Beam) (*rig.Node, *rig.Node, bool) {
		i1, ok1 := index[b.ID1]
		i2, ok2 := index[b.ID2]
		if !ok1 || !ok2 {
			return nil, nil, false
		}
		return r.Nodes[i1], r.Nodes[i2], true
	}

	for _, b := range r.Beams {
		if b.Type == rig.BeamVirtual {
			continue
		}
		n1, n2, ok := lookup(b)
		if !ok {
			logger.Debug("Skipping beam with missing nodes", "id1", b.ID1, "id2", b.ID2)
			continue
		}
		res.Density += squaredDistance(n1, n2)
		res.ValidBeams++
	}

	if res.Density == 0 {
		r.AddError(0, "Cannot calculate masses: no valid beams found")
		return res, ErrNoValidBeams
	}
	logger.Debug("Calculated linear density", "beams", res.ValidBeams, "density", res.Density)

	for _, b := range r.Beams {
		if b.Type == rig.BeamVirtual {
			continue
		}
		n1, n2, ok := lookup(b)
		if !ok {
			continue
		}
		half := squaredDistance(n1, n2) * r.DryWeight / res.Density / 2
		n1.Mass += half
		n2.Mass += half
	}

	for _, n := range r.Nodes {
		if n.Mass < r.MinimumMass {
			n.Mass = r.MinimumMass
			res.AdjustedNodes++
		}
		res.TotalMass += n.Mass
	}
	if res.AdjustedNodes > 0 {
		logger.Debug("Adjusted nodes to minimum mass", "count", res.AdjustedNodes, "minimumMass", r.MinimumMass)
	}

	res.ExpectedMass = r.DryWeight + r.LoadWeight
	if math.Abs(res.TotalMass-res.ExpectedMass) > res.ExpectedMass*0.1 {
		r.AddWarning(0, fmt.Sprintf("Total calculated mass (%.1f) differs significantly from expected (%.1f)",
			res.TotalMass, res.ExpectedMass))
	}

	logger.Debug("Mass calculation complete", "totalMass", res.TotalMass)
	return res, nil
}

func squaredDistance(a, b *rig.Node) float64 {
	d := a.Pos.Sub(b.Pos)
	return d.Dot(d)
}
