package mass

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

// triangleRig has beams of length 1 and 2, so squared density is 5.
func triangleRig() *rig.Rig {
	r := rig.New()
	r.DryWeight = 1000
	r.LoadWeight = 100
	r.MinimumMass = 1
	r.Nodes = []*rig.Node{
		rig.NewNode("a", 0, 0, 0),
		rig.NewNode("b", 1, 0, 0),
		rig.NewNode("c", 0, 2, 0),
	}
	r.Beams = []*rig.Beam{
		rig.NewBeam("a", "b", 1, 1, 1, 1),
		rig.NewBeam("a", "c", 1, 1, 1, 1),
	}
	return r
}

func masses(r *rig.Rig) []float64 {
	out := make([]float64, len(r.Nodes))
	for i, n := range r.Nodes {
		out[i] = n.Mass
	}
	return out
}

func TestDistribute(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *rig.Rig)
		want     []float64
		adjusted int
	}{
		{
			name: "squared length weighting",
			want: []float64{500, 100, 400},
		},
		{
			name:   "load bearer shares load weight",
			mutate: func(r *rig.Rig) { r.Nodes[2].LoadBearer = true },
			want:   []float64{500, 100, 500},
		},
		{
			name: "override used verbatim",
			mutate: func(r *rig.Rig) {
				r.Nodes[2].LoadBearer = true
				r.Nodes[2].OverrideMass = 7
			},
			want: []float64{500, 100, 407},
		},
		{
			name: "virtual beams ignored",
			mutate: func(r *rig.Rig) {
				b := rig.NewBeam("b", "c", 1, 1, 1, 1)
				b.Type = rig.BeamVirtual
				r.Beams = append(r.Beams, b)
			},
			want: []float64{500, 100, 400},
		},
		{
			name:     "clamped to minimum mass",
			mutate:   func(r *rig.Rig) { r.MinimumMass = 150 },
			want:     []float64{500, 150, 400},
			adjusted: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := triangleRig()
			if tt.mutate != nil {
				tt.mutate(r)
			}

			res, err := Distribute(r, nil)
			require.NoError(t, err)

			assert.InDeltaSlice(t, tt.want, masses(r), 1e-9)
			assert.Equal(t, tt.adjusted, res.AdjustedNodes)
			assert.InDelta(t, 5.0, res.Density, 1e-9)
			assert.Equal(t, 2, res.ValidBeams)
		})
	}
}

func TestDistribute_EveryNodeAtLeastMinimum(t *testing.T) {
	r := triangleRig()
	r.MinimumMass = 50
	r.Nodes = append(r.Nodes, rig.NewNode("lonely", 9, 9, 9))

	_, err := Distribute(r, nil)
	require.NoError(t, err)
	for _, n := range r.Nodes {
		assert.GreaterOrEqual(t, n.Mass, 50.0, n.ID)
	}
}

func TestDistribute_TotalMassWarning(t *testing.T) {
	r := triangleRig()
	r.LoadWeight = 10000

	res, err := Distribute(r, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, res.TotalMass, 1e-9)
	assert.Equal(t, 11000.0, res.ExpectedMass)
	assert.Contains(t, r.Warnings, "Total calculated mass (1000.0) differs significantly from expected (11000.0)")
}

func TestDistribute_WithinToleranceNoWarning(t *testing.T) {
	r := triangleRig()

	_, err := Distribute(r, nil)
	require.NoError(t, err)
	assert.Empty(t, r.Warnings)
}

func TestDistribute_MissingNodes(t *testing.T) {
	r := triangleRig()
	r.Beams = append(r.Beams, rig.NewBeam("a", "ghost", 1, 1, 1, 1))

	var logs bytes.Buffer
	_, err := Distribute(r, slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	require.NoError(t, err)
	// dangling endpoints are reported once, by the validator
	assert.Empty(t, r.Warnings)
	assert.Contains(t, logs.String(), "id2=ghost")
	assert.InDeltaSlice(t, []float64{500, 100, 400}, masses(r), 1e-9)
}

func TestDistribute_NoNodes(t *testing.T) {
	r := rig.New()

	_, err := Distribute(r, nil)
	assert.ErrorIs(t, err, ErrNoNodes)
	assert.Equal(t, []string{"Cannot calculate masses: no nodes found"}, r.Errors)
}

func TestDistribute_NoValidBeams(t *testing.T) {
	tests := []struct {
		name  string
		beams []*rig.Beam
	}{
		{name: "no beams"},
		{name: "zero length", beams: []*rig.Beam{rig.NewBeam("a", "a", 1, 1, 1, 1)}},
		{name: "only virtual", beams: func() []*rig.Beam {
			b := rig.NewBeam("a", "b", 1, 1, 1, 1)
			b.Type = rig.BeamVirtual
			return []*rig.Beam{b}
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := triangleRig()
			r.Beams = tt.beams

			_, err := Distribute(r, nil)
			assert.ErrorIs(t, err, ErrNoValidBeams)
			assert.Contains(t, r.Errors, "Cannot calculate masses: no valid beams found")
		})
	}
}

func TestDistribute_Idempotent(t *testing.T) {
	r := triangleRig()
	r.Nodes[1].LoadBearer = true

	_, err := Distribute(r, nil)
	require.NoError(t, err)
	first := masses(r)

	_, err = Distribute(r, nil)
	require.NoError(t, err)
	assert.Equal(t, first, masses(r))
}
