package rig

// Statistics summarizes a rig after parsing.
type Statistics struct {
	Nodes           int     `json:"nodes"`
	Beams           int     `json:"beams"`
	Wheels          int     `json:"wheels"`
	Hydros          int     `json:"hydros"`
	Flexbodies      int     `json:"flexbodies"`
	Props           int     `json:"props"`
	Cameras         int     `json:"cameras"`
	Rails           int     `json:"rails"`
	Slidenodes      int     `json:"slidenodes"`
	Triangles       int     `json:"triangles"`
	Quads           int     `json:"quads"`
	LegacyTriangles int     `json:"legacy_triangles"`
	Axles           int     `json:"axles"`
	DryWeight       float64 `json:"dry_weight"`
	LoadWeight      float64 `json:"load_weight"`
	HasEngine       bool    `json:"has_engine"`
	HasTorqueCurve  bool    `json:"has_torquecurve"`
	Warnings        int     `json:"warnings"`
	Errors          int     `json:"errors"`
	TotalBeamLength float64 `json:"total_beam_length"`
}

// Statistics counts every collection and sums the true length of all
// beams whose endpoints resolve.
func (r *Rig) Statistics() Statistics {
	s := Statistics{
		Nodes:           len(r.Nodes),
		Beams:           len(r.Beams),
		Wheels:          len(r.Wheels),
		Hydros:          len(r.Hydros),
		Flexbodies:      len(r.Flexbodies),
		Props:           len(r.Props),
		Cameras:         len(r.InternalCameras),
		Rails:           len(r.Rails),
		Slidenodes:      len(r.Slidenodes),
		Triangles:       len(r.Triangles),
		Quads:           len(r.Quads),
		LegacyTriangles: len(r.LegacyTriangles),
		Axles:           len(r.Axles),
		DryWeight:       r.DryWeight,
		LoadWeight:      r.LoadWeight,
		HasEngine:       r.Engine != nil,
		HasTorqueCurve:  r.TorqueCurve != nil,
		Warnings:        len(r.Warnings),
		Errors:          len(r.Errors),
	}

	idx := r.NodeIndex()
	for _, b := range r.Beams {
		i1, ok1 := idx[b.ID1]
		i2, ok2 := idx[b.ID2]
		if ok1 && ok2 {
			s.TotalBeamLength += r.Nodes[i1].Pos.Sub(r.Nodes[i2].Pos).Len()
		}
	}
	return s
}
