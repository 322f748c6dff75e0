package groups

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/truck2jbeam/truck2jbeam/internal/rig"
)

const (
	KindFlexbody = "flexbody"
	KindProp     = "prop"
)

// Rename records one mesh name change made by ResolveDuplicates.
type Rename struct {
	Kind  string
	Index int
	From  string
	To    string
}

type visualRef struct {
	kind  string
	index int
	v     *rig.Visual
}

func visuals(r *rig.Rig) []visualRef {
	out := make([]visualRef, 0, len(r.Flexbodies)+len(r.Props))
	for i, fb := range r.Flexbodies {
		out = append(out, visualRef{KindFlexbody, i, &fb.Visual})
	}
	for i, p := range r.Props {
		out = append(out, visualRef{KindProp, i, &p.Visual})
	}
	return out
}

// ResolveDuplicates gives every flexbody and prop mesh that shares its
// case-folded name with another one a sequential "_NNN" suffix before the
// extension. Flexbodies are numbered before props.
func ResolveDuplicates(r *rig.Rig, logger *slog.Logger) []Rename {
	if logger == nil {
		logger = slog.Default()
	}
	refs := visuals(r)

	usage := make(map[string]int, len(refs))
	for _, ref := range refs {
		usage[strings.ToLower(ref.v.Mesh)]++
	}

	counters := make(map[string]int)
	var renames []Rename
	for _, ref := range refs {
		key := strings.ToLower(ref.v.Mesh)
		if usage[key] < 2 {
			continue
		}
		counters[key]++
		from := ref.v.Mesh
		to := SuffixedName(from, counters[key])
		ref.v.Mesh = to

		logger.Info(fmt.Sprintf("Renamed duplicate mesh: %s -> %s", from, to))
		renames = append(renames, Rename{Kind: ref.kind, Index: ref.index, From: from, To: to})
	}
	return renames
}

// SuffixedName inserts "_NNN" before the extension of name.
func SuffixedName(name string, n int) string {
	base, ext := splitExt(name)
	return fmt.Sprintf("%s_%03d%s", base, n, ext)
}

// splitExt treats a name made only of an extension (".mesh") as having
// none.
func splitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if strings.Trim(base, ".") == "" || strings.HasSuffix(base, "/") {
		return name, ""
	}
	return base, ext
}
