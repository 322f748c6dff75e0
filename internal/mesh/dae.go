package mesh

import (
	"bytes"
	"encoding/xml"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Renamed COLLADA attributes, by element.
var daeAttrs = map[string][]string{
	"geometry":          {"id", "name"},
	"node":              {"id", "name"},
	"instance_geometry": {"url"},
}

// Change is one attribute rewritten by RewriteDAE.
type Change struct {
	Element string
	Attr    string
	From    string
	To      string
}

// tagSpan is a start tag with its byte range in the source document.
type tagSpan struct {
	el         xml.StartElement
	start, end int64
}

func scanTags(src []byte, visit func(tagSpan) error) error {
	dec := xml.NewDecoder(bytes.NewReader(src))
	dec.Strict = false
	for {
		start := dec.InputOffset()
		tok, err := dec.RawToken()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "Failed to parse xml at offset %d", start)
		}
		if el, ok := tok.(xml.StartElement); ok {
			if err := visit(tagSpan{el: el, start: start, end: dec.InputOffset()}); err != nil {
				return err
			}
		}
	}
}

// mappedName returns the replacement for an attribute value, handling the
// "#" prefix of instance_geometry urls.
func mappedName(attr, value string, mapping map[string]string) (string, bool) {
	if attr == "url" {
		ref, ok := strings.CutPrefix(value, "#")
		if !ok {
			return "", false
		}
		to, ok := mapping[ref]
		return "#" + to, ok
	}
	to, ok := mapping[value]
	return to, ok
}

func escapeAttr(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// replaceAttr swaps the value of attr inside one raw start tag.
func replaceAttr(tag []byte, attr, from, to string) ([]byte, bool) {
	re := regexp.MustCompile(`(\s` + regexp.QuoteMeta(attr) + `\s*=\s*)(["'])` + regexp.QuoteMeta(escapeAttr(from)) + `(["'])`)
	loc := re.FindSubmatchIndex(tag)
	if loc == nil {
		return tag, false
	}
	var out bytes.Buffer
	out.Write(tag[:loc[5]])
	out.WriteString(escapeAttr(to))
	out.Write(tag[loc[6]:])
	return out.Bytes(), true
}

// RewriteDAE renames geometry and node ids and names, and instance_geometry
// references, according to mapping. Everything else in the document is
// left byte for byte as it was.
func RewriteDAE(src []byte, mapping map[string]string) ([]byte, []Change, error) {
	var (
		out     bytes.Buffer
		changes []Change
		last    int64
	)
	err := scanTags(src, func(t tagSpan) error {
		attrs, ok := daeAttrs[t.el.Name.Local]
		if !ok {
			return nil
		}
		tag := src[t.start:t.end]
		modified := false
		for _, a := range t.el.Attr {
			if !containsStr(attrs, a.Name.Local) {
				continue
			}
			to, ok := mappedName(a.Name.Local, a.Value, mapping)
			if !ok || to == a.Value {
				continue
			}
			if next, ok := replaceAttr(tag, a.Name.Local, a.Value, to); ok {
				tag = next
				modified = true
				changes = append(changes, Change{Element: t.el.Name.Local, Attr: a.Name.Local, From: a.Value, To: to})
			}
		}
		if modified {
			out.Write(src[last:t.start])
			out.Write(tag)
			last = t.end
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	out.Write(src[last:])
	return out.Bytes(), changes, nil
}

func containsStr(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// ExtractNames lists the distinct geometry and node identifiers and the
// instance_geometry targets of a COLLADA document, in document order.
func ExtractNames(src []byte) ([]string, error) {
	seen := make(map[string]struct{})
	var names []string
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		names = append(names, s)
	}

	err := scanTags(src, func(t tagSpan) error {
		switch t.el.Name.Local {
		case "geometry", "node":
			id, name := attrValue(t.el, "id"), attrValue(t.el, "name")
			if id != "" {
				add(id)
			} else {
				add(name)
			}
		case "instance_geometry":
			if ref, ok := strings.CutPrefix(attrValue(t.el, "url"), "#"); ok {
				add(ref)
			}
		}
		return nil
	})
	return names, err
}

func attrValue(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// DirResult summarizes ProcessDirectory.
type DirResult struct {
	Files     int
	Rewritten int
	Failed    int
	Changes   int
}

// ProcessDirectory rewrites every .dae file below dir. Results go to the
// same relative path under outDir, or replace the originals when outDir is
// empty. Files that fail are logged and counted, not fatal.
func ProcessDirectory(dir, outDir string, mapping map[string]string, logger *slog.Logger) (DirResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res DirResult
	if len(mapping) == 0 {
		logger.Info("No mesh mapping available, skipping DAE processing")
		return res, nil
	}
	if _, err := os.Stat(dir); err != nil {
		return res, errors.Wrapf(err, "DAE directory not found: %s", dir)
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".dae") {
			return nil
		}
		res.Files++

		target := path
		if outDir != "" {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return errors.Wrapf(err, "Can't resolve %q", path)
			}
			target = filepath.Join(outDir, rel)
		}

		n, err := rewriteFile(path, target, mapping)
		if err != nil {
			res.Failed++
			logger.Error("Failed to process DAE file", "file", path, "error", err)
			return nil
		}
		if n > 0 || target != path {
			res.Rewritten++
		}
		res.Changes += n
		logger.Info("Processed DAE file", "file", path, "output", target, "changes", n)
		return nil
	})
	if err != nil {
		return res, errors.Wrapf(err, "Failed to walk %q", dir)
	}
	if res.Files == 0 {
		logger.Warn("No DAE files found", "dir", dir)
	}
	return res, nil
}

func rewriteFile(path, target string, mapping map[string]string) (int, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrapf(err, "Failed to read %q", path)
	}
	out, changes, err := RewriteDAE(src, mapping)
	if err != nil {
		return 0, errors.Wrapf(err, "Failed to rewrite %q", path)
	}
	if len(changes) == 0 && target == path {
		return 0, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, errors.Wrapf(err, "Can't create directory for %q", target)
	}
	if err := os.WriteFile(target, out, 0644); err != nil {
		return 0, errors.Wrapf(err, "Can't write %q", target)
	}
	return len(changes), nil
}
