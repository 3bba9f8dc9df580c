package catalog

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/railcar/pkg/resource"
)

// Options configures DOT rendering.
type Options struct {
	// Detailed includes the tier and attributes in node labels.
	// When false, only the resource reference is shown.
	Detailed bool
}

var kindColors = map[resource.Kind]string{
	resource.KindPackage:    "white",
	resource.KindExec:       "lightyellow",
	resource.KindFile:       "aliceblue",
	resource.KindCheckpoint: "lightgrey",
}

// ToDOT converts the catalog to Graphviz DOT format. Edges point from the
// resource applied first to the one applied after it.
func ToDOT(c *Catalog, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, e := range c.Resources {
		fmt.Fprintf(&buf, "  %q [%s];\n", e.Ref, strings.Join(fmtAttrs(e, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range c.Resources {
		for _, to := range e.Before {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Ref, to)
		}
		for _, from := range e.Require {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", from, e.Ref)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(e Entry, detailed bool) string {
	if !detailed {
		return e.Ref
	}

	parts := []string{fmt.Sprintf("tier: %d", e.Tier)}
	for _, k := range slices.Sorted(maps.Keys(e.Attrs)) {
		if k == "content" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, e.Attrs[k]))
	}
	return e.Ref + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(e Entry, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(e, detailed))}
	if color, ok := kindColors[e.Kind]; ok && color != "white" {
		attrs = append(attrs, "fillcolor="+color)
	}
	if e.Kind == resource.KindCheckpoint {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the SVG scales from its origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
