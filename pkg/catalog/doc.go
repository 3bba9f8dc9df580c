// Package catalog is the output format of an evaluation pass.
//
// # Overview
//
// A [Catalog] lists every declared resource in apply order together with
// its rendered attributes and ordering edges. It is what a provisioning
// engine consumes; railcar itself never applies it.
//
//	c, err := catalog.New(reg, "storefront", "production")
//	if err != nil {
//	    return err // ErrCodeGraphCycle or ErrCodeNotFound
//	}
//	c.WriteJSON(os.Stdout)
//
// # JSON Format
//
//	{
//	  "id": "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
//	  "environment": "production",
//	  "resources": [
//	    {"ref": "Package[libpq-dev]", "kind": "package", "name": "libpq-dev",
//	     "attrs": {"ensure": "installed"}, "tier": 0},
//	    {"ref": "Package[pg]", "kind": "package", "name": "pg",
//	     "attrs": {"ensure": "installed", "provider": "gem"},
//	     "before": ["Checkpoint[rails_gems]"], "require": ["Package[libpq-dev]"], "tier": 1}
//	  ]
//	}
//
// Edge references are canonical: a reference written against an alias is
// emitted under the resource's own name. Tier is the resource's layer in
// the ordering graph; resources on the same tier are independent.
//
// # Visualization
//
// [ToDOT] renders the ordering graph as Graphviz DOT and [RenderSVG] turns
// that into SVG with an embedded Graphviz build.
package catalog
