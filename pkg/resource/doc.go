// Package resource provides the resource registry that backs a manifest
// evaluation pass.
//
// # Overview
//
// A [Resource] is a declarative unit of provisioning work: a file, a
// package, a command ([KindExec]) or a no-op checkpoint used purely as an
// ordering anchor. Resources are identified by [ID] (kind + name) and carry
// typed [Attributes] plus ordering edges.
//
// # Declare-or-fetch
//
// [Registry.Declare] is the idempotency primitive: declaring an ID that is
// already present merges into the existing resource instead of creating a
// duplicate.
//
//	reg := resource.NewRegistry()
//	gemrc, _ := reg.Declare(resource.KindFile, "/etc/gemrc", resource.FileAttrs{Mode: "744"}, resource.Edges{})
//	gems := reg.Checkpoint("rails_gems")
//	_, _ = reg.Declare(resource.KindPackage, "rake",
//	    resource.PackageAttrs{Provider: "gem", Ensure: resource.EnsureInstalled},
//	    resource.Edges{Before: []resource.ID{gems.ID}, Require: []resource.ID{gemrc.ID}})
//
// Set fields of a later declaration overwrite earlier ones;
// [Registry.DeclareDefaults] only fills gaps.
//
// # Ordering
//
// [Registry.Graph] turns the catalog into a [dag.DAG], rejecting references
// to undeclared resources and cycles. [Registry.Order] yields a
// deterministic apply order.
//
// [dag.DAG]: github.com/matzehuels/railcar/pkg/dag.DAG
package resource
