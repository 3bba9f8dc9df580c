// Package inventory answers which gems are installed on a host.
//
// [GemList] asks the local RubyGems installation and is what `railcar plan`
// uses on the target host. [Static] serves a fixed snapshot and is used for
// dry runs from a workstation and in tests. Both implement
// [gems.Inventory] with exact version matching.
package inventory
