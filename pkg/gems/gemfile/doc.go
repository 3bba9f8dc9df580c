// Package gemfile parses Bundler manifests.
//
// [Parse] reads a Gemfile into a [Manifest] of [gems.Dependency] entries,
// tracking group membership from both `group ... do` blocks and inline
// `group:` options. [ParseLockfile] reads a Gemfile.lock; wrapped in a
// [LockfileSource] it serves as an offline [gems.MetadataSource] for
// transitive system package expansion.
//
// Only the declarative subset of the Gemfile DSL is understood. Conditionals
// and platform blocks are skipped over without being evaluated, so their
// entries are treated as unconditional.
package gemfile
