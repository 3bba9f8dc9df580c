package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/railcar/pkg/buildinfo"
)

// SetVersion sets the version information displayed by --version and
// reported by the catalog server. The main package calls it with values
// injected via ldflags at build time; empty values keep the defaults.
func SetVersion(v, c, d string) {
	if v != "" {
		buildinfo.Version = v
	}
	if c != "" {
		buildinfo.Commit = c
	}
	if d != "" {
		buildinfo.Date = d
	}
}

// Execute runs the railcar CLI with args and returns an error if any
// command fails.
//
// Logging:
//   - Default: info level (logs to w)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context, w io.Writer, args []string) error {
	root := newRoot(w)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// newRoot builds the root command with the --verbose flag wired to the
// logger level.
func newRoot(w io.Writer) *cobra.Command {
	var verbose bool

	c := New(w, LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := LogInfo
		if verbose {
			level = LogDebug
		}
		c.SetLogLevel(level)
		if verbose {
			installDebugHooks(c.Logger)
		}
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	}
	return root
}
