package inventory

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/railcar/pkg/errors"
	"github.com/matzehuels/railcar/pkg/gems"
)

const DefaultTimeout = 30 * time.Second

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands on the local host.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// GemList probes the local RubyGems installation with `gem list`.
// Results are cached per gem name for the lifetime of the GemList.
type GemList struct {
	Binary  string
	Timeout time.Duration

	run   Runner
	mu    sync.Mutex
	cache map[string][]string
}

// NewGemList creates a probe using the gem binary on PATH.
func NewGemList(timeout time.Duration) *GemList {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GemList{
		Binary:  "gem",
		Timeout: timeout,
		run:     ExecRunner,
		cache:   make(map[string][]string),
	}
}

// WithRunner replaces the command runner, mainly for tests.
func (g *GemList) WithRunner(run Runner) *GemList {
	g.run = run
	return g
}

// Probe implements gems.Inventory.
func (g *GemList) Probe(ctx context.Context, name, version string) (gems.Probe, error) {
	versions, err := g.versions(ctx, name)
	if err != nil {
		return gems.Probe{}, err
	}
	return match(versions, version), nil
}

func (g *GemList) versions(ctx context.Context, name string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if v, ok := g.cache[name]; ok {
		return v, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	out, err := g.run(ctx, g.Binary, "list", "--local", "--exact", name)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "gem list %s", name)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "gem list %s", name)
	}

	versions := ParseGemList(out)[name]
	g.cache[name] = versions
	return versions, nil
}

var listLine = regexp.MustCompile(`^(\S+) \((.*)\)$`)

// ParseGemList parses `gem list` output such as
//
//	nokogiri (1.6.8, 1.6.0 x86_64-linux)
//	rake (default: 10.4.2)
//
// into gem name → versions, newest first as listed.
func ParseGemList(out []byte) map[string][]string {
	result := map[string][]string{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		m := listLine.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		for _, v := range strings.Split(m[2], ",") {
			v = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(v), "default:"))
			if fields := strings.Fields(v); len(fields) > 0 {
				result[m[1]] = append(result[m[1]], fields[0])
			}
		}
	}
	return result
}
