package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	v := Version
	t.Cleanup(func() { Version = v })
	Version = "v1.2.3"

	if got := Template(); !strings.Contains(got, "version v1.2.3") {
		t.Errorf("Template() = %q, want version v1.2.3", got)
	}
	if got := UserAgent(); !strings.HasPrefix(got, "railcar/v1.2.3 ") {
		t.Errorf("UserAgent() = %q, want railcar/v1.2.3 prefix", got)
	}
}
