package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Build identity, overridable with -ldflags at release time.
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the short version string.
func GetVersion() string { return Version }

// GetFullVersion returns the version together with build metadata.
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", Version, Build, GitCommit)
}

// LoadVersionFromFile overrides the compiled-in version with the contents of
// a .version file next to the binary, when one exists. Deployments drop this
// file so a stale binary still reports what was shipped.
func LoadVersionFromFile() string {
	exe, err := os.Executable()
	if err != nil {
		return Version
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(exe), ".version"))
	if err != nil {
		return Version
	}
	if v := strings.TrimSpace(string(data)); v != "" {
		Version = v
	}
	return Version
}
