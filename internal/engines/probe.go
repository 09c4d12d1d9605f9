package engines

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// binaryProbe resolves an external binary and detects its version. The
// probe is cached after the first success; concurrent first probes are
// deduplicated so only one version subprocess runs regardless of fan-in.
type binaryProbe struct {
	path      string
	versionFn func() string

	sf singleflight.Group

	mu        sync.Mutex
	available bool
	version   string
}

func newBinaryProbe(path string, versionFn func() string) *binaryProbe {
	return &binaryProbe{path: path, versionFn: versionFn, version: "unknown"}
}

// Available reports whether the binary can be resolved. A successful probe
// (including its version detection) is cached for the process lifetime.
func (p *binaryProbe) Available() bool {
	p.mu.Lock()
	if p.available {
		p.mu.Unlock()
		return true
	}
	p.mu.Unlock()

	result, _, _ := p.sf.Do("probe", func() (interface{}, error) {
		if !resolveBinary(p.path) {
			return false, nil
		}
		version := "unknown"
		if p.versionFn != nil {
			version = p.versionFn()
		}
		p.mu.Lock()
		p.available = true
		p.version = version
		p.mu.Unlock()
		return true, nil
	})
	return result.(bool)
}

// Version returns the detected version, probing first if necessary.
func (p *binaryProbe) Version() string {
	p.Available()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.available {
		return "not installed"
	}
	return p.version
}

// Reason explains unavailability; empty when the binary resolves.
func (p *binaryProbe) Reason() string {
	if p.Available() {
		return ""
	}
	return fmt.Sprintf("binary not found at '%s'", p.path)
}

// resolveBinary checks an absolute path for an executable file, or falls
// back to PATH lookup for bare names.
func resolveBinary(path string) bool {
	if filepath.IsAbs(path) {
		info, err := os.Stat(path)
		return err == nil && !info.IsDir() && info.Mode()&0111 != 0
	}
	_, err := exec.LookPath(path)
	return err == nil
}
