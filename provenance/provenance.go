// Package provenance labels a decoded WebAssembly binary with the Go
// module that produced it, when one is discoverable. This is ambient
// metadata that the CLI front-end (cmd/wassail) logs; the report
// package's output does not carry it, and the core never consults it: §1 scopes module/CFG
// construction out, and a source-level go.mod has no bearing on the
// abstract interpretation itself.
//
// Grounded on the teacher's inspector/repository/detector.go, which
// walks up from a file to the nearest go.mod and parses it with
// golang.org/x/mod/modfile for the module path. TinyGo and wazero's own
// build chain are the common case a .wasm binary in this module's
// domain comes from, so only the go.mod marker is kept — the teacher's
// multi-language marker list (pom.xml, package.json, Cargo.toml, ...)
// has no referent here.
package provenance

import (
	"context"
	"os"
	"path/filepath"

	"github.com/viant/afs"
	"golang.org/x/mod/modfile"
)

// Info is what provenance.Detect recovers about the Go module that
// produced a .wasm binary.
type Info struct {
	// ModulePath is the go.mod module directive's path, e.g.
	// "github.com/example/wasm-app".
	ModulePath string
	// RootDir is the directory containing the discovered go.mod.
	RootDir string
}

// Detector walks up from a starting file or directory looking for the
// nearest go.mod, the way the teacher's Detector walks up looking for
// any of several project markers.
type Detector struct {
	fs afs.Service
}

// New builds a Detector backed by a default afs.Service, which reads
// the go.mod once found. The walk-up search itself uses os.Stat on the
// local filesystem, so s3:// and gs:// paths are not searched.
func New() *Detector {
	return &Detector{fs: afs.New()}
}

// Detect walks up from path (a file or directory) looking for the
// nearest go.mod and parses it for the module path. It returns
// ok=false, with no error, when no go.mod is found before reaching the
// filesystem root — that is the common case for a standalone .wasm
// binary with no accompanying Go source tree, not a failure.
func (d *Detector) Detect(ctx context.Context, path string) (Info, bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Info{}, false, err
	}

	startDir := absPath
	if fi, statErr := os.Stat(absPath); statErr == nil && !fi.IsDir() {
		startDir = filepath.Dir(absPath)
	}

	dir := startDir
	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, statErr := os.Stat(goModPath); statErr == nil {
			modulePath, err := d.parseModulePath(ctx, goModPath)
			if err != nil {
				return Info{}, false, err
			}
			return Info{ModulePath: modulePath, RootDir: dir}, true, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Info{}, false, nil
		}
		dir = parent
	}
}

func (d *Detector) parseModulePath(ctx context.Context, goModPath string) (string, error) {
	content, err := d.fs.DownloadWithURL(ctx, goModPath)
	if err != nil {
		return "", err
	}
	mod, err := modfile.Parse(goModPath, content, nil)
	if err != nil {
		return "", err
	}
	return mod.Module.Mod.Path, nil
}
