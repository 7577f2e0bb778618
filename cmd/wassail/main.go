// Command wassail is a thin front-end wiring the core engine
// (package driver) to a module description on disk (or s3://, gs://
// via afs), the provenance detector, and the report writers. It is
// explicitly outside the "core" per §1 — nothing here participates in
// the abstract interpretation itself — but a real repo ships a binary,
// so this one mirrors the teacher's example-main shape
// (inspector/coder/example/main.go): load an input, drive the library,
// print what happened.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/viant/afs"

	"github.com/viant/wassail/callgraph"
	"github.com/viant/wassail/driver"
	"github.com/viant/wassail/ir"
	"github.com/viant/wassail/provenance"
	"github.com/viant/wassail/report"
	"github.com/viant/wassail/summary"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "wassail:", err)
		os.Exit(1)
	}
}

func run() error {
	modulePath := flag.String("module", "", "path (or afs URL) to a YAML-described ir.Module")
	dotPath := flag.String("dot", "", "path to write the call graph DOT export (stdout if empty)")
	summaryPath := flag.String("summary", "", "path to write the YAML summary table (stdout if empty)")
	indirect := flag.String("indirect", "table", "call_indirect resolution mode: table or type")
	narrow := flag.Bool("narrow", false, "re-run the analysis schedule once more after convergence (narrowing option)")
	flag.Parse()

	if *modulePath == "" {
		return fmt.Errorf("-module is required")
	}

	ctx := context.Background()
	mod, err := loadModule(ctx, *modulePath)
	if err != nil {
		return fmt.Errorf("loading module: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	resolution := callgraph.TableBased
	if *indirect == "type" {
		resolution = callgraph.TypeBased
	}

	if info, ok, provErr := provenance.New().Detect(ctx, *modulePath); provErr == nil && ok {
		logger.Info("detected source module", zap.String("modulePath", info.ModulePath), zap.String("rootDir", info.RootDir))
	}

	eng := driver.New(
		driver.WithLogger(logger),
		driver.WithIndirectResolution(resolution),
		driver.WithNarrowing(*narrow),
	)

	table, err := eng.Run(mod)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := writeDOT(mod, *dotPath); err != nil {
		return fmt.Errorf("writing dot export: %w", err)
	}
	if err := writeSummary(table, mod.NumNodes(), *summaryPath); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

// loadModule reads moduleURL via afs (so local paths, s3://, and gs://
// all work the same way) and unmarshals it as a YAML-described
// ir.Module. The core itself never sees this file; only the CLI does.
func loadModule(ctx context.Context, moduleURL string) (*ir.Module, error) {
	fs := afs.New()
	content, err := fs.DownloadWithURL(ctx, moduleURL)
	if err != nil {
		return nil, err
	}
	mod := &ir.Module{}
	if err := yaml.Unmarshal(content, mod); err != nil {
		return nil, err
	}
	return mod, nil
}

func writeDOT(mod *ir.Module, path string) error {
	graph := callgraph.Build(mod, callgraph.TableBased)
	name := func(nodeID int) string {
		if mod.IsImport(nodeID) {
			return mod.ImportedFuncs[nodeID].Name
		}
		return fmt.Sprintf("func%d", nodeID)
	}

	w, closeFn, err := openOutput(path)
	if err != nil {
		return err
	}
	defer closeFn()
	return report.WriteDOT(w, graph, name)
}

func writeSummary(table *summary.Table, nNodes int, path string) error {
	rendered := report.MarshalTable(table, nNodes)

	w, closeFn, err := openOutput(path)
	if err != nil {
		return err
	}
	defer closeFn()
	return report.WriteYAML(w, rendered)
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
