package report

import (
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/viant/wassail/intra"
	"github.com/viant/wassail/ir"
	"github.com/viant/wassail/lattice"
	"github.com/viant/wassail/summary"
	"github.com/viant/wassail/taint"
)

// Annotation is a rendered lattice.Result[taint.Map]: either a single
// state, a true/false pair, or neither (block never reached).
type Annotation struct {
	Reached bool                `yaml:"reached"`
	Branch  bool                `yaml:"branch"`
	State   map[string][]string `yaml:"state,omitempty"`
	True    map[string][]string `yaml:"true,omitempty"`
	False   map[string][]string `yaml:"false,omitempty"`
}

// AnnotatedInstr pairs one instruction's before/after annotation, keyed
// by its Label, matching §6's "each block and each instruction ... is
// decorated with (state_before, state_after)".
type AnnotatedInstr struct {
	Label  int        `yaml:"label"`
	Before Annotation `yaml:"before"`
	After  Annotation `yaml:"after"`
}

// AnnotatedBlock pairs one block's before/after annotation, matching
// the pre/post decoration §6 calls for ("each block ... is decorated
// with (state_before, state_after)"), plus every one of its
// instructions' own before/after pair.
type AnnotatedBlock struct {
	ID     int              `yaml:"id"`
	Kind   string           `yaml:"kind"`
	Before Annotation       `yaml:"before"`
	After  Annotation       `yaml:"after"`
	Instrs []AnnotatedInstr `yaml:"instrs,omitempty"`
}

// AnnotatedCFG is the analyze variant: a fresh annotation replacing
// whatever annotation (if any) preceded it.
type AnnotatedCFG struct {
	FuncIdx int              `yaml:"func_idx"`
	Blocks  []AnnotatedBlock `yaml:"blocks"`
}

// KeptInstr is one instruction of the analyze_keep variant: the
// previous annotation (nil if there was none) paired with the freshly
// computed one, keyed by Label.
type KeptInstr struct {
	Label    int         `yaml:"label"`
	Previous *Annotation `yaml:"previous,omitempty"`
	Current  Annotation  `yaml:"current"`
}

// KeptBlock is one block of the analyze_keep variant: the previous
// annotation (nil if there was none) paired with the freshly computed one.
type KeptBlock struct {
	ID       int         `yaml:"id"`
	Kind     string      `yaml:"kind"`
	Previous *Annotation `yaml:"previous,omitempty"`
	Current  Annotation  `yaml:"current"`
	Instrs   []KeptInstr `yaml:"instrs,omitempty"`
}

// AnnotatedCFGKeep is the analyze_keep variant of §6's annotated CFG.
type AnnotatedCFGKeep struct {
	FuncIdx int         `yaml:"func_idx"`
	Blocks  []KeptBlock `yaml:"blocks"`
}

// Analyze builds the analyze variant of the annotated CFG from a
// completed intra fixpoint's per-block and per-instruction tables:
// every block's (in, out) pair, and every instruction's (before, after)
// pair, rendered fresh, with no reference to any prior annotation.
func Analyze(funcIdx int, cfg *ir.CFG, blockData map[ir.BlockID]intra.BlockEntry[taint.Map], instrData map[int]intra.InstrEntry[taint.Map]) *AnnotatedCFG {
	out := &AnnotatedCFG{FuncIdx: funcIdx}
	for _, id := range sortedBlockIDs(cfg) {
		entry := blockData[id]
		block := cfg.Blocks[id]
		out.Blocks = append(out.Blocks, AnnotatedBlock{
			ID:     int(id),
			Kind:   blockKindName(block.Kind),
			Before: renderResult(entry.In),
			After:  renderResult(entry.Out),
			Instrs: renderInstrs(block, instrData),
		})
	}
	return out
}

// AnalyzeKeep builds the analyze_keep variant: each block's and each
// instruction's freshly computed annotation paired with whatever
// annotation `prev` recorded for that block id / instruction label,
// instead of discarding it (§6).
func AnalyzeKeep(prev *AnnotatedCFG, funcIdx int, cfg *ir.CFG, blockData map[ir.BlockID]intra.BlockEntry[taint.Map], instrData map[int]intra.InstrEntry[taint.Map]) *AnnotatedCFGKeep {
	prevByID := make(map[int]Annotation)
	prevInstrByLabel := make(map[int]Annotation)
	if prev != nil {
		for _, b := range prev.Blocks {
			prevByID[b.ID] = b.After
			for _, i := range b.Instrs {
				prevInstrByLabel[i.Label] = i.After
			}
		}
	}

	out := &AnnotatedCFGKeep{FuncIdx: funcIdx}
	for _, id := range sortedBlockIDs(cfg) {
		entry := blockData[id]
		block := cfg.Blocks[id]
		kept := KeptBlock{
			ID:      int(id),
			Kind:    blockKindName(block.Kind),
			Current: renderResult(entry.Out),
			Instrs:  renderKeptInstrs(block, instrData, prevInstrByLabel),
		}
		if prevAfter, ok := prevByID[int(id)]; ok {
			kept.Previous = &prevAfter
		}
		out.Blocks = append(out.Blocks, kept)
	}
	return out
}

// instrLabels returns the labels of a block's instructions in
// execution order: every Instrs entry for a Data block, or the sole
// Control instruction for a Control block. Merge blocks carry no
// instruction of their own.
func instrLabels(block *ir.Block) []int {
	switch block.Kind {
	case ir.BlockData:
		labels := make([]int, len(block.Instrs))
		for i, instr := range block.Instrs {
			labels[i] = instr.Label
		}
		return labels
	case ir.BlockControl:
		return []int{block.Control.Label}
	default:
		return nil
	}
}

func renderInstrs(block *ir.Block, instrData map[int]intra.InstrEntry[taint.Map]) []AnnotatedInstr {
	labels := instrLabels(block)
	out := make([]AnnotatedInstr, 0, len(labels))
	for _, label := range labels {
		entry := instrData[label]
		out = append(out, AnnotatedInstr{Label: label, Before: renderResult(entry.Before), After: renderResult(entry.After)})
	}
	return out
}

func renderKeptInstrs(block *ir.Block, instrData map[int]intra.InstrEntry[taint.Map], prevByLabel map[int]Annotation) []KeptInstr {
	labels := instrLabels(block)
	out := make([]KeptInstr, 0, len(labels))
	for _, label := range labels {
		entry := instrData[label]
		ki := KeptInstr{Label: label, Current: renderResult(entry.After)}
		if prevAfter, ok := prevByLabel[label]; ok {
			p := prevAfter
			ki.Previous = &p
		}
		out = append(out, ki)
	}
	return out
}

// WriteYAML marshals any of this package's report types (or the result
// of MarshalTable) to w.
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(v)
}

// SummaryEntry is one function's summary rendered for YAML output.
type SummaryEntry struct {
	FuncIdx     int                 `yaml:"func_idx"`
	Args        []string            `yaml:"args"`
	GlobalsPost []string            `yaml:"globals_post"`
	Ret         string              `yaml:"ret,omitempty"`
	State       map[string][]string `yaml:"state"`
}

// SummaryTable is a stabilized summary.Table rendered for YAML output,
// ordered by function index for a deterministic diff-friendly dump.
type SummaryTable struct {
	Functions []SummaryEntry `yaml:"functions"`
	Warnings  []string       `yaml:"warnings,omitempty"`
}

// MarshalTable renders t over the nNodes function indices [0, nNodes)
// into the YAML-ready SummaryTable shape.
func MarshalTable(t *summary.Table, nNodes int) *SummaryTable {
	out := &SummaryTable{Warnings: t.Warnings()}
	for funcIdx := 0; funcIdx < nNodes; funcIdx++ {
		s := t.Get(funcIdx)
		if s == nil {
			continue
		}
		entry := SummaryEntry{
			FuncIdx:     funcIdx,
			Args:        varNames(s.Args),
			GlobalsPost: varNames(s.GlobalsPost),
			State:       renderMap(s.State),
		}
		if s.Ret != nil {
			entry.Ret = s.Ret.String()
		}
		out.Functions = append(out.Functions, entry)
	}
	return out
}

func renderResult(r lattice.Result[taint.Map]) Annotation {
	switch r.Kind {
	case lattice.Simple:
		return Annotation{Reached: true, State: renderMap(r.State)}
	case lattice.Branch:
		return Annotation{Reached: true, Branch: true, True: renderMap(r.True), False: renderMap(r.False)}
	default:
		return Annotation{}
	}
}

func blockKindName(k ir.BlockKind) string {
	switch k {
	case ir.BlockData:
		return "data"
	case ir.BlockControl:
		return "control"
	case ir.BlockMerge:
		return "merge"
	default:
		return "unknown"
	}
}

func sortedBlockIDs(cfg *ir.CFG) []ir.BlockID {
	ids := make([]ir.BlockID, 0, len(cfg.Blocks))
	for id := range cfg.Blocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func varNames(vs []ir.Var) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

func renderMap(m taint.Map) map[string][]string {
	out := make(map[string][]string, len(m))
	for v, s := range m {
		out[v.String()] = renderSet(s)
	}
	return out
}

func renderSet(s taint.Set) []string {
	if s.IsTop() {
		return []string{"⊤"}
	}
	labels := s.Labels()
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = string(l)
	}
	sort.Strings(out)
	return out
}
