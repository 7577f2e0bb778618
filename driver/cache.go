package driver

import (
	"bytes"
	"encoding/binary"

	"github.com/minio/highwayhash"

	"github.com/viant/wassail/ir"
	"github.com/viant/wassail/summary"
)

// Cache is a content-hash-keyed incremental summary cache: a function
// whose body hashes identically to a previous run is assumed to have
// an unchanged summary and is not re-analyzed. Keying on content
// rather than function index lets a cache survive function reordering
// between runs of the same module.
// keySize is the highwayhash key length New64 requires.
const keySize = 32

type Cache struct {
	key     [keySize]byte
	entries map[uint64]*summary.Summary
}

// NewCache builds an empty cache keyed by key, which must be exactly
// keySize (32) bytes — callers typically derive it once per process
// and persist it alongside the cache contents.
func NewCache(key [keySize]byte) *Cache {
	return &Cache{key: key, entries: make(map[uint64]*summary.Summary)}
}

// Get returns the cached summary for f's current body, if any.
func (c *Cache) Get(f *ir.Func) (*summary.Summary, bool) {
	s, ok := c.entries[c.hash(f)]
	return s, ok
}

// Put records s as the summary for f's current body.
func (c *Cache) Put(f *ir.Func, s *summary.Summary) {
	c.entries[c.hash(f)] = s
}

// hash derives a deterministic content hash of a function's signature
// and CFG shape: argument/return/local types, and every instruction's
// op, operands, results, and call/memory metadata, in block-id then
// instruction order. Two functions with byte-identical behavior but
// different Idx still hash equal, which is the point — the cache key
// is "what this function does," not "which slot it occupies."
func (c *Cache) hash(f *ir.Func) uint64 {
	var buf bytes.Buffer
	writeTypes(&buf, f.ArgTypes)
	writeTypes(&buf, f.LocalTypes)
	writeTypes(&buf, f.ReturnTypes)
	if f.Body != nil {
		writeInt(&buf, len(f.Body.Blocks))
		ids := make([]ir.BlockID, 0, len(f.Body.Blocks))
		for id := range f.Body.Blocks {
			ids = append(ids, id)
		}
		sortBlockIDs(ids)
		for _, id := range ids {
			b := f.Body.Blocks[id]
			writeInt(&buf, int(id))
			buf.WriteByte(byte(b.Kind))
			for _, instr := range b.Instrs {
				writeInstr(&buf, instr)
			}
			writeInstr(&buf, b.Control)
		}
	}
	h, err := highwayhash.New64(c.key[:])
	if err != nil {
		// c.key is always keySize bytes by construction; New64 only ever
		// rejects a wrong-length key.
		panic(err)
	}
	h.Write(buf.Bytes())
	return h.Sum64()
}

func writeTypes(buf *bytes.Buffer, ts []ir.ValueType) {
	writeInt(buf, len(ts))
	for _, t := range ts {
		buf.WriteByte(byte(t))
	}
}

func writeInstr(buf *bytes.Buffer, instr ir.Instr) {
	buf.WriteString(string(instr.Op))
	writeInt(buf, instr.CalleeFuncIdx)
	writeInt(buf, instr.CalleeTypeIdx)
	writeInt(buf, instr.MemSize)
	writeInt(buf, instr.SlotIndex)
	writeVars(buf, instr.Operands)
	writeVars(buf, instr.Results)
}

func writeVars(buf *bytes.Buffer, vars []ir.Var) {
	writeInt(buf, len(vars))
	for _, v := range vars {
		buf.WriteByte(byte(v.Kind))
		writeInt(buf, v.Index)
	}
}

func writeInt(buf *bytes.Buffer, n int) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(int64(n)))
	buf.Write(b[:])
}

func sortBlockIDs(ids []ir.BlockID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
