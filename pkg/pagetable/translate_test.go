package pagetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingTables records the levels consulted during a walk.
type countingTables struct {
	Tables
	levels []Level
}

func (c *countingTables) Lookup(level Level, virtAddr uint64) (Entry, bool) {
	c.levels = append(c.levels, level)
	return c.Tables.Lookup(level, virtAddr)
}

func TestTranslateResolvesMappedPage(t *testing.T) {
	m := NewMemory()
	virtAddr := uint64(0x8080604000)
	m.Map(virtAddr, 0x2a000, FlagRW|FlagUser)

	phys, ok := Translate(m, virtAddr)
	require.True(t, ok)
	assert.Equal(t, uint64(0x2a000), phys)

	_, ok = Translate(m, virtAddr+PageSize)
	assert.False(t, ok, "neighbouring page was never mapped")
}

func TestTranslateShortCircuitsPerLevel(t *testing.T) {
	virtAddr := uint64(0x7f0000001000)

	specs := []struct {
		name      string
		mutate    func(m *Memory)
		expLookup []Level
	}{
		{
			name:      "missing top",
			mutate:    func(m *Memory) { m.Unmap(Top, virtAddr) },
			expLookup: []Level{Top},
		},
		{
			name:      "upper not present",
			mutate:    func(m *Memory) { m.SetEntry(Upper, virtAddr, NewEntry(0, FlagRW)) },
			expLookup: []Level{Top, Upper},
		},
		{
			name:      "middle maps a huge page",
			mutate:    func(m *Memory) { m.SetEntry(Middle, virtAddr, NewEntry(0x200000, FlagPresent|FlagHuge)) },
			expLookup: []Level{Top, Upper, Middle},
		},
		{
			name:      "upper has reserved bits",
			mutate:    func(m *Memory) { m.SetEntry(Upper, virtAddr, Entry(uint64(FlagPresent)|1<<55)) },
			expLookup: []Level{Top, Upper},
		},
		{
			name:      "missing leaf",
			mutate:    func(m *Memory) { m.Unmap(Leaf, virtAddr) },
			expLookup: []Level{Top, Upper, Middle, Leaf},
		},
		{
			name:      "leaf not present",
			mutate:    func(m *Memory) { m.SetEntry(Leaf, virtAddr, NewEntry(0x5000, FlagUser)) },
			expLookup: []Level{Top, Upper, Middle, Leaf},
		},
		{
			name:      "leaf points at frame zero",
			mutate:    func(m *Memory) { m.SetEntry(Leaf, virtAddr, NewEntry(0, FlagPresent)) },
			expLookup: []Level{Top, Upper, Middle, Leaf},
		},
	}

	for _, spec := range specs {
		t.Run(spec.name, func(t *testing.T) {
			m := NewMemory()
			m.Map(virtAddr, 0x5000, FlagUser)
			spec.mutate(m)

			tables := &countingTables{Tables: m}
			phys, ok := Translate(tables, virtAddr)
			assert.False(t, ok)
			assert.Zero(t, phys)
			assert.Equal(t, spec.expLookup, tables.levels)
		})
	}
}

func TestTranslateIgnoresHugeFlagOnLeaf(t *testing.T) {
	m := NewMemory()
	m.Map(0x1000, 0x9000, FlagHuge)

	phys, ok := Translate(m, 0x1000)
	require.True(t, ok)
	assert.Equal(t, uint64(0x9000), phys)
}

func TestIndex(t *testing.T) {
	// p4 index 1, p3 index 2, p2 index 3, p1 index 4
	virtAddr := uint64(0x8080604400)
	assert.Equal(t, uint64(1), Index(Top, virtAddr))
	assert.Equal(t, uint64(2), Index(Upper, virtAddr))
	assert.Equal(t, uint64(3), Index(Middle, virtAddr))
	assert.Equal(t, uint64(4), Index(Leaf, virtAddr))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "pgd", Top.String())
	assert.Equal(t, "pte", Leaf.String())
	assert.Equal(t, "unknown", Level(9).String())
}
