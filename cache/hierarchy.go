package cache

import "errors"

// ErrInvalidCache is returned when an injection plan or lookup names a
// cache that does not exist in the hierarchy.
var ErrInvalidCache = errors.New("cache: unknown cache target")

// Target names one of the three caches in a Hierarchy.
type Target string

// The three cache targets a Hierarchy exposes.
const (
	ICache  Target = "icache"
	DCache  Target = "dcache"
	L2Cache Target = "l2cache"
)

// DefaultIConfig is the I-cache configuration this model assumes:
// 32 KiB, 4-way, 32-byte line, RANDOM, NO_WRITE_ALLOCATE.
func DefaultIConfig() Config {
	return Config{
		Size:          32 * 1024,
		Associativity: 4,
		BlockSize:     32,
		Replace:       Random,
		Allocate:      NoWriteAllocate,
	}
}

// DefaultDConfig is the D-cache configuration this model assumes:
// 32 KiB, 4-way, 32-byte line, RANDOM, NO_WRITE_ALLOCATE.
func DefaultDConfig() Config {
	return Config{
		Size:          32 * 1024,
		Associativity: 4,
		BlockSize:     32,
		Replace:       Random,
		Allocate:      NoWriteAllocate,
	}
}

// DefaultL2Config is the L2 configuration this model assumes:
// 512 KiB, 8-way, 32-byte line, ROUND_ROBIN, WRITE_ALLOCATE.
func DefaultL2Config() Config {
	return Config{
		Size:          512 * 1024,
		Associativity: 8,
		BlockSize:     32,
		Replace:       RoundRobin,
		Allocate:      WriteAllocate,
	}
}

// Hierarchy owns the three cache levels and routes first-level misses
// to L2. It is an explicit struct rather than bare package globals, so
// teardown and multiple independent instances (as tests need) are
// trivial. Default provides a process-global instance for callers that
// want a plain singleton.
type Hierarchy struct {
	I  *Cache
	D  *Cache
	L2 *Cache
}

// NewHierarchy creates a Hierarchy with the given per-level
// configurations.
func NewHierarchy(iConfig, dConfig, l2Config Config) (*Hierarchy, error) {
	i, err := New(iConfig)
	if err != nil {
		return nil, err
	}

	d, err := New(dConfig)
	if err != nil {
		return nil, err
	}

	l2, err := New(l2Config)
	if err != nil {
		return nil, err
	}

	return &Hierarchy{I: i, D: d, L2: l2}, nil
}

// NewDefaultHierarchy creates a Hierarchy using the three default
// per-level configurations.
func NewDefaultHierarchy() *Hierarchy {
	h, err := NewHierarchy(DefaultIConfig(), DefaultDConfig(), DefaultL2Config())
	if err != nil {
		// The default configurations are constants known to satisfy
		// every precondition of New; a failure here would be a bug in
		// this package, not a runtime condition callers can act on.
		panic(err)
	}

	return h
}

// Close tears down all three caches. Safe to call more than once.
func (h *Hierarchy) Close() {
	h.I.Close()
	h.D.Close()
	h.L2.Close()
}

// cache resolves a Target to its Cache, or nil if unknown.
func (h *Hierarchy) cache(t Target) *Cache {
	switch t {
	case ICache:
		return h.I
	case DCache:
		return h.D
	case L2Cache:
		return h.L2
	default:
		return nil
	}
}

// Lookup resolves a Target to its Cache, returning ErrInvalidCache if
// the name is not one of icache/dcache/l2cache.
func (h *Hierarchy) Lookup(t Target) (*Cache, error) {
	c := h.cache(t)
	if c == nil {
		return nil, ErrInvalidCache
	}

	return c, nil
}

// ILoad performs an instruction fetch: an I-cache load that forwards
// to L2 on miss.
func (h *Hierarchy) ILoad(addr uint64) Result {
	if h.I.Load(addr) == Hit {
		return Hit
	}

	return h.L2.Load(addr)
}

// DLoad performs a data load: a D-cache load that forwards to L2 on
// miss.
func (h *Hierarchy) DLoad(addr uint64) Result {
	if h.D.Load(addr) == Hit {
		return Hit
	}

	return h.L2.Load(addr)
}

// DStore performs a data store: a D-cache store that forwards to L2 on
// miss. L2 misses terminate the hierarchy; there is no RAM model to
// forward to beyond it.
func (h *Hierarchy) DStore(addr uint64) Result {
	if h.D.Store(addr) == Hit {
		return Hit
	}

	return h.L2.Store(addr)
}

// IInvalidateAll implements icache_invalidate_all, the hook the access
// driver calls on a decoded ICIALLU instruction.
func (h *Hierarchy) IInvalidateAll() {
	h.I.InvalidateAll()
}

// DInvalidateBlock implements dcache_invalidate_block, the hook the
// access driver calls on a decoded DCISW instruction.
func (h *Hierarchy) DInvalidateBlock(row, way int) {
	h.D.InvalidateBlock(row, way)
}

// Reports returns the stats snapshot of all three caches, in
// icache/dcache/l2cache order.
func (h *Hierarchy) Reports() [3]Report {
	return [3]Report{
		ReportFor(string(ICache), h.I),
		ReportFor(string(DCache), h.D),
		ReportFor(string(L2Cache), h.L2),
	}
}

var defaultHierarchy *Hierarchy

// Default returns the process-global Hierarchy, constructing it with
// the default per-level configurations on first use.
func Default() *Hierarchy {
	if defaultHierarchy == nil {
		defaultHierarchy = NewDefaultHierarchy()
	}

	return defaultHierarchy
}

// ResetDefault tears down and clears the process-global Hierarchy, so
// the next Default call builds a fresh one. Intended for tests that
// need isolation between cases exercising the singleton accessor.
func ResetDefault() {
	if defaultHierarchy != nil {
		defaultHierarchy.Close()
		defaultHierarchy = nil
	}
}
