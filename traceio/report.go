package traceio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sarchlab/armcachesim/cache"
)

// RunStats is the global summary added to the per-cache Reports at
// teardown: instruction, load, and store counts alongside the three
// cache.Report snapshots.
type RunStats struct {
	Caches     [3]cache.Report `json:"caches"`
	InsnCount  uint64          `json:"insn_count"`
	LoadCount  uint64          `json:"load_count"`
	StoreCount uint64          `json:"store_count"`
}

// WriteJSON serializes stats as indented JSON (json.MarshalIndent plus
// a direct write), followed by a newline.
func WriteJSON(w io.Writer, stats RunStats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("traceio: marshal stats: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("traceio: write stats: %w", err)
	}

	_, err = fmt.Fprintln(w)
	return err
}

// WriteTable prints a human-readable stats table: per cache, load/store
// hits/misses/miss-rates, compulsory misses, and evictions, followed by
// the global counters.
func WriteTable(w io.Writer, stats RunStats) {
	for _, r := range stats.Caches {
		fmt.Fprintf(w, "%-8s load=%d/%d (miss rate %.3f)  store=%d/%d (miss rate %.3f)  compulsory=%d  evictions=%d\n",
			r.Name, r.LoadHits, r.LoadMisses, r.LoadMissRate,
			r.StoreHits, r.StoreMisses, r.StoreMissRate,
			r.CompulsoryMisses, r.Evictions)
	}

	fmt.Fprintf(w, "insn_count=%d  load_count=%d  store_count=%d\n",
		stats.InsnCount, stats.LoadCount, stats.StoreCount)
}
