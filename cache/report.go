package cache

// Report is the ordered stats snapshot used for teardown output: per
// cache, load hits/misses/miss-rate, store hits/misses/miss-rate,
// compulsory misses, and evictions, labeled by the cache's name.
type Report struct {
	Name             string  `json:"name"`
	LoadHits         uint64  `json:"load_hits"`
	LoadMisses       uint64  `json:"load_misses"`
	LoadMissRate     float64 `json:"load_miss_rate"`
	StoreHits        uint64  `json:"store_hits"`
	StoreMisses      uint64  `json:"store_misses"`
	StoreMissRate    float64 `json:"store_miss_rate"`
	CompulsoryMisses uint64  `json:"compulsory_misses"`
	Evictions        uint64  `json:"evictions"`
}

// missRate returns misses/(hits+misses), or 0 if there were no accesses
// of that kind at all.
func missRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}

	return float64(misses) / float64(total)
}

// ReportFor builds a Report for c, labeled name.
func ReportFor(name string, c *Cache) Report {
	s := c.Stats()

	return Report{
		Name:             name,
		LoadHits:         s.LoadHits,
		LoadMisses:       s.LoadMisses,
		LoadMissRate:     missRate(s.LoadHits, s.LoadMisses),
		StoreHits:        s.StoreHits,
		StoreMisses:      s.StoreMisses,
		StoreMissRate:    missRate(s.StoreHits, s.StoreMisses),
		CompulsoryMisses: s.CompulsoryMisses,
		Evictions:        s.Evictions,
	}
}
