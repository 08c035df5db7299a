package filters

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDesignCacheSize holds the designs for a handful of common rates
const DefaultDesignCacheSize = 16

type designKey struct {
	low, high  float64
	sampleRate int
	order      int
}

// DesignCache memoizes ButterBandpass results in a bounded LRU. Designs are
// pure functions of (band, order, sample rate), so a cache can be shared
// across goroutines. Callers always receive their own copy.
//
// A nil *DesignCache is valid and designs on every call.
type DesignCache struct {
	designs *lru.Cache[designKey, *Coefficients]
}

// NewDesignCache creates an empty cache holding at most capacity designs.
// A capacity <= 0 returns a nil cache that never stores anything.
func NewDesignCache(capacity int) *DesignCache {
	if capacity <= 0 {
		return nil
	}
	designs, err := lru.New[designKey, *Coefficients](capacity)
	if err != nil {
		return nil
	}
	return &DesignCache{designs: designs}
}

// ButterBandpass returns cached coefficients or designs and stores them.
// Failed designs are not cached.
func (dc *DesignCache) ButterBandpass(lowHz, highHz float64, sampleRate, order int) (*Coefficients, error) {
	if dc == nil {
		return ButterBandpass(lowHz, highHz, sampleRate, order)
	}

	key := designKey{low: lowHz, high: highHz, sampleRate: sampleRate, order: order}
	if coeffs, ok := dc.designs.Get(key); ok {
		return coeffs.Clone(), nil
	}

	coeffs, err := ButterBandpass(lowHz, highHz, sampleRate, order)
	if err != nil {
		return nil, err
	}
	dc.designs.Add(key, coeffs)

	return coeffs.Clone(), nil
}

// Len returns the number of cached designs.
func (dc *DesignCache) Len() int {
	if dc == nil {
		return 0
	}
	return dc.designs.Len()
}
