package governance

import "time"

// CacheInfoMap holds the last successful fetch time per cache key
type CacheInfoMap map[string]time.Time

// IsValid reports whether key was fetched less than period before now
func (m CacheInfoMap) IsValid(key string, period time.Duration, now time.Time) bool {
	t, ok := m[key]
	if !ok {
		return false
	}

	return now.Sub(t) < period
}
