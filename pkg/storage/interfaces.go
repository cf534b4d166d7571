package storage

// CacheStats represents cache statistics
type CacheStats struct {
	Size    int    `json:"size"`
	MaxSize int    `json:"max_size"`
	TTL     string `json:"ttl"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}
