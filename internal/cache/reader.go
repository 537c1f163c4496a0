package cache

import (
	"github.com/Sumatoshi-tech/fileurl/pkg/gitconfig"
)

// ConfigReader matches locator.ConfigReader.
type ConfigReader interface {
	Read(dir, relPath string) (gitconfig.Record, error)
}

// Reader memoizes another ConfigReader. Empty records (absent files) are cached
// too, since most reads of an ancestor walk find nothing. Errors are not cached.
type Reader struct {
	inner ConfigReader
	cache *RecordCache
}

// NewReader wraps inner with cache.
func NewReader(inner ConfigReader, cache *RecordCache) *Reader {
	return &Reader{inner: inner, cache: cache}
}

// Read returns the cached record for dir/relPath, reading through on a miss.
func (r *Reader) Read(dir, relPath string) (gitconfig.Record, error) {
	key := dir + "\x00" + relPath

	if rec, ok := r.cache.Get(key); ok {
		return rec, nil
	}

	rec, err := r.inner.Read(dir, relPath)
	if err != nil {
		return gitconfig.Record{}, err
	}

	r.cache.Put(key, rec)

	return rec, nil
}

// Stats reports the underlying cache counters.
func (r *Reader) Stats() Stats {
	return r.cache.Stats()
}
