/*
Package dampbn is a library for converting images into pictures for the
DamPBN paint-by-number game.
*/
package dampbn

import (
	"log"
	"sync"
)

type DamPBN struct {
	db     *CatalogDB
	logger *log.Logger
}

// New returns a converter. db may be nil in which case nothing is cached.
func New(db *CatalogDB, logger *log.Logger) *DamPBN {
	return &DamPBN{
		db:     db,
		logger: logger,
	}
}

// Skip records an image that couldn't be converted.
type Skip struct {
	File string
	Err  error
}

// Report summarises a conversion run.
type Report struct {
	mu        sync.Mutex
	Converted int
	Cached    int
	Skipped   []Skip
}

func (r *Report) converted(cached bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Converted++
	if cached {
		r.Cached++
	}
}

func (r *Report) skip(file string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Skipped = append(r.Skipped, Skip{file, err})
}
