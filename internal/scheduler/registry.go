package scheduler

import (
	"context"
	"time"
)

// Job is a recurring task run by the scheduler.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Entry binds a job to its cadence. Lock is optional; when set, a cycle is
// skipped if another instance holds it.
type Entry struct {
	Job      Job
	Interval time.Duration
	Lock     Lock
}

// Registry tracks scheduled entries.
type Registry struct {
	entries []Entry
}

// NewRegistry builds a registry preloaded with entries. Entries without a job are dropped.
func NewRegistry(entries ...Entry) *Registry {
	registry := &Registry{}
	for _, entry := range entries {
		registry.Register(entry)
	}
	return registry
}

// Register adds an entry.
func (r *Registry) Register(entry Entry) {
	if entry.Job == nil {
		return
	}
	r.entries = append(r.entries, entry)
}

// Entries returns the registered entries in the order they were added.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}
