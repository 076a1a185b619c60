package inmemory_command_journal

import (
	"slices"
	"sync"

	"github.com/horockey/orbcomm/internal/model"
	"github.com/horockey/orbcomm/internal/repository/command_journal"
	"github.com/prometheus/client_golang/prometheus"
)

var _ command_journal.Repository = &inmemoryCommandJournal{}

const defaultCapacity = 256

// Bounded in-memory journal. Oldest entries fall off the back.
type inmemoryCommandJournal struct {
	mu       sync.RWMutex
	entries  []model.JournalEntry
	capacity int
	metrics  *metrics
}

func New(capacity int) *inmemoryCommandJournal {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	repo := inmemoryCommandJournal{
		capacity: capacity,
	}
	repo.metrics = newMetrics(&repo)
	return &repo
}

func (repo *inmemoryCommandJournal) Append(entry model.JournalEntry) error {
	repo.metrics.appendCnt.Inc()

	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.entries = append(repo.entries, entry)
	if len(repo.entries) > repo.capacity {
		repo.entries = repo.entries[len(repo.entries)-repo.capacity:]
	}

	return nil
}

func (repo *inmemoryCommandJournal) Recent(n int) ([]model.JournalEntry, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	res := slices.Clone(repo.entries)
	slices.Reverse(res)

	if n > 0 && len(res) > n {
		res = res[:n]
	}

	return res, nil
}

func (repo *inmemoryCommandJournal) Metrics() []prometheus.Collector {
	return repo.metrics.list()
}
