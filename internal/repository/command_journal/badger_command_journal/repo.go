package badger_command_journal

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/horockey/orbcomm/internal/model"
	"github.com/horockey/orbcomm/internal/repository/command_journal"
	"github.com/prometheus/client_golang/prometheus"
)

var _ command_journal.Repository = &badgerCommandJournal{}

// Persistent journal. Keys are zero-padded nanosecond timestamps plus
// an in-process sequence number, so iteration order is append order.
type badgerCommandJournal struct {
	db      *badger.DB
	seq     atomic.Uint64
	metrics *metrics
}

func New(db *badger.DB) *badgerCommandJournal {
	return &badgerCommandJournal{
		db:      db,
		metrics: newMetrics(db),
	}
}

func (repo *badgerCommandJournal) Append(entry model.JournalEntry) (resErr error) {
	defer func(ts time.Time) {
		repo.metrics.appendCnt.Inc()
		repo.metrics.handleTimeHist.Observe(float64(time.Since(ts)))

		switch resErr {
		case nil:
			repo.metrics.successProcessCnt.Inc()
		default:
			repo.metrics.errProcessCnt.Inc()
		}
	}(time.Now())

	buf := bytes.Buffer{}
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return fmt.Errorf("encoding gob: %w", err)
	}

	key := fmt.Sprintf("%020d-%010d", entry.Executed.UnixNano(), repo.seq.Add(1))

	if err := repo.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), buf.Bytes())
	}); err != nil {
		return fmt.Errorf("writing to db: %w", err)
	}

	return nil
}

func (repo *badgerCommandJournal) Recent(n int) (res []model.JournalEntry, resErr error) {
	defer func(ts time.Time) {
		repo.metrics.handleTimeHist.Observe(float64(time.Since(ts)))

		switch resErr {
		case nil:
			repo.metrics.successProcessCnt.Inc()
		default:
			repo.metrics.errProcessCnt.Inc()
		}
	}(time.Now())

	if err := repo.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// 0xFF sorts after every timestamp key.
		for it.Seek([]byte{0xFF}); it.Valid(); it.Next() {
			if n > 0 && len(res) >= n {
				break
			}

			entry := model.JournalEntry{}
			if err := it.Item().Value(func(val []byte) error {
				if err := gob.
					NewDecoder(bytes.NewBuffer(val)).
					Decode(&entry); err != nil {
					return fmt.Errorf("decoding gob: %w", err)
				}
				return nil
			}); err != nil {
				return fmt.Errorf("getting value: %w", err)
			}

			res = append(res, entry)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("reading from db: %w", err)
	}

	return res, nil
}

func (repo *badgerCommandJournal) Metrics() []prometheus.Collector {
	return repo.metrics.list()
}
