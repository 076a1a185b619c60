package dto

import (
	"time"

	"github.com/horockey/orbcomm/internal/model"
)

type JournalEntry struct {
	Key      string `json:"key"`
	Token    string `json:"token"`
	Outcome  string `json:"outcome"`
	Success  bool   `json:"success"`
	Executed string `json:"executed"`
}

func NewJournalEntry(entry model.JournalEntry) JournalEntry {
	return JournalEntry{
		Key:      entry.Key,
		Token:    entry.Token,
		Outcome:  entry.Outcome,
		Success:  entry.Success,
		Executed: entry.Executed.Format(time.RFC3339),
	}
}
