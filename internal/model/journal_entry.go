package model

import (
	"time"
)

type JournalEntry struct {
	Key      string
	Token    string
	Outcome  string
	Success  bool
	Executed time.Time
}
