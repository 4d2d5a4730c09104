package datanorm

import "time"

// Config holds ingest watcher configuration.
type Config struct {
	Bucket     string
	Region     string
	AWSProfile string
	Interval   time.Duration
}

// ImportResult tracks the outcome of one file import.
type ImportResult struct {
	FileKey      string
	ImportedRows int
	ErrorRows    int
	Duration     time.Duration
}
