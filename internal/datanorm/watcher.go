package datanorm

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Watcher polls an S3 bucket for new campaign-report CSVs and feeds them
// through the Importer. Files are tracked in report_import_log so a restart
// never re-imports a completed file and a crash leaves work resumable.
type Watcher struct {
	s3Client  *s3.Client
	db        *sql.DB
	bucket    string
	importer  *Importer
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	lastRunAt time.Time
	healthy   bool
	running   int32
}

// NewWatcher creates a Watcher for the configured bucket.
func NewWatcher(db *sql.DB, store RecordStore, cfg Config) (*Watcher, error) {
	ctx := context.Background()

	var awsCfg aws.Config
	var err error
	if cfg.AWSProfile != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithSharedConfigProfile(cfg.AWSProfile),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Watcher{
		s3Client: s3.NewFromConfig(awsCfg),
		db:       db,
		bucket:   cfg.Bucket,
		importer: NewImporter(store),
		interval: interval,
		healthy:  true,
	}, nil
}

// Start launches the polling loop.
func (w *Watcher) Start() {
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.ensureSchema()
	go func() {
		w.resumeStuck()
		w.runOnce()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.runOnce()
			}
		}
	}()
}

// Stop cancels the polling loop.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *Watcher) IsHealthy() bool      { return w.healthy }
func (w *Watcher) LastRunAt() time.Time { return w.lastRunAt }
func (w *Watcher) IsRunning() bool      { return atomic.LoadInt32(&w.running) == 1 }

// ManualTrigger runs a single ingest cycle immediately.
func (w *Watcher) ManualTrigger() {
	go w.runOnce()
}

// runOnce executes one cycle: discover new files, then process a batch.
func (w *Watcher) runOnce() {
	if !atomic.CompareAndSwapInt32(&w.running, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&w.running, 0)

	ctx := w.ctx
	w.lastRunAt = time.Now()
	w.healthy = true

	w.discoverFiles(ctx)
	w.processQueue(ctx)
}

// discoverFiles scans the bucket and inserts every new CSV as a pending
// entry. Already-known files are skipped via ON CONFLICT.
func (w *Watcher) discoverFiles(ctx context.Context) {
	paginator := s3.NewListObjectsV2Paginator(w.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(w.bucket),
	})

	inserted := 0
	for paginator.HasMorePages() {
		if ctx.Err() != nil {
			return
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			log.Printf("[ingest] list S3 objects error: %v", err)
			w.healthy = false
			return
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)

			if obj.Size == nil || *obj.Size == 0 {
				continue
			}
			if strings.HasPrefix(key, "processed/") {
				continue
			}
			if !strings.HasSuffix(strings.ToLower(key), ".csv") {
				continue
			}

			res, err := w.db.ExecContext(ctx,
				`INSERT INTO report_import_log (file_key, status, file_size)
				 VALUES ($1, 'pending', $2)
				 ON CONFLICT (file_key) DO NOTHING`,
				key, *obj.Size,
			)
			if err != nil {
				log.Printf("[ingest] insert pending %s: %v", key, err)
				continue
			}
			if rows, _ := res.RowsAffected(); rows > 0 {
				inserted++
			}
		}
	}

	if inserted > 0 {
		log.Printf("[ingest] discovered %d new report files", inserted)
	}
}

// processQueue picks pending files (smallest first) and processes them
// concurrently with a semaphore of 4.
func (w *Watcher) processQueue(ctx context.Context) {
	rows, err := w.db.QueryContext(ctx,
		`SELECT file_key FROM report_import_log
		 WHERE status = 'pending'
		 ORDER BY file_size ASC
		 LIMIT 10`)
	if err != nil {
		log.Printf("[ingest] query queue: %v", err)
		return
	}

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err == nil {
			keys = append(keys, k)
		}
	}
	rows.Close()

	if len(keys) == 0 {
		return
	}

	log.Printf("[ingest] processing batch of %d files from queue", len(keys))

	sem := make(chan struct{}, 4)
	var wg sync.WaitGroup
	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(k string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := w.processFile(ctx, k); err != nil {
				log.Printf("[ingest] process file %s error: %v", k, err)
			}
		}(key)
	}
	wg.Wait()
}

// processFile claims a pending file, streams it through the importer, and
// archives it under processed/. A file another worker already claimed is
// skipped silently.
func (w *Watcher) processFile(ctx context.Context, key string) error {
	res, err := w.db.ExecContext(ctx,
		`UPDATE report_import_log
		 SET status='processing', retry_count=retry_count+1, started_at=NOW()
		 WHERE file_key=$1 AND status='pending'`, key)
	if err != nil {
		return fmt.Errorf("claim file: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil
	}

	log.Printf("[ingest] processing %s", key)
	start := time.Now()

	getOutput, err := w.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		w.markFailed(ctx, key, fmt.Sprintf("get S3 object: %v", err))
		return fmt.Errorf("get S3 object: %w", err)
	}
	defer getOutput.Body.Close()

	imported, errCount, importErr := w.importer.ImportFromReader(ctx, getOutput.Body, key)
	if importErr != nil {
		w.markFailed(ctx, key, importErr.Error())
		return importErr
	}

	archivedKey := "processed/" + key
	_, copyErr := w.s3Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(w.bucket),
		CopySource: aws.String(w.bucket + "/" + key),
		Key:        aws.String(archivedKey),
	})
	if copyErr != nil {
		log.Printf("[ingest] copy to %s failed: %v", archivedKey, copyErr)
	} else {
		if _, delErr := w.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(w.bucket),
			Key:    aws.String(key),
		}); delErr != nil {
			log.Printf("[ingest] delete original %s failed: %v", key, delErr)
		}
	}

	w.db.ExecContext(ctx,
		`UPDATE report_import_log
		 SET status='completed', record_count=$1, error_count=$2, processed_at=NOW()
		 WHERE file_key=$3`,
		imported, errCount, key,
	)

	log.Printf("[ingest] completed %s: imported=%d errors=%d duration=%s",
		key, imported, errCount, time.Since(start).Round(time.Millisecond))
	return nil
}

func (w *Watcher) markFailed(ctx context.Context, key, errMsg string) {
	w.db.ExecContext(ctx,
		`UPDATE report_import_log SET status='failed', error_message=$1 WHERE file_key=$2`,
		errMsg, key,
	)
}

// resumeStuck resets files left in 'processing' (from a prior crash) back to
// 'pending'. Files past the retry limit are marked failed.
func (w *Watcher) resumeStuck() {
	ctx := w.ctx
	w.db.ExecContext(ctx,
		`UPDATE report_import_log SET status='pending'
		 WHERE status='processing' AND retry_count < 3`)
	w.db.ExecContext(ctx,
		`UPDATE report_import_log SET status='failed', error_message='max retries exceeded'
		 WHERE status='processing' AND retry_count >= 3`)
}

// ensureSchema creates the import-log table when missing. Idempotent.
func (w *Watcher) ensureSchema() {
	_, err := w.db.Exec(`
		CREATE TABLE IF NOT EXISTS report_import_log (
			file_key      TEXT PRIMARY KEY,
			status        TEXT NOT NULL DEFAULT 'pending'
			              CHECK (status IN ('pending','processing','completed','failed')),
			file_size     BIGINT DEFAULT 0,
			retry_count   INTEGER DEFAULT 0,
			record_count  INTEGER DEFAULT 0,
			error_count   INTEGER DEFAULT 0,
			error_message TEXT,
			started_at    TIMESTAMPTZ,
			processed_at  TIMESTAMPTZ,
			created_at    TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		log.Printf("[ingest] schema migration (non-fatal): %v", err)
	}
}
