package database

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chdb/checkers/internal/models"
	"github.com/chdb/checkers/internal/notation"
)

type ArchiveImporter struct {
	db          *DB
	batchSize   int
	numWorkers  int
	importStats atomic.Uint64
	failedStats atomic.Uint64
}

func NewArchiveImporter(db *DB, batchSize, numWorkers int) *ArchiveImporter {
	if batchSize <= 0 {
		batchSize = 100
	}
	if numWorkers <= 0 {
		numWorkers = 4
	}

	return &ArchiveImporter{
		db:         db,
		batchSize:  batchSize,
		numWorkers: numWorkers,
	}
}

type ImportJob struct {
	Game      *models.ArchivedGame
	Positions []notation.Position
}

type ImportProgress struct {
	TotalProcessed uint64
	Imported       uint64
	Failed         uint64
	CurrentGame    string
	Timestamp      time.Time
}

// ImportWithChannels stores parsed games as they arrive. Results that
// carry a parse error are counted as failed. progressChan, when given,
// receives one update per game read and is closed on return.
func (ai *ArchiveImporter) ImportWithChannels(ctx context.Context, results <-chan notation.ParseResult, progressChan chan<- ImportProgress) error {
	jobs := make(chan ImportJob, ai.batchSize)
	errs := make(chan error, ai.numWorkers)

	var wg sync.WaitGroup

	for i := 0; i < ai.numWorkers; i++ {
		wg.Add(1)
		go ai.importWorker(ctx, jobs, errs, &wg)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)

		for res := range results {
			if res.Error != nil || res.Game == nil {
				ai.failedStats.Add(1)
				continue
			}

			select {
			case <-ctx.Done():
				go drain(results)
				return
			case jobs <- ImportJob{Game: res.Game, Positions: res.Positions}:
			}

			if progressChan != nil {
				progress := ImportProgress{
					TotalProcessed: ai.importStats.Load() + ai.failedStats.Load(),
					Imported:       ai.importStats.Load(),
					Failed:         ai.failedStats.Load(),
					CurrentGame:    res.Game.Red + " vs " + res.Game.Black,
					Timestamp:      time.Now(),
				}
				select {
				case <-ctx.Done():
					go drain(results)
					return
				case progressChan <- progress:
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(errs)
	}()

	var lastErr error
	for err := range errs {
		if err != nil {
			lastErr = err
		}
	}

	if progressChan != nil {
		close(progressChan)
	}

	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return lastErr
}

func (ai *ArchiveImporter) importWorker(ctx context.Context, jobs <-chan ImportJob, errs chan<- error, wg *sync.WaitGroup) {
	defer wg.Done()

	batch := make([]ImportJob, 0, ai.batchSize)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		tx, err := ai.db.conn.Begin()
		if err != nil {
			ai.report(errs, err)
			ai.failedStats.Add(uint64(len(batch)))
			batch = batch[:0]
			return
		}

		var inserted uint64
		for _, job := range batch {
			if err := insertWithSavepoint(tx, job); err != nil {
				ai.failedStats.Add(1)
			} else {
				inserted++
			}
		}

		if err := tx.Commit(); err != nil {
			ai.report(errs, err)
			ai.failedStats.Add(inserted)
		} else {
			ai.importStats.Add(inserted)
		}

		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case job, ok := <-jobs:
			if !ok {
				flush()
				return
			}

			batch = append(batch, job)
			if len(batch) >= ai.batchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

// insertWithSavepoint stores one game inside the batch transaction and
// undoes its partial rows when any insert fails.
func insertWithSavepoint(tx *sql.Tx, job ImportJob) error {
	if _, err := tx.Exec("SAVEPOINT archive_game"); err != nil {
		return err
	}
	if _, err := insertArchivedGameInTx(tx, job.Game, job.Positions); err != nil {
		if _, rbErr := tx.Exec("ROLLBACK TO archive_game"); rbErr != nil {
			return rbErr
		}
		tx.Exec("RELEASE archive_game")
		return err
	}
	_, err := tx.Exec("RELEASE archive_game")
	return err
}

// drain lets upstream parsers finish after the import is cancelled.
func drain(results <-chan notation.ParseResult) {
	for range results {
	}
}

// report keeps the worker running when nobody is draining errs.
func (ai *ArchiveImporter) report(errs chan<- error, err error) {
	select {
	case errs <- err:
	default:
	}
}

func (ai *ArchiveImporter) GetStats() (imported, failed uint64) {
	return ai.importStats.Load(), ai.failedStats.Load()
}

func (ai *ArchiveImporter) ResetStats() {
	ai.importStats.Store(0)
	ai.failedStats.Store(0)
}
