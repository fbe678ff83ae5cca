package server

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chdb/checkers/internal/database"
	"github.com/chdb/checkers/internal/notation"
)

const (
	jobRunning   = "running"
	jobCompleted = "completed"
	jobFailed    = "failed"
	jobCancelled = "cancelled"
)

type ProgressResponse struct {
	JobID          string    `json:"job_id"`
	Status         string    `json:"status"`
	TotalProcessed uint64    `json:"total_processed"`
	Imported       uint64    `json:"imported"`
	Failed         uint64    `json:"failed"`
	CurrentGame    string    `json:"current_game,omitempty"`
	Filename       string    `json:"filename,omitempty"`
	StartTime      time.Time `json:"start_time"`
	LastUpdate     time.Time `json:"last_update"`
}

type ImportJob struct {
	ID         string
	CancelFunc context.CancelFunc

	mu       sync.Mutex
	progress ProgressResponse
}

func (j *ImportJob) snapshot() ProgressResponse {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

func (j *ImportJob) update(fn func(p *ProgressResponse)) {
	j.mu.Lock()
	fn(&j.progress)
	j.mu.Unlock()
}

type BatchHandler struct {
	db         *database.DB
	parser     *notation.ConcurrentParser
	logger     *zap.Logger
	batchSize  int
	numWorkers int

	mu   sync.RWMutex
	jobs map[string]*ImportJob
}

func NewBatchHandler(db *database.DB, logger *zap.Logger, batchSize, numWorkers int) *BatchHandler {
	if batchSize <= 0 {
		batchSize = 50
	}
	if numWorkers <= 0 {
		numWorkers = 4
	}
	return &BatchHandler{
		db:         db,
		parser:     notation.NewConcurrentParser(numWorkers * 2),
		logger:     logger,
		batchSize:  batchSize,
		numWorkers: numWorkers,
		jobs:       make(map[string]*ImportJob),
	}
}

func (bh *BatchHandler) job(id string) (*ImportJob, bool) {
	bh.mu.RLock()
	defer bh.mu.RUnlock()
	job, ok := bh.jobs[id]
	return job, ok
}

// feed sends each game of content to the parser until ctx is done.
func feed(ctx context.Context, content string) <-chan string {
	texts := make(chan string, 100)
	go func() {
		defer close(texts)
		for _, text := range notation.SplitGames(content) {
			select {
			case texts <- text:
			case <-ctx.Done():
				return
			}
		}
	}()
	return texts
}

func (bh *BatchHandler) ImportLargeFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get file: " + err.Error()})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file: " + err.Error()})
		return
	}

	jobID := uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()

	job := &ImportJob{
		ID:         jobID,
		CancelFunc: cancel,
		progress: ProgressResponse{
			JobID:      jobID,
			Status:     jobRunning,
			Filename:   header.Filename,
			StartTime:  now,
			LastUpdate: now,
		},
	}

	bh.mu.Lock()
	bh.jobs[jobID] = job
	bh.mu.Unlock()

	go bh.processLargeImport(ctx, string(content), job)

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":   jobID,
		"filename": header.Filename,
		"status":   "started",
		"message":  "Import started. Use GET /api/v1/archive/import/progress/" + jobID + " to check progress",
	})
}

func (bh *BatchHandler) processLargeImport(ctx context.Context, content string, job *ImportJob) {
	defer job.CancelFunc()

	importer := database.NewArchiveImporter(bh.db, bh.batchSize, bh.numWorkers)
	progressChan := make(chan database.ImportProgress, 100)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for progress := range progressChan {
			job.update(func(p *ProgressResponse) {
				p.TotalProcessed = progress.TotalProcessed
				p.Imported = progress.Imported
				p.Failed = progress.Failed
				p.CurrentGame = progress.CurrentGame
				p.LastUpdate = progress.Timestamp
			})
		}
	}()

	results := bh.parser.StreamParse(feed(ctx, content))
	err := importer.ImportWithChannels(ctx, results, progressChan)
	<-done

	imported, failed := importer.GetStats()
	job.update(func(p *ProgressResponse) {
		p.Imported = imported
		p.Failed = failed
		p.TotalProcessed = imported + failed
		p.LastUpdate = time.Now()
		switch {
		case p.Status == jobCancelled:
		case err != nil:
			p.Status = jobFailed
		default:
			p.Status = jobCompleted
		}
	})

	fields := []zap.Field{
		zap.String("job_id", job.ID),
		zap.Uint64("imported", imported),
		zap.Uint64("failed", failed),
	}
	if err != nil {
		bh.logger.Warn("archive import stopped", append(fields, zap.Error(err))...)
		return
	}
	bh.logger.Info("archive import completed", fields...)
}

func (bh *BatchHandler) GetImportProgress(c *gin.Context) {
	job, exists := bh.job(c.Param("jobId"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, job.snapshot())
}

func (bh *BatchHandler) CancelImport(c *gin.Context) {
	jobID := c.Param("jobId")

	job, exists := bh.job(jobID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	job.update(func(p *ProgressResponse) {
		if p.Status == jobRunning {
			p.Status = jobCancelled
			p.LastUpdate = time.Now()
		}
	})
	job.CancelFunc()

	c.JSON(http.StatusOK, gin.H{
		"job_id": jobID,
		"status": job.snapshot().Status,
	})
}

// StreamImport imports the posted PDN and reports progress as
// Server-Sent Events, ending with a final summary event.
func (bh *BatchHandler) StreamImport(c *gin.Context) {
	var req struct {
		PDN string `json:"pdn" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	jobID := uuid.New().String()
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	importer := database.NewArchiveImporter(bh.db, bh.batchSize, bh.numWorkers)
	progressChan := make(chan database.ImportProgress, 10)

	results := bh.parser.StreamParse(feed(ctx, req.PDN))
	go func() {
		if err := importer.ImportWithChannels(ctx, results, progressChan); err != nil {
			bh.logger.Warn("streamed archive import stopped", zap.String("job_id", jobID), zap.Error(err))
		}
	}()

	c.Stream(func(w io.Writer) bool {
		select {
		case progress, ok := <-progressChan:
			if !ok {
				imported, failed := importer.GetStats()
				c.SSEvent("progress", ProgressResponse{
					JobID:          jobID,
					Status:         jobCompleted,
					TotalProcessed: imported + failed,
					Imported:       imported,
					Failed:         failed,
					LastUpdate:     time.Now(),
				})
				return false
			}

			c.SSEvent("progress", ProgressResponse{
				JobID:          jobID,
				Status:         jobRunning,
				TotalProcessed: progress.TotalProcessed,
				Imported:       progress.Imported,
				Failed:         progress.Failed,
				CurrentGame:    progress.CurrentGame,
				LastUpdate:     progress.Timestamp,
			})
			return true

		case <-ctx.Done():
			return false
		}
	})
}
