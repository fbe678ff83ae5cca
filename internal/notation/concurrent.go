package notation

import (
	"sync"

	"github.com/chdb/checkers/internal/models"
)

type ParseJob struct {
	PDN   string
	Index int
}

type ParseResult struct {
	Game      *models.ArchivedGame
	Positions []Position
	Index     int
	Error     error
}

type ConcurrentParser struct {
	parser     *Parser
	numWorkers int
}

func NewConcurrentParser(numWorkers int) *ConcurrentParser {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	return &ConcurrentParser{
		parser:     NewParser(),
		numWorkers: numWorkers,
	}
}

// ParseBatch parses one game per text. Results keep the input order; a
// failed text leaves a nil game and its error at the same index.
func (cp *ConcurrentParser) ParseBatch(texts []string) ([]*models.ArchivedGame, []error) {
	jobs := make(chan ParseJob, len(texts))
	results := make(chan ParseResult, len(texts))

	var wg sync.WaitGroup
	for i := 0; i < cp.numWorkers; i++ {
		wg.Add(1)
		go cp.worker(jobs, results, &wg)
	}

	go func() {
		for i, text := range texts {
			jobs <- ParseJob{PDN: text, Index: i}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	games := make([]*models.ArchivedGame, len(texts))
	errs := make([]error, len(texts))
	for result := range results {
		if result.Error != nil {
			errs[result.Index] = result.Error
		} else {
			games[result.Index] = result.Game
		}
	}
	return games, errs
}

func (cp *ConcurrentParser) worker(jobs <-chan ParseJob, results chan<- ParseResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobs {
		game, positions, err := cp.parser.ParseGame(job.PDN)
		results <- ParseResult{Game: game, Positions: positions, Index: job.Index, Error: err}
	}
}

// StreamParse parses PDN texts as they arrive, each of which may hold
// several games. Output order is not preserved; a game that fails to
// parse arrives with its Error set. The returned channel closes once in
// is drained.
func (cp *ConcurrentParser) StreamParse(in <-chan string) <-chan ParseResult {
	out := make(chan ParseResult, 100)

	go func() {
		defer close(out)

		var wg sync.WaitGroup
		semaphore := make(chan struct{}, cp.numWorkers)

		for text := range in {
			wg.Add(1)
			semaphore <- struct{}{}

			go func(text string) {
				defer func() {
					<-semaphore
					wg.Done()
				}()

				for i, gameText := range SplitGames(text) {
					game, positions, err := cp.parser.ParseGame(gameText)
					out <- ParseResult{Game: game, Positions: positions, Index: i, Error: err}
				}
			}(text)
		}

		wg.Wait()
	}()

	return out
}
