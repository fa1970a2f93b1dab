package calc

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PipeLine represents a compute pipeline: a fixed number of workers fed job indices
// (rows, columns or trials) through an order channel.
type PipeLine struct {
	numPoper int
	debug    bool
	logger   *zap.Logger
}

// Init returns a compute PipeLine. numPoper < 1 means one worker per CPU.
func Init(numPoper int, debug bool) *PipeLine {
	if numPoper < 1 {
		numPoper = runtime.NumCPU()
	}

	return &PipeLine{
		numPoper: numPoper,
		debug:    debug,
		logger:   zap.NewNop(),
	}
}

// WithLogger sets the logger used for debug timings.
func (p *PipeLine) WithLogger(logger *zap.Logger) *PipeLine {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Workers returns the number of workers.
func (p *PipeLine) Workers() int {
	return p.numPoper
}

func worker(do func(index int), order <-chan int, wg *sync.WaitGroup) {
	for {
		index, ok := <-order
		if ok {
			do(index)
			wg.Done()
		} else {
			break
		}
	}
}

// Each runs do(0..jobs-1) on the workers and waits for all of them.
// Jobs must write to disjoint memory.
func (p *PipeLine) Each(name string, jobs int, do func(index int)) {
	if jobs < 1 {
		return
	}

	start := time.Now()

	order := make(chan int, p.numPoper)
	var wg sync.WaitGroup

	wg.Add(jobs)

	for i := 0; i < p.numPoper; i++ {
		go worker(do, order, &wg)
	}

	for i := 0; i < jobs; i++ {
		order <- i
	}

	wg.Wait()
	close(order)

	if p.debug {
		p.logger.Debug("pipeline stage done",
			zap.String("stage", name),
			zap.Int("jobs", jobs),
			zap.Int("workers", p.numPoper),
			zap.Duration("took", time.Since(start)))
	}
}

type statistic struct {
	avg float64
	std float64
}
