package sim

import (
	"runtime"
	"sync"

	"github.com/pthm-cable/pond/systems"
)

// workChunk represents a range of agents for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds the worker pool used by the force stage.
// Workers only read the tick snapshot and write their own slots of the force buffer.
type parallelState struct {
	threshold  int // minimum agent count for the pool; <= 0 disables it
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(threshold int) *parallelState {
	return &parallelState{
		threshold:  threshold,
		numWorkers: runtime.GOMAXPROCS(0),
	}
}

// enabled reports whether n agents are worth splitting across workers.
func (p *parallelState) enabled(n int) bool {
	return p.threshold > 0 && n >= p.threshold && p.numWorkers > 1
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(s *Simulation) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(s *Simulation) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			systems.AccumulateRange(chunk.start, chunk.end, s.agents, s.seeds, &s.flock, s.forces)
			p.doneChan <- struct{}{}
		}
	}
}

// accumulateForces fills s.forces for the current snapshot, inline for small
// flocks and on the worker pool otherwise. The result is identical either way.
func (s *Simulation) accumulateForces() {
	n := len(s.agents)
	s.forces = s.forces.Reset(n)

	if !s.parallel.enabled(n) {
		systems.AccumulateRange(0, n, s.agents, s.seeds, &s.flock, s.forces)
		return
	}

	if !s.parallel.running {
		s.parallel.startWorkers(s)
	}

	numWorkers := s.parallel.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		s.parallel.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-s.parallel.doneChan
	}
}
