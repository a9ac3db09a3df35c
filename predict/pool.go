package predict

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Job holds the attributes needed to perform one prediction.
type Job struct {
	imgData []byte
	result  chan jobResult
}

type jobResult struct {
	probability float32
	err         error
}

// NewWorker creates takes a numeric id and a channel w/ worker pool.
func NewWorker(id int, workerPool chan chan Job, predictor Predictor) Worker {
	return Worker{
		id:         id,
		jobQueue:   make(chan Job),
		workerPool: workerPool,
		quitChan:   make(chan bool),
		predictor:  predictor,
	}
}

type Worker struct {
	id         int
	jobQueue   chan Job
	workerPool chan chan Job
	quitChan   chan bool
	predictor  Predictor
}

func (w Worker) start() {
	log.Debug("[Worker] Worker ", w.id, " starting")

	go func() {
		for {
			// Add my jobQueue to the worker pool.
			w.workerPool <- w.jobQueue

			select {
			case job := <-w.jobQueue:
				// Dispatcher has added a job to my jobQueue.
				probability, err := w.predictor.Predict(job.imgData)
				//the result channel is buffered, so the send never blocks
				//even when the requester has given up in the meantime
				job.result <- jobResult{probability: probability, err: err}

			case <-w.quitChan:
				// We have been asked to stop.
				log.Debug("[Worker] Worker ", w.id, " stopping")
				return
			}
		}
	}()
}

func (w Worker) stop() {
	go func() {
		w.quitChan <- true
	}()
}

// Pool fans predictions out to a fixed number of workers, so at most
// maxWorkers forward passes run at the same time. Each job carries its own
// reply channel, which makes the pool usable from a synchronous request
// handler.
type Pool struct {
	jobQueue   chan Job
	workerPool chan chan Job
	workers    []Worker
}

// NewPool creates the pool and starts its workers and dispatcher.
func NewPool(predictor Predictor, maxWorkers int, queueSize int) *Pool {
	p := &Pool{
		jobQueue:   make(chan Job, queueSize),
		workerPool: make(chan chan Job, maxWorkers),
	}

	for i := 0; i < maxWorkers; i++ {
		worker := NewWorker(i+1, p.workerPool, predictor)
		worker.start()
		p.workers = append(p.workers, worker)
	}

	go p.dispatch()

	return p
}

func (p *Pool) dispatch() {
	for job := range p.jobQueue {
		go func(job Job) {
			workerJobQueue := <-p.workerPool
			workerJobQueue <- job
		}(job)
	}
}

// Predict submits the image to the pool and waits for the result. It gives
// up as soon as ctx is cancelled, whether the job is still queued or already
// running.
func (p *Pool) Predict(ctx context.Context, imgData []byte) (float32, error) {
	job := Job{
		imgData: imgData,
		result:  make(chan jobResult, 1),
	}

	select {
	case p.jobQueue <- job:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case res := <-job.result:
		return res.probability, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Stop shuts the workers down and closes the job queue so the dispatcher
// goroutine exits. Predict must not be called after Stop.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.stop()
	}
	close(p.jobQueue)
}
