package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Worker drains one Redis-dispatched job type with a pool of goroutines and
// runs the recurring schedule.
type Worker struct {
	redis      *RedisQueue
	jobType    JobType
	handler    JobHandler
	numWorkers int
	wg         sync.WaitGroup
	quit       chan struct{}
	scheduler  *gocron.Scheduler
}

// NewWorker creates a new worker
func NewWorker(redis *RedisQueue, jobType JobType, handler JobHandler, numWorkers int) *Worker {
	return &Worker{
		redis:      redis,
		jobType:    jobType,
		handler:    handler,
		numWorkers: numWorkers,
		quit:       make(chan struct{}),
		scheduler:  gocron.NewScheduler(time.UTC),
	}
}

// Start starts the worker pool
func (w *Worker) Start() {
	log.Printf("Starting %d workers for job type %s", w.numWorkers, w.jobType)

	for i := 0; i < w.numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}

	w.scheduler.StartAsync()
}

// Stop stops the worker pool
func (w *Worker) Stop() {
	log.Printf("Stopping workers for job type %s", w.jobType)
	close(w.quit)
	w.wg.Wait()
	w.scheduler.Stop()
}

// ScheduleDaily registers a recurring task on the worker's scheduler
func (w *Worker) ScheduleDaily(at string, task func()) error {
	_, err := w.scheduler.Every(1).Day().At(at).Do(task)
	return err
}

// ScheduleEvery registers a recurring task at a fixed interval
func (w *Worker) ScheduleEvery(interval time.Duration, task func()) error {
	_, err := w.scheduler.Every(interval).Do(task)
	return err
}

func (w *Worker) process(workerID int) {
	defer w.wg.Done()

	log.Printf("Worker %d for job type %s started", workerID, w.jobType)

	for {
		select {
		case <-w.quit:
			log.Printf("Worker %d for job type %s stopped", workerID, w.jobType)
			return
		default:
			job, err := w.redis.Dequeue(w.jobType, 1*time.Second)
			if err != nil {
				log.Printf("Error dequeueing job: %v", err)
				time.Sleep(1 * time.Second)
				continue
			}
			if job == nil {
				continue
			}

			log.Printf("Worker %d processing job %s", workerID, job.ID)

			result, err := w.handler(context.Background(), *job)
			if err != nil {
				log.Printf("Error processing job %s: %v", job.ID, err)
				if err := w.redis.Fail(job, err); err != nil {
					log.Printf("Error marking job %s as failed: %v", job.ID, err)
				}
				continue
			}

			if err := w.redis.Complete(job, result); err != nil {
				log.Printf("Error marking job %s as completed: %v", job.ID, err)
			}
		}
	}
}
