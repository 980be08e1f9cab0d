package worker

import "mediakit/pkg/logger"

var workerLogger = logger.Get("Worker")

type (
	WorkerWakeupChan chan int
	WorkerStatus     int

	// WorkerTask is the function a worker repeatedly executes while awake.
	// The boolean return indicates whether the task performed any work; a
	// worker whose task reports no work goes back to sleep until woken.
	WorkerTask func(Worker) (bool, error)

	Worker interface {
		Start()
		Status() WorkerStatus
		WakeupChan() WorkerWakeupChan
		Label() string
		Close()
	}

	taskWorker struct {
		label         string
		task          WorkerTask
		wakeupChan    WorkerWakeupChan
		currentStatus WorkerStatus
	}
)

const (
	SLEEPING WorkerStatus = iota
	WORKING
	FINISHED
)

func NewWorker(label string, task WorkerTask) *taskWorker {
	return &taskWorker{
		label:         label,
		task:          task,
		wakeupChan:    make(WorkerWakeupChan),
		currentStatus: SLEEPING,
	}
}

// Start runs the workers main loop; the task is executed until it reports
// that no work was available, at which point the worker sleeps until
// woken up (or closed) via it's wakeup channel.
func (worker *taskWorker) Start() {
	workerLogger.Debugf("Starting worker with label %s\n", worker.label)
	for {
		worker.currentStatus = WORKING
		for {
			didWork, err := worker.task(worker)
			if err != nil {
				workerLogger.Errorf("Worker %s task reported an error(%T): %v\n", worker.label, err, err)
				break
			}

			if !didWork {
				break
			}
		}

		worker.currentStatus = SLEEPING
		if _, ok := <-worker.wakeupChan; !ok {
			break
		}
	}

	worker.currentStatus = FINISHED
	workerLogger.Debugf("Worker with label %s has stopped\n", worker.label)
}

func (worker *taskWorker) Label() string {
	return worker.label
}

// Close closes the workers wakeup channel, which will cause the
// main loop to exit once it's current task (if any) has concluded.
func (worker *taskWorker) Close() {
	close(worker.wakeupChan)
}

func (worker *taskWorker) Status() WorkerStatus {
	return worker.currentStatus
}

func (worker *taskWorker) WakeupChan() WorkerWakeupChan {
	return worker.wakeupChan
}
