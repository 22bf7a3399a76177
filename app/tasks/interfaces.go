package tasks

// TaskSchedulerInterface is the queue the API and the pipeline hooks hand
// background work to.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
