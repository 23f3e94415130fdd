package tasks

// TaskSchedulerInterface defines the interface for running the bot's
// background jobs.
//
//	scheduler := NewScheduler(jobs, taskTimeout)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
}
