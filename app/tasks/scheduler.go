package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/metrics"
	"github.com/robfig/cron/v3"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// WeeklyTime is a wall-clock slot in the scheduler's location.
type WeeklyTime struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

// Spec returns the five-field cron expression for the slot.
func (w WeeklyTime) Spec() string {
	return fmt.Sprintf("%d %d * * %d", w.Minute, w.Hour, int(w.Weekday))
}

// Job runs Task either every Interval or once a week at Weekly.
// An interval loop begins after Delay and runs Task one Interval later,
// then again one Interval after each run finishes.
type Job struct {
	Task     TaskInterface
	Interval time.Duration
	Delay    time.Duration
	Weekly   *WeeklyTime
}

// LoopStarter is implemented by tasks that keep state anchored to the
// moment their loop begins.
type LoopStarter interface {
	Begin(now time.Time)
}

type Scheduler struct {
	jobs        []Job
	taskTimeout time.Duration
	cron        *cron.Cron
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewScheduler(jobs []Job, taskTimeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:        jobs,
		taskTimeout: taskTimeout,
		cron:        cron.New(cron.WithLocation(time.Local)),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (s *Scheduler) Start() {
	for _, job := range s.jobs {
		if job.Weekly != nil {
			s.addWeekly(job)
			continue
		}
		s.wg.Add(1)
		go s.runInterval(job)
	}
	s.cron.Start()
	slog.Debug("Scheduler started", "jobs", len(s.jobs))
}

// Stop cancels all loops and waits for running tasks to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Scheduler) addWeekly(job Job) {
	spec := job.Weekly.Spec()
	task := job.Task
	if _, err := s.cron.AddFunc(spec, func() { s.executeTask(task) }); err != nil {
		slog.Error("Failed to schedule weekly task", "type", string(task.GetType()), "spec", spec, "error", err)
		return
	}
	slog.Info("Weekly task scheduled", "type", string(task.GetType()), "spec", spec, "location", time.Local.String())
}

func (s *Scheduler) runInterval(job Job) {
	defer s.wg.Done()

	timer := time.NewTimer(job.Delay)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		return
	case <-timer.C:
	}

	if starter, ok := job.Task.(LoopStarter); ok {
		starter.Begin(time.Now())
	}
	timer.Reset(job.Interval)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
			s.executeTask(job.Task)
			timer.Reset(job.Interval)
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	if s.ctx.Err() != nil {
		return
	}
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	metrics.TickDuration.WithLabelValues(string(task.GetType())).Observe(task.GetDuration().Seconds())

	if err != nil {
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "error", err)
	}
}
