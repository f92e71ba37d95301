// Package scheduler runs delayed and repeating check and raffle jobs.
//
// Jobs live in the store under /jobs/{kind}_{messageId}. Every tick the
// scheduler walks the mirrored jobs owned by this process, runs the due ones
// through an Executor and writes back the outcome (removal, retry or the next
// repeat) before the result is delivered to the guild.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Elantris/attention-please-sub000/cache"
	"github.com/Elantris/attention-please-sub000/metrics"
	"github.com/Elantris/attention-please-sub000/models"
	"github.com/Elantris/attention-please-sub000/store"
	"github.com/getsentry/raven-go"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	// MaxRetryTimes is how often a failing job is retried before it is dropped
	MaxRetryTimes = 3

	// DefaultInterval is the cron spec of the tick
	DefaultInterval = "@every 10s"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrJobNotFound     = errors.New("job not found")
)

// Reason tells the guild why a job was dropped
type Reason string

const (
	ReasonRetryExceeded Reason = "retryExceeded"
	ReasonRepeatEmpty   Reason = "repeatEmpty"
)

// Delivery is the result of a job run waiting to be posted
type Delivery interface {
	// Reacted reports whether at least one member reacted
	Reacted() bool
	Deliver() error
}

// Executor runs jobs against the chat platform
type Executor interface {
	Execute(ctx context.Context, key string, job models.Job) (Delivery, error)
	ClearReactions(job models.Job) error
	Warn(key string, job models.Job, reason Reason, cause error)
}

type Scheduler struct {
	store    store.Store
	mirror   *cache.Mirror
	executor Executor
	clientID string

	task *Task
	cron *cron.Cron
	now  func() time.Time
	log  logrus.FieldLogger
}

func New(s store.Store, mirror *cache.Mirror, executor Executor, clientID string, log logrus.FieldLogger) *Scheduler {
	scheduler := &Scheduler{
		store:    s,
		mirror:   mirror,
		executor: executor,
		clientID: clientID,
		now:      time.Now,
		log:      log.WithField("module", "scheduler"),
	}
	scheduler.task = NewTask(scheduler.Tick)
	return scheduler
}

// SetExecutor replaces the executor, used when the executor itself needs the scheduler
func (s *Scheduler) SetExecutor(executor Executor) {
	s.executor = executor
}

func (s *Scheduler) ClientID() string {
	return s.clientID
}

// Start ticks on $spec until Stop is called
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	if spec == "" {
		spec = DefaultInterval
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(spec, func() {
		if !s.task.Run(ctx) {
			metrics.SkippedTicks.Inc()
			s.log.Debug("previous tick still running, skipping")
		}
	})
	if err != nil {
		return errors.Wrapf(err, "invalid scheduler interval %q", spec)
	}

	s.cron.Start()
	s.log.Infof("scheduler started with interval %s and client id %s", spec, s.clientID)
	return nil
}

// Stop stops ticking and waits for a running tick to finish
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Tick processes every due job owned by this process
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now()

	owned := 0
	for _, entry := range s.mirror.Jobs() {
		if entry.Job.ClientID != s.clientID {
			continue
		}
		owned++
		if !entry.Job.IsDue(now) {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		s.process(ctx, entry.Key, entry.Job)
	}
	metrics.PendingJobs.Set(float64(owned))
}

func (s *Scheduler) process(ctx context.Context, key string, job models.Job) {
	log := s.log.WithField("job", key)
	kind, _, _ := models.ParseJobKey(key)
	started := time.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues(string(kind)).Observe(time.Since(started).Seconds())
	}()

	delivery, err := s.execute(ctx, key, job)
	if err != nil {
		log.Warnf("job failed (retry %d): %s", job.RetryTimes, err.Error())
		s.fail(ctx, key, job, err)
		metrics.JobsProcessed.WithLabelValues(string(kind), "error").Inc()
		return
	}

	reacted := delivery != nil && delivery.Reacted()
	outcome := "done"

	switch {
	case job.Repeat == "":
		if err = s.remove(ctx, key); err != nil {
			log.Errorf("removing finished job: %s", err.Error())
			return
		}

	case !reacted && job.RetryTimes+1 >= MaxRetryTimes:
		if err = s.remove(ctx, key); err != nil {
			log.Errorf("removing abandoned repeat job: %s", err.Error())
			return
		}
		outcome = "abandoned"
		defer s.executor.Warn(key, job, ReasonRepeatEmpty, nil)

	default:
		next := job
		at, skipped := s.nextRun(job)
		if skipped > 0 {
			log.Warnf("skipped %d missed %s runs", skipped, job.Repeat)
		}
		next.SetExecuteTime(at)
		if reacted {
			next.RetryTimes = 0
		} else {
			next.RetryTimes++
		}
		if err = s.save(ctx, key, next); err != nil {
			log.Errorf("rescheduling repeat job: %s", err.Error())
			return
		}
		outcome = "repeated"

		if reacted {
			if err = s.executor.ClearReactions(job); err != nil {
				log.Warnf("clearing reactions: %s", err.Error())
			}
		}
	}
	metrics.JobsProcessed.WithLabelValues(string(kind), outcome).Inc()

	if delivery == nil {
		return
	}
	if err = delivery.Deliver(); err != nil {
		log.Warnf("delivering result: %s", err.Error())
	}
}

// nextRun adds the repeat period until the job lies in the future again,
// $skipped counts the periods that were passed over
func (s *Scheduler) nextRun(job models.Job) (next time.Time, skipped int) {
	now := s.now()
	next = job.Repeat.Next(job.ExecuteTime())
	for !next.After(now) {
		next = job.Repeat.Next(next)
		skipped++
	}
	return next, skipped
}

func (s *Scheduler) execute(ctx context.Context, key string, job models.Job) (delivery Delivery, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("recovered from panic: %v", r)
			raven.CaptureError(fmt.Errorf("%#v", r), map[string]string{"job": key})
		}
	}()

	return s.executor.Execute(ctx, key, job)
}

func (s *Scheduler) fail(ctx context.Context, key string, job models.Job, cause error) {
	if job.RetryTimes >= MaxRetryTimes {
		if err := s.remove(ctx, key); err != nil {
			s.log.WithField("job", key).Errorf("removing failed job: %s", err.Error())
			return
		}
		s.executor.Warn(key, job, ReasonRetryExceeded, cause)
		return
	}

	job.RetryTimes++
	err := s.store.Update(ctx, store.Path(models.JobsTable, key), map[string]interface{}{
		"retryTimes": job.RetryTimes,
	})
	if errors.Cause(err) == store.ErrNotFound {
		// cancelled while running
		return
	}
	if err != nil {
		s.log.WithField("job", key).Errorf("counting retry: %s", err.Error())
		return
	}
	s.mirror.ApplyValue(models.JobsTable, key, job)
}

func (s *Scheduler) save(ctx context.Context, key string, job models.Job) error {
	err := s.store.Set(ctx, store.Path(models.JobsTable, key), job)
	if err != nil {
		return err
	}
	s.mirror.ApplyValue(models.JobsTable, key, job)
	return nil
}

func (s *Scheduler) remove(ctx context.Context, key string) error {
	err := s.store.Remove(ctx, store.Path(models.JobsTable, key))
	if err != nil {
		return err
	}
	s.mirror.ApplyRemove(models.JobsTable, key)
	return nil
}

// Schedule writes $job as the only job of its kind for the target message
func (s *Scheduler) Schedule(ctx context.Context, kind models.JobKind, job models.Job) (string, error) {
	key := models.JobKey(kind, job.Target.MessageID)
	job.ClientID = s.clientID
	job.RetryTimes = 0

	if err := s.save(ctx, key, job); err != nil {
		return "", errors.Wrapf(err, "scheduling %s", key)
	}
	s.log.WithField("job", key).Infof("scheduled for %s", job.ExecuteTime().Format(time.RFC3339))
	return key, nil
}

// Cancel removes the job $key when it belongs to $guildID
func (s *Scheduler) Cancel(ctx context.Context, guildID, key string) error {
	var job models.Job
	err := s.store.Get(ctx, store.Path(models.JobsTable, key), &job)
	if errors.Cause(err) == store.ErrNotFound || (err == nil && job.Command.GuildID != guildID) {
		return errors.Wrap(ErrJobNotFound, key)
	}
	if err != nil {
		return err
	}

	return s.remove(ctx, key)
}

// CancelAny removes the job $key regardless of its guild
func (s *Scheduler) CancelAny(ctx context.Context, key string) error {
	var job models.Job
	err := s.store.Get(ctx, store.Path(models.JobsTable, key), &job)
	if errors.Cause(err) == store.ErrNotFound {
		return errors.Wrap(ErrJobNotFound, key)
	}
	if err != nil {
		return err
	}

	return s.remove(ctx, key)
}

// Pending lists the jobs of $guildID in run order, all jobs if $guildID is empty
func (s *Scheduler) Pending(guildID string) []cache.JobEntry {
	entries := make([]cache.JobEntry, 0)
	for _, entry := range s.mirror.Jobs() {
		if guildID != "" && entry.Job.Command.GuildID != guildID {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
