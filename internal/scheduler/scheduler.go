package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/LJTian/LiveNewsBoard/internal/quote"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job 一个按 cron 表达式周期执行的后台任务
type Job struct {
	Name     string
	CronSpec string
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	cron   *cron.Cron
	jobs   []Job
	logger zerolog.Logger
	// StartupDelay 启动后首轮执行的延迟，0 表示不做首轮执行
	StartupDelay time.Duration

	startup *time.Timer
	running sync.WaitGroup
}

func New(jobs []Job, logger zerolog.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger)))

	s := &Scheduler{
		cron:         c,
		jobs:         jobs,
		logger:       logger.With().Str("component", "scheduler").Logger(),
		StartupDelay: 2 * time.Second,
	}

	for _, j := range jobs {
		if j.Run == nil {
			return nil, fmt.Errorf("scheduler: job %q has no run func", j.Name)
		}
		job := j
		if _, err := c.AddFunc(job.CronSpec, func() { s.run(job) }); err != nil {
			return nil, fmt.Errorf("scheduler: add job %q (%s): %w", job.Name, job.CronSpec, err)
		}
	}
	return s, nil
}

// QuoteWarmJob 定时刷新 Redis 中的报价缓存，页面请求因此总能命中
func QuoteWarmJob(spec string, cache *quote.Cache, asset string) Job {
	return Job{
		Name:     "quote_warm",
		CronSpec: spec,
		Timeout:  10 * time.Second,
		Run: func(ctx context.Context) error {
			return cache.Refresh(ctx, asset)
		},
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	if s.StartupDelay > 0 {
		s.running.Add(1)
		s.startup = time.AfterFunc(s.StartupDelay, func() {
			defer s.running.Done()
			_ = s.RunOnce()
		})
	}
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

// Stop 取消尚未触发的首轮执行，等待正在执行的任务结束，或 ctx 到期
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.startup != nil && s.startup.Stop() {
		s.running.Done()
	}
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce 立即执行全部任务一次，方便手动触发；返回所有任务的错误
func (s *Scheduler) RunOnce() error {
	var errs []error
	for _, j := range s.jobs {
		if err := s.run(j); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) run(j Job) error {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	if err := j.Run(ctx); err != nil {
		s.logger.Warn().Err(err).Str("job", j.Name).Msg("job failed")
		return fmt.Errorf("%s: %w", j.Name, err)
	}
	s.logger.Debug().Str("job", j.Name).Dur("took", time.Since(start)).Msg("job done")
	return nil
}
