package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/LJTian/NewsSpectrum/internal/model"
)

// 延迟执行首轮采集，避免与服务启动时的请求争抢资源
const defaultStartupDelay = 15 * time.Second

type Scheduler struct {
	cron         *cron.Cron
	orch         *Orchestrator
	category     model.Category
	startupDelay time.Duration
	log          *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	first  *time.Timer
}

// cronLogger 把 cron 内部日志接到 zap
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.s.Errorw(msg, append(kv, "error", err)...)
}

func New(spec string, orch *Orchestrator, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cl := cronLogger{s: log.Sugar()}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl)))

	s := &Scheduler{
		cron:         c,
		orch:         orch,
		category:     model.CategoryAll,
		startupDelay: defaultStartupDelay,
		log:          log,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.first = time.AfterFunc(s.startupDelay, s.runOnce)
}

// Stop 停止定时任务并取消进行中的采集，等待 cron 中正在执行的任务退出
func (s *Scheduler) Stop() {
	if s.first != nil {
		s.first.Stop()
	}
	s.cancel()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runOnce() {
	s.log.Info("start collect job...")
	_, err := s.orch.Run(s.ctx, s.category)
	if errors.Is(err, ErrCycleRunning) {
		s.log.Info("skip collect job, previous cycle still running")
	}
}
