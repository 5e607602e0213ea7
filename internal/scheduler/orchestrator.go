package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LJTian/NewsSpectrum/internal/collector"
	"github.com/LJTian/NewsSpectrum/internal/fetcher"
	"github.com/LJTian/NewsSpectrum/internal/model"
	"github.com/LJTian/NewsSpectrum/internal/processor"
	"github.com/LJTian/NewsSpectrum/internal/quota"
	"github.com/LJTian/NewsSpectrum/internal/storage"
)

// ErrCycleRunning 上一轮采集尚未结束
var ErrCycleRunning = errors.New("scheduler: fetch cycle already running")

// State 采集周期状态
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{StateIdle, StateRunning, StateCompleted} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("scheduler: unknown state %q", b)
}

// Sources 按分类给出本轮要抓取的数据源，*collector.Registry 实现了它
type Sources interface {
	For(category model.Category) []collector.Fetcher
}

// Persister 批量只插入写入，*storage.Store 实现了它
type Persister interface {
	SaveBatch(ctx context.Context, items []*model.NewsItem) (storage.SaveResult, error)
}

// SourceReport 单个来源在本轮中的结果
type SourceReport struct {
	SourceID   string          `json:"sourceId"`
	Name       string          `json:"name"`
	Stats      processor.Stats `json:"stats"`
	Duplicates int             `json:"duplicates"`
	Duration   time.Duration   `json:"durationNs"`
	Error      string          `json:"error,omitempty"`
	err        error
}

// SourceFailure 来源的最终失败，不影响其他来源
type SourceFailure struct {
	SourceID string            `json:"sourceId"`
	Name     string            `json:"name"`
	Kind     fetcher.ErrorKind `json:"kind"`
	Err      error             `json:"-"`
	Message  string            `json:"error"`
}

// CycleReport 一轮采集的汇总
type CycleReport struct {
	ID           string          `json:"id"`
	Category     model.Category  `json:"category"`
	State        State           `json:"state"`
	StartedAt    time.Time       `json:"startedAt"`
	FinishedAt   time.Time       `json:"finishedAt"`
	Sources      []SourceReport  `json:"sources"`
	Failures     []SourceFailure `json:"failures"`
	Admitted     int             `json:"admitted"`
	Quota        quota.Snapshot  `json:"quota"`
	Inserted     int             `json:"inserted"`
	Skipped      int             `json:"skipped"`
	PersistError string          `json:"persistError,omitempty"`

	Items []*model.NewsItem `json:"-"`
}

// cycleState 本轮共享的可变状态：URL 去重集合与配额
type cycleState struct {
	mu         sync.Mutex
	seen       map[string]struct{}
	duplicates map[string]int
	items      []*model.NewsItem
	quota      *quota.Tracker
}

// Admit 先查重再查配额，先到者胜
func (c *cycleState) Admit(sourceID string, item *model.NewsItem) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, dup := c.seen[item.URL]; dup {
		c.duplicates[sourceID]++
		return false
	}
	if !c.quota.Admit(sourceID, item.Source.Bias) {
		return false
	}
	c.seen[item.URL] = struct{}{}
	c.items = append(c.items, item)
	return true
}

// Orchestrator 一轮采集：并发抓取所有来源，归一化、去重、限额后交给存储
type Orchestrator struct {
	sources       Sources
	normalizer    *processor.Normalizer
	limits        quota.Limits
	store         Persister
	maxConcurrent int
	log           *zap.Logger

	state atomic.Int32
	mu    sync.RWMutex
	last  *CycleReport
}

// NewOrchestrator store 可为 nil（只采集不落库）；maxConcurrent<=0 表示不限制并发
func NewOrchestrator(sources Sources, n *processor.Normalizer, limits quota.Limits, store Persister, maxConcurrent int, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		sources:       sources,
		normalizer:    n,
		limits:        limits,
		store:         store,
		maxConcurrent: maxConcurrent,
		log:           log,
	}
}

func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Last 最近一轮完成的报告，尚未运行过时为 nil
func (o *Orchestrator) Last() *CycleReport {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}

func (o *Orchestrator) begin() bool {
	for {
		cur := o.state.Load()
		if State(cur) == StateRunning {
			return false
		}
		if o.state.CompareAndSwap(cur, int32(StateRunning)) {
			return true
		}
	}
}

// Run 执行一轮采集。单个来源失败只记录，不会让本轮失败；
// 只有已有一轮在运行时返回 ErrCycleRunning
func (o *Orchestrator) Run(ctx context.Context, category model.Category) (*CycleReport, error) {
	if category == "" {
		category = model.CategoryAll
	}
	if !o.begin() {
		return nil, ErrCycleRunning
	}

	report := &CycleReport{
		ID:        uuid.NewString(),
		Category:  category,
		State:     StateRunning,
		StartedAt: time.Now().UTC(),
	}
	log := o.log.With(zap.String("cycle", report.ID), zap.String("category", string(category)))

	state := &cycleState{
		seen:       make(map[string]struct{}),
		duplicates: make(map[string]int),
		quota:      quota.NewTracker(o.limits),
	}

	fetchers := o.sources.For(category)
	log.Info("fetch cycle started", zap.Int("sources", len(fetchers)))

	// 不使用 errgroup.WithContext：单个来源失败不能取消其他来源
	var g errgroup.Group
	if o.maxConcurrent > 0 {
		g.SetLimit(o.maxConcurrent)
	}
	reports := make([]SourceReport, len(fetchers))
	for i, f := range fetchers {
		i, f := i, f
		g.Go(func() error {
			reports[i] = o.runSource(ctx, f, category, state, log)
			return nil
		})
	}
	_ = g.Wait()

	for i := range reports {
		r := &reports[i]
		r.Duplicates = state.duplicates[r.SourceID]
		if r.err != nil {
			report.Failures = append(report.Failures, SourceFailure{
				SourceID: r.SourceID,
				Name:     r.Name,
				Kind:     fetcher.Classify(r.err),
				Err:      r.err,
				Message:  r.err.Error(),
			})
		}
	}
	report.Sources = reports
	report.Items = state.items
	report.Admitted = len(state.items)
	report.Quota = state.quota.Snapshot()

	if o.store != nil && len(state.items) > 0 {
		res, err := o.store.SaveBatch(ctx, state.items)
		report.Inserted, report.Skipped = res.Inserted, res.Skipped
		if err != nil {
			report.PersistError = err.Error()
			log.Error("persist batch failed", zap.Error(err))
		}
	}

	report.FinishedAt = time.Now().UTC()
	report.State = StateCompleted
	o.mu.Lock()
	o.last = report
	o.mu.Unlock()
	o.state.Store(int32(StateCompleted))

	log.Info("fetch cycle completed",
		zap.Int("admitted", report.Admitted),
		zap.Int("failed_sources", len(report.Failures)),
		zap.Int("inserted", report.Inserted),
		zap.Int("skipped", report.Skipped),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

func (o *Orchestrator) runSource(ctx context.Context, f collector.Fetcher, category model.Category, state *cycleState, log *zap.Logger) (rep SourceReport) {
	src := f.Source()
	rep = SourceReport{SourceID: src.ID, Name: src.Name}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			rep.err = fmt.Errorf("source %s panicked: %v", src.ID, r)
			rep.Error = rep.err.Error()
			log.Error("source task panicked", zap.String("source", src.ID), zap.Any("panic", r))
		}
		rep.Duration = time.Since(start)
	}()

	raws, err := f.Fetch(ctx, category)
	if err != nil {
		rep.err = err
		rep.Error = err.Error()
		log.Warn("source failed", zap.String("source", src.ID), zap.Error(err))
		return rep
	}

	_, rep.Stats = o.normalizer.NormalizeAll(raws, src, category, state)
	log.Info("source done",
		zap.String("source", src.ID),
		zap.Int("fetched", rep.Stats.Raw),
		zap.Int("admitted", rep.Stats.Admitted),
		zap.Int("rejected", rep.Stats.Rejected))
	return rep
}
