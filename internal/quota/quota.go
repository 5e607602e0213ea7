// Package quota 在一次采集周期内限制每个来源、每种倾向的入选条数。
package quota

import (
	"sync"

	"github.com/LJTian/NewsSpectrum/internal/model"
)

const (
	DefaultSourceCap = 30
	DefaultBiasCap   = 100
)

// Limits 配额上限；SourceCaps 覆盖个别来源的上限
type Limits struct {
	DefaultSourceCap int
	BiasCap          int
	SourceCaps       map[string]int
}

// DefaultLimits 默认上限，sourceCaps 可为 nil
func DefaultLimits(sourceCaps map[string]int) Limits {
	return Limits{
		DefaultSourceCap: DefaultSourceCap,
		BiasCap:          DefaultBiasCap,
		SourceCaps:       sourceCaps,
	}
}

// Snapshot 计数快照
type Snapshot struct {
	BySource map[string]int     `json:"bySource"`
	ByBias   map[model.Bias]int `json:"byBias"`
}

// Tracker 周期内的配额计数器，Admit 是唯一的修改入口
type Tracker struct {
	mu       sync.Mutex
	limits   Limits
	bySource map[string]int
	byBias   map[model.Bias]int
}

func NewTracker(limits Limits) *Tracker {
	if limits.DefaultSourceCap <= 0 {
		limits.DefaultSourceCap = DefaultSourceCap
	}
	if limits.BiasCap <= 0 {
		limits.BiasCap = DefaultBiasCap
	}
	return &Tracker{
		limits:   limits,
		bySource: make(map[string]int),
		byBias:   make(map[model.Bias]int),
	}
}

// Admit 来源或倾向任一达到上限时返回 false，否则两个计数各加一
func (t *Tracker) Admit(sourceID string, bias model.Bias) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bySource[sourceID] >= t.sourceCap(sourceID) {
		return false
	}
	if t.byBias[bias] >= t.limits.BiasCap {
		return false
	}
	t.bySource[sourceID]++
	t.byBias[bias]++
	return true
}

func (t *Tracker) sourceCap(sourceID string) int {
	if c, ok := t.limits.SourceCaps[sourceID]; ok && c > 0 {
		return c
	}
	return t.limits.DefaultSourceCap
}

// Reset 清零全部计数，只在周期开始时调用
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bySource = make(map[string]int)
	t.byBias = make(map[model.Bias]int)
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		BySource: make(map[string]int, len(t.bySource)),
		ByBias:   make(map[model.Bias]int, len(t.byBias)),
	}
	for k, v := range t.bySource {
		s.BySource[k] = v
	}
	for k, v := range t.byBias {
		s.ByBias[k] = v
	}
	return s
}
