// Package catalog 维护静态的数据源表：每个源声明抓取地址、展示名、分类与倾向。
package catalog

import (
	"github.com/LJTian/NewsSpectrum/internal/model"
)

// Source 一个已配置的数据源，进程生命周期内不可变
type Source struct {
	ID         string
	Name       string
	Kind       model.SourceKind
	Endpoint   string
	Alternates []string
	Category   model.Category
	Bias       model.Bias
	// ItemCap 单周期内该源最多入选的条目数；0 表示使用全局默认值
	ItemCap int
}

// IsFeed 是否为 RSS/Atom 源
func (s Source) IsFeed() bool {
	return s.Kind == model.KindRSS
}

// Catalog 只读的数据源表
type Catalog struct {
	sources []Source
	byID    map[string]int
}

// New 基于给定的源列表构造 Catalog，ID 重复时保留第一条
func New(sources []Source) *Catalog {
	c := &Catalog{
		sources: make([]Source, 0, len(sources)),
		byID:    make(map[string]int, len(sources)),
	}
	for _, s := range sources {
		if _, ok := c.byID[s.ID]; ok {
			continue
		}
		c.byID[s.ID] = len(c.sources)
		c.sources = append(c.sources, s)
	}
	return c
}

// Default 内置数据源表
func Default() *Catalog {
	return New(append(defaultFeeds(), apiSources()...))
}

// All 返回全部数据源（副本）
func (c *Catalog) All() []Source {
	out := make([]Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// ForCategory 返回该分类下的 RSS 源以及全部 API 源；
// API 源按请求分类拉取，因此总是包含在内。all 等价于 All()
func (c *Catalog) ForCategory(cat model.Category) []Source {
	if cat == model.CategoryAll || cat == "" {
		return c.All()
	}
	out := make([]Source, 0)
	for _, s := range c.sources {
		if !s.IsFeed() || s.Category == cat {
			out = append(out, s)
		}
	}
	return out
}

// ByID 按 ID 查找
func (c *Catalog) ByID(id string) (Source, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Source{}, false
	}
	return c.sources[idx], true
}

// ItemCaps 返回显式配置了上限的源，供配额器使用
func (c *Catalog) ItemCaps() map[string]int {
	caps := make(map[string]int)
	for _, s := range c.sources {
		if s.ItemCap > 0 {
			caps[s.ID] = s.ItemCap
		}
	}
	return caps
}
