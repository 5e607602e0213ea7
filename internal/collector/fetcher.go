package collector

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/LJTian/NewsSpectrum/internal/catalog"
	"github.com/LJTian/NewsSpectrum/internal/classifier"
	"github.com/LJTian/NewsSpectrum/internal/fetcher"
	"github.com/LJTian/NewsSpectrum/internal/model"
)

// ErrMissingAPIKey 外部 API 未配置密钥
var ErrMissingAPIKey = errors.New("collector: api key not configured")

// Fetcher 抽象每一个数据源
type Fetcher interface {
	Source() catalog.Source
	Fetch(ctx context.Context, category model.Category) ([]model.RawItem, error)
}

// Getter 抓取引擎，*fetcher.Engine 实现了它
type Getter interface {
	Fetch(ctx context.Context, req fetcher.Request) (*fetcher.Result, error)
}

// Options 数据源开关与 API 密钥
type Options struct {
	EnableRSS        bool
	EnableNewsAPI    bool
	EnableGNews      bool
	EnableTheNewsAPI bool

	NewsAPIKey    string
	GNewsAPIKey   string
	TheNewsAPIKey string

	// PageSize 每次 API 请求的条数
	PageSize int
}

// Registry 按来源 ID 持有已启用的 Fetcher
type Registry struct {
	catalog  *catalog.Catalog
	fetchers map[string]Fetcher
}

// NewRegistry 为目录中每个已启用的来源构造 Fetcher；缺少密钥的 API 来源会被跳过
func NewRegistry(cat *catalog.Catalog, engine Getter, cls *classifier.Classifier, opts Options, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	r := &Registry{catalog: cat, fetchers: make(map[string]Fetcher)}
	for _, src := range cat.All() {
		var f Fetcher
		switch src.Kind {
		case model.KindRSS:
			if opts.EnableRSS {
				f = NewFeedSource(src, engine)
			}
		case model.KindNewsAPI:
			if opts.EnableNewsAPI {
				f = r.apiSource(src, opts.NewsAPIKey, log, func() Fetcher {
					return NewNewsAPISource(src, engine, cls, opts.NewsAPIKey, opts.PageSize)
				})
			}
		case model.KindGNews:
			if opts.EnableGNews {
				f = r.apiSource(src, opts.GNewsAPIKey, log, func() Fetcher {
					return NewGNewsSource(src, engine, cls, opts.GNewsAPIKey, opts.PageSize)
				})
			}
		case model.KindTheNewsAPI:
			if opts.EnableTheNewsAPI {
				f = r.apiSource(src, opts.TheNewsAPIKey, log, func() Fetcher {
					return NewTheNewsAPISource(src, engine, cls, opts.TheNewsAPIKey, opts.PageSize, log)
				})
			}
		}
		if f != nil {
			r.fetchers[src.ID] = f
		}
	}
	log.Info("collector registry ready", zap.Int("enabled_sources", len(r.fetchers)))
	return r
}

func (r *Registry) apiSource(src catalog.Source, key string, log *zap.Logger, build func() Fetcher) Fetcher {
	if key == "" {
		log.Warn("skipping api source", zap.String("source", src.ID), zap.Error(ErrMissingAPIKey))
		return nil
	}
	return build()
}

// For 返回某个分类下已启用的 Fetcher，顺序与目录一致
func (r *Registry) For(category model.Category) []Fetcher {
	srcs := r.catalog.ForCategory(category)
	out := make([]Fetcher, 0, len(srcs))
	for _, s := range srcs {
		if f, ok := r.fetchers[s.ID]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Enabled 来源是否已启用
func (r *Registry) Enabled(id string) bool {
	_, ok := r.fetchers[id]
	return ok
}

// EnabledSet 已启用来源 ID 集合
func (r *Registry) EnabledSet() map[string]bool {
	out := make(map[string]bool, len(r.fetchers))
	for id := range r.fetchers {
		out[id] = true
	}
	return out
}
