package processor

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/LJTian/NewsSpectrum/internal/catalog"
	"github.com/LJTian/NewsSpectrum/internal/classifier"
	"github.com/LJTian/NewsSpectrum/internal/model"
)

// KeywordExtractor *keywords.Extractor 实现了它
type KeywordExtractor interface {
	Extract(title, description string, limit int) []string
}

// Admitter 决定一条已归一化的条目能否进入本轮结果
type Admitter interface {
	Admit(sourceID string, item *model.NewsItem) bool
}

// 各类原始条目的候选字段，取第一个非空值
type fieldPaths struct {
	title       []string
	description []string
	url         []string
	published   []string
	sourceName  []string
	category    []string
	image       []string
}

var pathsByKind = map[model.SourceKind]fieldPaths{
	model.KindRSS: {
		title:       []string{"title"},
		description: []string{"description", "content"},
		url:         []string{"link", "links.0"},
		published:   []string{"publishedParsed", "published", "updatedParsed", "updated"},
		image: []string{
			"image.url",
			"enclosures.0.url",
			"extensions.media.content.0.attrs.url",
			"extensions.media.thumbnail.0.attrs.url",
		},
	},
	model.KindNewsAPI: {
		title:       []string{"title"},
		description: []string{"description", "content"},
		url:         []string{"url"},
		published:   []string{"publishedAt"},
		sourceName:  []string{"source.name"},
		image:       []string{"urlToImage"},
	},
	model.KindGNews: {
		title:       []string{"title"},
		description: []string{"description", "content"},
		url:         []string{"url"},
		published:   []string{"publishedAt", "published_at"},
		sourceName:  []string{"source.name"},
		category:    []string{"topic", "category"},
		image:       []string{"image"},
	},
	model.KindTheNewsAPI: {
		title:       []string{"title"},
		description: []string{"description", "snippet"},
		url:         []string{"url"},
		published:   []string{"published_at", "publishedAt"},
		sourceName:  []string{"source"},
		category:    []string{"categories.0", "category"},
		image:       []string{"image_url"},
	},
}

func first(doc gjson.Result, paths []string) string {
	for _, p := range paths {
		if v := doc.Get(p); v.Exists() && v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// Stats 一批原始条目的归一化统计
type Stats struct {
	Raw      int `json:"raw"`
	Dropped  int `json:"dropped"`  // 字段缺失、链接非法或处理异常
	Rejected int `json:"rejected"` // 被 Admitter 拒绝（重复或超配额）
	Admitted int `json:"admitted"`
}

// Normalizer 把原始条目转换为 NewsItem
type Normalizer struct {
	cls          *classifier.Classifier
	kw           KeywordExtractor
	keywordLimit int
	log          *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewNormalizer(cls *classifier.Classifier, kw KeywordExtractor, keywordLimit int, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{
		cls:          cls,
		kw:           kw,
		keywordLimit: keywordLimit,
		log:          log,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Normalize 归一化单条并询问 admitter；无效或被拒绝时返回 nil。admitter 为 nil 时全部接受
func (n *Normalizer) Normalize(raw model.RawItem, src catalog.Source, requested model.Category, admitter Admitter) *model.NewsItem {
	item := n.safePrepare(raw, src, requested)
	if item == nil {
		return nil
	}
	if admitter != nil && !admitter.Admit(src.ID, item) {
		return nil
	}
	return item
}

// NormalizeAll 先归一化全部条目，再按发布时间从新到旧依次询问 admitter，
// 这样配额截断时优先丢弃较旧的条目
func (n *Normalizer) NormalizeAll(raws []model.RawItem, src catalog.Source, requested model.Category, admitter Admitter) ([]*model.NewsItem, Stats) {
	st := Stats{Raw: len(raws)}
	prepared := make([]*model.NewsItem, 0, len(raws))
	for _, raw := range raws {
		if item := n.safePrepare(raw, src, requested); item != nil {
			prepared = append(prepared, item)
		}
	}
	st.Dropped = st.Raw - len(prepared)

	sort.SliceStable(prepared, func(i, j int) bool {
		return prepared[i].PublishedAt.After(prepared[j].PublishedAt)
	})

	out := make([]*model.NewsItem, 0, len(prepared))
	for _, item := range prepared {
		if admitter != nil && !admitter.Admit(src.ID, item) {
			st.Rejected++
			continue
		}
		out = append(out, item)
	}
	st.Admitted = len(out)
	return out, st
}

func (n *Normalizer) safePrepare(raw model.RawItem, src catalog.Source, requested model.Category) (item *model.NewsItem) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("normalize panicked, item dropped",
				zap.String("source", src.ID),
				zap.String("title", gjson.GetBytes(raw.Payload, "title").String()),
				zap.String("url", first(gjson.ParseBytes(raw.Payload), []string{"url", "link"})),
				zap.Any("panic", r))
			item = nil
		}
	}()

	item, err := n.prepare(raw, src, requested)
	if err != nil {
		n.log.Debug("item dropped",
			zap.String("source", src.ID),
			zap.String("title", gjson.GetBytes(raw.Payload, "title").String()),
			zap.Error(err))
		return nil
	}
	return item
}

func (n *Normalizer) prepare(raw model.RawItem, src catalog.Source, requested model.Category) (*model.NewsItem, error) {
	paths, ok := pathsByKind[raw.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown payload kind %q", raw.Kind)
	}
	doc := gjson.ParseBytes(raw.Payload)

	title := cleanText(first(doc, paths.title))
	rawURL := first(doc, paths.url)
	if title == "" || rawURL == "" {
		return nil, fmt.Errorf("missing title or url")
	}
	link, err := canonicalURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	description := truncateRunes(cleanText(first(doc, paths.description)), maxDescriptionRunes)

	published, err := parseDate(first(doc, paths.published))
	if err != nil {
		published = n.now().UTC()
	}

	item := &model.NewsItem{
		ID:          n.newID(),
		Title:       title,
		Description: description,
		URL:         link,
		PublishedAt: published,
		ImageURL:    first(doc, paths.image),
	}

	if src.IsFeed() {
		item.Source = model.SourceRef{Name: src.Name, Bias: src.Bias}
		item.Category = src.Category
	} else {
		name := cleanText(first(doc, paths.sourceName))
		if name == "" {
			name = src.Name
		}
		item.Source = model.SourceRef{Name: name, Bias: n.cls.ClassifyBias(name)}
		item.Category = n.apiCategory(raw.Kind, first(doc, paths.category), requested)
	}

	if n.kw != nil {
		item.Keywords = n.kw.Extract(item.Title, item.Description, n.keywordLimit)
	}
	if item.Keywords == nil {
		item.Keywords = []string{}
	}
	return item, nil
}

// apiCategory 外部分类能映射就用映射结果，否则用本轮请求的分类，请求 all 时为 news
func (n *Normalizer) apiCategory(kind model.SourceKind, raw string, requested model.Category) model.Category {
	if cat, ok := n.cls.LookupExternalCategory(kind, raw); ok {
		return cat
	}
	if requested == "" || requested == model.CategoryAll {
		return n.cls.MapExternalCategory(kind, raw)
	}
	return requested
}
