package model

import (
	"strings"
	"time"
)

// Bias 政治倾向标签，固定枚举
type Bias string

const (
	BiasMainstreamDemocrat   Bias = "mainstream-democrat"
	BiasAlternativeLeft      Bias = "alternative-left"
	BiasCentrist             Bias = "centrist"
	BiasMainstreamRepublican Bias = "mainstream-republican"
	BiasAlternativeRight     Bias = "alternative-right"
	BiasUnclear              Bias = "unclear"
)

// Biases 按展示顺序返回全部倾向标签
func Biases() []Bias {
	return []Bias{
		BiasMainstreamDemocrat,
		BiasAlternativeLeft,
		BiasCentrist,
		BiasMainstreamRepublican,
		BiasAlternativeRight,
		BiasUnclear,
	}
}

// ParseBias 大小写不敏感地解析倾向标签，无法识别时返回 Unclear
func ParseBias(s string) Bias {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, b := range Biases() {
		if string(b) == s {
			return b
		}
	}
	return BiasUnclear
}

// Category 内部话题分类
type Category string

const (
	CategoryAll           Category = "all"
	CategoryNews          Category = "news"
	CategoryPolitics      Category = "politics"
	CategoryWorld         Category = "world"
	CategoryUS            Category = "us"
	CategoryTech          Category = "tech"
	CategoryScience       Category = "science"
	CategoryHealth        Category = "health"
	CategoryCulture       Category = "culture"
	CategorySports        Category = "sports"
	CategoryEntertainment Category = "entertainment"
	CategoryEconomy       Category = "economy"
	CategoryEnvironment   Category = "environment"
	CategoryMusic         Category = "music"
	CategoryLaw           Category = "law"
	CategoryCrime         Category = "crime"
	CategoryWar           Category = "war"
	CategoryMedia         Category = "media"
	CategoryAI            Category = "ai"
	CategorySpace         Category = "space"
	CategoryFashion       Category = "fashion"
	CategoryArt           Category = "art"
)

var categories = []Category{
	CategoryAll, CategoryNews, CategoryPolitics, CategoryWorld, CategoryUS,
	CategoryTech, CategoryScience, CategoryHealth, CategoryCulture, CategorySports,
	CategoryEntertainment, CategoryEconomy, CategoryEnvironment, CategoryMusic,
	CategoryLaw, CategoryCrime, CategoryWar, CategoryMedia, CategoryAI,
	CategorySpace, CategoryFashion, CategoryArt,
}

// Categories 返回全部分类（含 all）
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory 解析分类字符串；空串视为 all，未知值返回 false
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryAll, true
	}
	for _, c := range categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// SourceKind 数据源类型：RSS 或三种外部新闻 API
type SourceKind string

const (
	KindRSS        SourceKind = "rss"
	KindNewsAPI    SourceKind = "newsapi"
	KindGNews      SourceKind = "gnews"
	KindTheNewsAPI SourceKind = "thenewsapi"
)

// RawItem 单条原始条目，Payload 为 JSON。只在一次采集周期内存在，不落库
type RawItem struct {
	Kind    SourceKind
	Payload []byte
}

// SourceRef 新闻条目上记录的来源信息
type SourceRef struct {
	Name string `json:"name"`
	Bias Bias   `json:"bias"`
}

// NewsItem 归一化后的新闻条目，创建后不可变
type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      SourceRef `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
	Category    Category  `json:"category"`
	Keywords    []string  `json:"keywords"`
	ImageURL    string    `json:"imageUrl,omitempty"`
}
