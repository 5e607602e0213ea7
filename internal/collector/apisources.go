package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/LJTian/NewsSpectrum/internal/catalog"
	"github.com/LJTian/NewsSpectrum/internal/classifier"
	"github.com/LJTian/NewsSpectrum/internal/fetcher"
	"github.com/LJTian/NewsSpectrum/internal/model"
)

const defaultPageSize = 10

// articles 从 API 响应中取出文章数组，每篇文章原样作为 RawItem
func articles(kind model.SourceKind, body []byte, path string) ([]model.RawItem, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: %w: invalid json", kind, fetcher.ErrParse)
	}
	doc := gjson.ParseBytes(body)
	if doc.Get("status").String() == "error" {
		return nil, fmt.Errorf("%s: api error %s: %s", kind, doc.Get("code").String(), doc.Get("message").String())
	}
	if errs := doc.Get("errors"); errs.Exists() && !doc.Get(path).Exists() {
		return nil, fmt.Errorf("%s: api error: %s", kind, errs.Raw)
	}
	if e := doc.Get("error"); e.Exists() && !doc.Get(path).Exists() {
		return nil, fmt.Errorf("%s: api error: %s", kind, e.Get("message").String())
	}

	arr := doc.Get(path)
	if !arr.IsArray() {
		return nil, fmt.Errorf("%s: %w: missing %q array", kind, fetcher.ErrParse, path)
	}
	out := make([]model.RawItem, 0, len(arr.Array()))
	arr.ForEach(func(_, v gjson.Result) bool {
		if v.IsObject() {
			out = append(out, model.RawItem{Kind: kind, Payload: []byte(v.Raw)})
		}
		return true
	})
	return out, nil
}

// NewsAPISource newsapi.org top-headlines
type NewsAPISource struct {
	src      catalog.Source
	engine   Getter
	cls      *classifier.Classifier
	apiKey   string
	pageSize int
}

func NewNewsAPISource(src catalog.Source, engine Getter, cls *classifier.Classifier, apiKey string, pageSize int) *NewsAPISource {
	return &NewsAPISource{src: src, engine: engine, cls: cls, apiKey: apiKey, pageSize: pageSize}
}

func (s *NewsAPISource) Source() catalog.Source { return s.src }

func (s *NewsAPISource) Fetch(ctx context.Context, category model.Category) ([]model.RawItem, error) {
	if s.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	q := url.Values{}
	q.Set("country", "us")
	q.Set("pageSize", strconv.Itoa(s.pageSize))
	if c := s.cls.OutboundCategory(model.KindNewsAPI, category); c != "" {
		q.Set("category", c)
	}

	res, err := s.engine.Fetch(ctx, fetcher.Request{
		SourceID: s.src.ID,
		URL:      s.src.Endpoint + "?" + q.Encode(),
		Raw:      true,
		Headers:  map[string]string{"X-Api-Key": s.apiKey},
	})
	if err != nil {
		return nil, err
	}
	return articles(model.KindNewsAPI, res.Body, "articles")
}

// GNewsSource gnews.io top-headlines
type GNewsSource struct {
	src      catalog.Source
	engine   Getter
	cls      *classifier.Classifier
	apiKey   string
	pageSize int
}

func NewGNewsSource(src catalog.Source, engine Getter, cls *classifier.Classifier, apiKey string, pageSize int) *GNewsSource {
	return &GNewsSource{src: src, engine: engine, cls: cls, apiKey: apiKey, pageSize: pageSize}
}

func (s *GNewsSource) Source() catalog.Source { return s.src }

func (s *GNewsSource) Fetch(ctx context.Context, category model.Category) ([]model.RawItem, error) {
	if s.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	q := url.Values{}
	q.Set("apikey", s.apiKey)
	q.Set("lang", "en")
	q.Set("country", "us")
	q.Set("max", strconv.Itoa(s.pageSize))
	if c := s.cls.OutboundCategory(model.KindGNews, category); c != "" {
		q.Set("category", c)
	}

	res, err := s.engine.Fetch(ctx, fetcher.Request{
		SourceID: s.src.ID,
		URL:      s.src.Endpoint + "?" + q.Encode(),
		Raw:      true,
	})
	if err != nil {
		return nil, err
	}
	return articles(model.KindGNews, res.Body, "articles")
}

type tnaEndpoint struct {
	url    string
	search string
	cat    string
}

// TheNewsAPISource 先请求 top 再请求 all，两次结果按 URL 去重合并
type TheNewsAPISource struct {
	src      catalog.Source
	engine   Getter
	cls      *classifier.Classifier
	apiKey   string
	pageSize int
	log      *zap.Logger
}

func NewTheNewsAPISource(src catalog.Source, engine Getter, cls *classifier.Classifier, apiKey string, pageSize int, log *zap.Logger) *TheNewsAPISource {
	if log == nil {
		log = zap.NewNop()
	}
	return &TheNewsAPISource{src: src, engine: engine, cls: cls, apiKey: apiKey, pageSize: pageSize, log: log}
}

func (s *TheNewsAPISource) Source() catalog.Source { return s.src }

func (s *TheNewsAPISource) Fetch(ctx context.Context, category model.Category) ([]model.RawItem, error) {
	if s.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	apiCategory := s.cls.OutboundCategory(model.KindTheNewsAPI, category)

	endpoints := []tnaEndpoint{{url: s.src.Endpoint, search: "today", cat: apiCategory}}
	if len(s.src.Alternates) > 0 {
		cat := apiCategory
		if cat == "general" {
			cat = ""
		}
		endpoints = append(endpoints, tnaEndpoint{
			url:    s.src.Alternates[0],
			search: "world news OR politics OR business",
			cat:    cat,
		})
	}

	var (
		out  []model.RawItem
		seen = make(map[string]struct{})
		errs []error
	)
	for _, ep := range endpoints {
		q := url.Values{}
		q.Set("api_token", s.apiKey)
		q.Set("language", "en")
		q.Set("limit", strconv.Itoa(s.pageSize))
		q.Set("search", ep.search)
		if ep.cat != "" {
			q.Set("categories", ep.cat)
		}
		res, err := s.engine.Fetch(ctx, fetcher.Request{
			SourceID: s.src.ID,
			URL:      ep.url + "?" + q.Encode(),
			Raw:      true,
		})
		if err == nil {
			var items []model.RawItem
			items, err = articles(model.KindTheNewsAPI, res.Body, "data")
			if err == nil {
				for _, it := range items {
					u := gjson.GetBytes(it.Payload, "url").String()
					if _, dup := seen[u]; dup && u != "" {
						continue
					}
					seen[u] = struct{}{}
					out = append(out, it)
				}
				continue
			}
		}
		s.log.Warn("thenewsapi endpoint failed", zap.String("url", ep.url), zap.Error(err))
		errs = append(errs, err)
	}

	// 两个端点都失败才算失败
	if len(errs) == len(endpoints) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
