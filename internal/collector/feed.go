package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/LJTian/NewsSpectrum/internal/catalog"
	"github.com/LJTian/NewsSpectrum/internal/fetcher"
	"github.com/LJTian/NewsSpectrum/internal/model"
)

// FeedSource 抓取单个 RSS/Atom 源
type FeedSource struct {
	src    catalog.Source
	engine Getter
}

func NewFeedSource(src catalog.Source, engine Getter) *FeedSource {
	return &FeedSource{src: src, engine: engine}
}

func (f *FeedSource) Source() catalog.Source { return f.src }

// Fetch 分类由目录决定，这里忽略请求分类
func (f *FeedSource) Fetch(ctx context.Context, _ model.Category) ([]model.RawItem, error) {
	res, err := f.engine.Fetch(ctx, fetcher.Request{
		SourceID:   f.src.ID,
		URL:        f.src.Endpoint,
		Alternates: f.src.Alternates,
	})
	if err != nil {
		return nil, err
	}

	feed := res.Feed
	if feed == nil {
		// 直连模式只拿到原始字节，在这里做结构解析
		feed, err = fetcher.ParseFeed(res.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.src.ID, err)
		}
	}
	return feedItems(feed)
}

func feedItems(feed *gofeed.Feed) ([]model.RawItem, error) {
	items := make([]model.RawItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		if it.Link == "" && strings.HasPrefix(it.GUID, "http") {
			it.Link = it.GUID
		}
		payload, err := json.Marshal(it)
		if err != nil {
			return nil, fmt.Errorf("collector: encode feed item %q: %w", it.Title, err)
		}
		items = append(items, model.RawItem{Kind: model.KindRSS, Payload: payload})
	}
	return items, nil
}
