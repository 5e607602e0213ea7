package catalog

import "github.com/LJTian/NewsSpectrum/internal/model"

// 容易刷屏的源单独限流
const floodingSourceCap = 20

func feed(id, name, url string, cat model.Category, bias model.Bias) Source {
	return Source{ID: id, Name: name, Kind: model.KindRSS, Endpoint: url, Category: cat, Bias: bias}
}

func defaultFeeds() []Source {
	var (
		md  = model.BiasMainstreamDemocrat
		al  = model.BiasAlternativeLeft
		ctr = model.BiasCentrist
		mr  = model.BiasMainstreamRepublican
		ar  = model.BiasAlternativeRight
		unc = model.BiasUnclear
	)

	feeds := []Source{
		// 主流偏左
		feed("nyt-home", "New York Times", "https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml", model.CategoryNews, md),
		feed("wapo-politics", "Washington Post Politics", "https://www.washingtonpost.com/rss/politics", model.CategoryPolitics, md),
		feed("npr-news", "NPR News", "https://feeds.npr.org/1001/rss.xml", model.CategoryNews, md),
		feed("vox-world-politics", "Vox World Politics", "https://www.vox.com/rss/world-politics/index.xml", model.CategoryPolitics, md),
		feed("abc-politics", "ABC News - Politics", "https://abcnews.go.com/abcnews/politicsheadlines", model.CategoryPolitics, md),
		feed("abc-us", "ABC News - US", "https://abcnews.go.com/abcnews/usheadlines", model.CategoryUS, md),
		feed("abc-world", "ABC News - World", "https://abcnews.go.com/abcnews/internationalheadlines", model.CategoryWorld, md),
		feed("abc-tech", "ABC News - Technology", "https://abcnews.go.com/abcnews/technologyheadlines", model.CategoryTech, md),
		feed("abc-health", "ABC News - Health", "https://abcnews.go.com/abcnews/healthheadlines", model.CategoryHealth, md),
		feed("guardian-world", "The Guardian World", "https://feeds.theguardian.com/theguardian/world/rss", model.CategoryWorld, md),
		feed("variety", "Variety", "https://variety.com/feed/", model.CategoryEntertainment, md),
		feed("hollywood-reporter", "Hollywood Reporter", "https://www.hollywoodreporter.com/feed/", model.CategoryEntertainment, md),
		feed("vogue", "Vogue", "https://www.vogue.com/feed/rss", model.CategoryFashion, md),
		feed("pitchfork", "Pitchfork", "https://pitchfork.com/feed/feed-news/rss", model.CategoryMusic, md),
		feed("above-the-law", "Above the Law", "https://abovethelaw.com/feed/", model.CategoryLaw, md),

		// 另类左翼
		feed("mother-jones", "Mother Jones", "https://www.motherjones.com/feed/", model.CategoryPolitics, al),
		feed("the-nation", "The Nation", "https://www.thenation.com/feed/", model.CategoryPolitics, al),
		feed("the-intercept", "The Intercept", "https://theintercept.com/feed/?rss", model.CategoryPolitics, al),
		feed("truthdig", "Truthdig", "https://www.truthdig.com/feed/", model.CategoryPolitics, al),

		// 中间
		feed("bbc-world", "BBC News World", "https://feeds.bbci.co.uk/news/world/rss.xml", model.CategoryWorld, ctr),
		feed("pbs-newshour", "PBS NewsHour", "https://www.pbs.org/newshour/feeds/rss/headlines", model.CategoryNews, ctr),
		feed("reuters-top", "Reuters Top News", "https://www.reuters.com/rss/topNews", model.CategoryNews, ctr),
		feed("ap-top", "Associated Press", "https://apnews.com/index.rss", model.CategoryNews, ctr),
		feed("economist", "The Economist", "https://www.economist.com/the-world-this-week/rss.xml", model.CategoryEconomy, ctr),
		feed("cnbc-world", "CNBC World", "https://www.cnbc.com/id/100003114/device/rss/rss.html", model.CategoryEconomy, ctr),
		feed("marketwatch", "MarketWatch", "https://www.marketwatch.com/rss/topstories", model.CategoryEconomy, ctr),
		feed("dw-news", "Deutsche Welle News", "https://www.dw.com/en/top-stories/rss", model.CategoryWorld, ctr),
		feed("times-of-india", "Times of India", "https://timesofindia.indiatimes.com/rssfeeds_us/-2128936835.cms", model.CategoryWorld, ctr),
		feed("aba-journal", "ABA Journal", "https://www.abajournal.com/web_rss_feed", model.CategoryLaw, ctr),
		feed("espn", "ESPN", "https://www.espn.com/espn/rss/news", model.CategorySports, ctr),
		feed("cbs-sports", "CBS Sports", "https://www.cbssports.com/rss/headlines/", model.CategorySports, ctr),
		feed("billboard", "Billboard", "https://www.billboard.com/feed/", model.CategoryMusic, ctr),
		feed("ars-technica", "Ars Technica", "https://feeds.arstechnica.com/arstechnica/index", model.CategoryTech, ctr),
		feed("nature", "Nature", "https://www.nature.com/nature.rss", model.CategoryScience, ctr),
		feed("art-newspaper", "The Art Newspaper", "https://www.theartnewspaper.com/rss.xml", model.CategoryArt, ctr),
		feed("war-on-the-rocks", "War on the Rocks", "https://warontherocks.com/feed/", model.CategoryWar, ctr),
		feed("space-com", "Space.com", "https://www.space.com/feeds/all", model.CategorySpace, ctr),
		feed("scientific-american", "Scientific American", "http://rss.sciam.com/ScientificAmerican-Global", model.CategoryScience, ctr),
		feed("new-scientist", "New Scientist", "https://www.newscientist.com/feed/home/", model.CategoryScience, ctr),
		feed("deadspin", "Deadspin", "https://deadspin.com/rss", model.CategorySports, ctr),
		feed("mashable", "Mashable", "https://mashable.com/feeds/rss/all", model.CategoryTech, ctr),

		// 主流偏右
		feed("washington-times-world", "Washington Times World", "https://www.washingtontimes.com/rss/headlines/news/world/", model.CategoryWorld, mr),
		feed("wsj-world", "Wall Street Journal", "https://feeds.a.dj.com/rss/RSSWorldNews.xml", model.CategoryWorld, mr),
		feed("fox-world", "Fox News World", "https://moxie.foxnews.com/google-publisher/world.xml", model.CategoryWorld, mr),
		feed("fox-politics", "Fox News Politics", "https://moxie.foxnews.com/google-publisher/politics.xml", model.CategoryPolitics, mr),
		feed("ny-post", "New York Post", "https://nypost.com/feed/", model.CategoryNews, mr),
		feed("national-review", "National Review", "https://www.nationalreview.com/feed/", model.CategoryPolitics, mr),

		// 另类右翼
		feed("breitbart", "Breitbart News", "https://www.breitbart.com/feed/", model.CategoryPolitics, ar),
		feed("daily-wire", "The Daily Wire", "https://www.dailywire.com/feeds/rss.xml", model.CategoryPolitics, ar),
		feed("daily-caller", "The Daily Caller", "https://dailycaller.com/feed/", model.CategoryPolitics, ar),
		feed("american-conservative", "The American Conservative", "https://www.theamericanconservative.com/feed/", model.CategoryPolitics, ar),
		feed("political-insider", "The Political Insider", "https://thepoliticalinsider.com/feed/", model.CategoryPolitics, ar),

		// 立场不明确
		feed("al-jazeera", "Al Jazeera", "https://www.aljazeera.com/xml/rss/all.xml", model.CategoryWorld, unc),
		feed("ai-news", "AI News", "https://www.artificialintelligence-news.com/feed/", model.CategoryAI, unc),
	}

	for i := range feeds {
		switch feeds[i].ID {
		case "breitbart":
			feeds[i].Alternates = []string{"http://feeds.feedburner.com/breitbart"}
		case "reuters-top":
			feeds[i].Alternates = []string{"https://www.reuters.com/arc/outboundfeeds/v3/rss/breakingviews/"}
		case "deadspin", "mashable", "war-on-the-rocks", "space-com", "scientific-american", "new-scientist", "art-newspaper":
			feeds[i].ItemCap = floodingSourceCap
		}
	}
	return feeds
}

func apiSources() []Source {
	return []Source{
		{ID: "newsapi", Name: "NewsAPI", Kind: model.KindNewsAPI, Endpoint: "https://newsapi.org/v2/top-headlines", Category: model.CategoryNews, Bias: model.BiasUnclear},
		{ID: "gnews", Name: "GNews", Kind: model.KindGNews, Endpoint: "https://gnews.io/api/v4/top-headlines", Category: model.CategoryNews, Bias: model.BiasUnclear},
		{
			ID:         "thenewsapi",
			Name:       "TheNewsAPI",
			Kind:       model.KindTheNewsAPI,
			Endpoint:   "https://api.thenewsapi.com/v1/news/top",
			Alternates: []string{"https://api.thenewsapi.com/v1/news/all"},
			Category:   model.CategoryNews,
			Bias:       model.BiasUnclear,
		},
	}
}
