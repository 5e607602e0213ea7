package fetcher

import (
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout     = 20 * time.Second
	DefaultMaxRetries  = 2
	DefaultBackoffBase = time.Second
)

const (
	feedReaderUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.127 Safari/537.36"
	browserUA    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	crawlerUA    = "Googlebot/2.1 (+http://www.google.com/bot.html)"
	apiUA        = "NewsSpectrum/1.0 (+https://github.com/LJTian/NewsSpectrum)"
)

// Policy 单个来源的抓取策略
type Policy struct {
	Headers     map[string]string
	Timeout     time.Duration
	MaxRetries  int
	Direct      bool // 直连模式：浏览器请求头，只取原始字节，结构解析留给调用方
	BackoffBase time.Duration
	Alternates  []string
}

func feedReaderHeaders() map[string]string {
	return map[string]string{
		"User-Agent": feedReaderUA,
		"Accept":     "application/rss+xml, application/xml, text/xml, application/atom+xml, */*",
	}
}

func browserHeaders(referer string) map[string]string {
	h := map[string]string{
		"User-Agent":      browserUA,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
		"Cache-Control":   "no-cache",
		"Pragma":          "no-cache",
	}
	if referer != "" {
		h["Referer"] = referer
	}
	return h
}

func apiHeaders() map[string]string {
	return map[string]string{
		"User-Agent": apiUA,
		"Accept":     "application/json",
	}
}

// permissiveHeaders 403 之后改用的请求头
func permissiveHeaders(current map[string]string, rawURL string) map[string]string {
	h := cloneHeaders(current)
	h["User-Agent"] = crawlerUA
	h["Accept"] = "*/*"
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		h["Referer"] = u.Scheme + "://" + u.Host
	}
	return h
}

// DefaultPolicy 普通 RSS 阅读器策略
func DefaultPolicy() Policy {
	return Policy{
		Headers:     feedReaderHeaders(),
		Timeout:     DefaultTimeout,
		MaxRetries:  DefaultMaxRetries,
		BackoffBase: DefaultBackoffBase,
	}
}

// 主动屏蔽 RSS 阅读器的站点
var domainPolicies = map[string]Policy{
	"reuters.com": {
		Headers:     browserHeaders("https://www.reuters.com/"),
		Timeout:     40 * time.Second,
		MaxRetries:  3,
		Direct:      true,
		BackoffBase: DefaultBackoffBase,
		Alternates:  []string{"https://www.reuters.com/arc/outboundfeeds/v3/rss/breakingviews/"},
	},
	"apnews.com": {
		Headers: func() map[string]string {
			h := browserHeaders("https://apnews.com/")
			h["Cookie"] = "apcf=accept"
			return h
		}(),
		Timeout:     40 * time.Second,
		MaxRetries:  3,
		Direct:      true,
		BackoffBase: DefaultBackoffBase,
		Alternates: []string{
			"https://apnews.com/hub/us-news/rss",
			"https://apnews.com/hub/world-news/rss",
			"https://apnews.com/hub/technology/rss",
		},
	},
	"wsj.com": {
		Headers: map[string]string{
			"User-Agent": feedReaderUA,
			"Accept":     "application/rss+xml, application/xml, text/xml, */*",
			"Referer":    "https://www.wsj.com/",
		},
		Timeout:     30 * time.Second,
		MaxRetries:  DefaultMaxRetries,
		Direct:      true,
		BackoffBase: DefaultBackoffBase,
		Alternates:  []string{"https://www.wsj.com/news/rss-news-and-features"},
	},
	"dw.com": {
		Headers: map[string]string{
			"User-Agent": feedReaderUA,
			"Accept":     "application/rss+xml, application/xml, text/xml, */*",
			"Referer":    "https://www.dw.com/",
		},
		Timeout:     30 * time.Second,
		MaxRetries:  DefaultMaxRetries,
		BackoffBase: DefaultBackoffBase,
		Alternates:  []string{"https://rss.dw.com/rdf/rss-en-all"},
	},
}

// ResolvePolicy 按域名后缀匹配策略，最长匹配优先；未命中返回默认策略。
// 返回值是副本，可以安全修改。
func ResolvePolicy(rawURL string) Policy {
	host := hostOf(rawURL)
	best := ""
	for domain := range domainPolicies {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			if len(domain) > len(best) {
				best = domain
			}
		}
	}
	if best == "" {
		return DefaultPolicy()
	}
	p := domainPolicies[best]
	p.Headers = cloneHeaders(p.Headers)
	p.Alternates = append([]string(nil), p.Alternates...)
	return p
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func cloneHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
