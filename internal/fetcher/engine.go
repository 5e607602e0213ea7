// Package fetcher 实现带重试、备用地址和退避的 HTTP 抓取。
//
// 每个请求按域名解析出 Policy，循环最多 MaxRetries+1 次：
// 重定向切换地址并消耗一次尝试；404/410 立即放弃；403 之后换用更宽松的请求头；
// 有未尝试的备用地址时先切换，否则等待 BackoffBase*2^attempt 后重试同一地址。
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MaxBodyBytes 单次响应体上限
const MaxBodyBytes = 10 << 20

// Request 一次抓取请求
type Request struct {
	SourceID   string
	URL        string
	Alternates []string          // 先于策略中的备用地址尝试
	Raw        bool              // API 模式：JSON 请求头，返回原始字节
	Headers    map[string]string // 追加或覆盖策略请求头
}

// Result 抓取结果。解析模式下 Feed 非空；直连模式和 API 模式只有 Body
type Result struct {
	Body     []byte
	Feed     *gofeed.Feed
	FinalURL string
	Attempts int
	Tried    []string
	Direct   bool
}

// Options 引擎参数，零值可用
type Options struct {
	Client    *http.Client
	HostRPS   float64 // 每个主机每秒请求数，<=0 不限速
	HostBurst int
	Resolve   func(rawURL string) Policy
}

// Engine 并发安全
type Engine struct {
	client  *http.Client
	resolve func(string) Policy
	log     *zap.Logger

	rps      rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewEngine(log *zap.Logger, opts Options) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	// 重定向由重试循环自己处理
	c := *client
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resolve := opts.Resolve
	if resolve == nil {
		resolve = ResolvePolicy
	}
	burst := opts.HostBurst
	if burst <= 0 {
		burst = 1
	}
	return &Engine{
		client:   &c,
		resolve:  resolve,
		log:      log,
		rps:      rate.Limit(opts.HostRPS),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Fetch 执行重试循环，失败时返回 *FetchError
func (e *Engine) Fetch(ctx context.Context, req Request) (*Result, error) {
	pol := e.resolve(req.URL)
	headers := cloneHeaders(pol.Headers)
	switch {
	case req.Raw:
		headers = apiHeaders()
	case pol.Direct:
		for k, v := range browserHeaders(headers["Referer"]) {
			if _, ok := headers[k]; !ok {
				headers[k] = v
			}
		}
	}
	for k, v := range req.Headers {
		headers[k] = v
	}

	alternates := uniqueAlternates(req.URL, req.Alternates, pol.Alternates)
	maxAttempts := pol.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	log := e.log.With(zap.String("source", req.SourceID))

	var (
		current = req.URL
		tried   []string
		lastErr error
		attempt int
		nextAlt int
	)
	fail := func(err error) (*Result, error) {
		return nil, &FetchError{
			SourceID: req.SourceID,
			Kind:     Classify(err),
			URLs:     redactAll(tried),
			Attempts: attempt,
			Err:      err,
		}
	}

	for attempt < maxAttempts {
		attempt++
		tried = appendUnique(tried, current)

		resp, err := e.do(ctx, current, headers, pol.Timeout)
		if err == nil {
			switch {
			case isRedirect(resp.code) && resp.location != "":
				next := resolveRef(current, resp.location)
				log.Info("following redirect",
					zap.String("from", redact(current)), zap.String("to", redact(next)), zap.Int("attempt", attempt))
				lastErr = &StatusError{URL: redact(current), Code: resp.code, Location: redact(next)}
				current = next
				continue
			case resp.code >= 200 && resp.code < 300:
				res := &Result{
					Body:     resp.body,
					FinalURL: current,
					Attempts: attempt,
					Tried:    tried,
					Direct:   pol.Direct,
				}
				if req.Raw || pol.Direct {
					return res, nil
				}
				feed, perr := ParseFeed(resp.body)
				if perr != nil {
					log.Warn("feed parse failed", zap.String("url", redact(current)), zap.Error(perr))
					return fail(perr)
				}
				res.Feed = feed
				return res, nil
			default:
				err = &StatusError{URL: redact(current), Code: resp.code}
			}
		}

		lastErr = err
		kind := Classify(err)
		log.Warn("fetch attempt failed",
			zap.String("url", redact(current)),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.String("kind", string(kind)),
			zap.Error(err))

		if !retryable(kind) || ctx.Err() != nil {
			return fail(err)
		}
		if kind == KindForbidden {
			headers = permissiveHeaders(headers, req.URL)
		}
		if attempt >= maxAttempts {
			break
		}
		if nextAlt < len(alternates) {
			current = alternates[nextAlt]
			nextAlt++
			log.Info("trying alternate url", zap.String("url", redact(current)))
			continue
		}
		wait := backoff(pol.BackoffBase, attempt-1)
		if err := sleep(ctx, wait); err != nil {
			return fail(err)
		}
	}

	if lastErr == nil {
		lastErr = errors.New("fetcher: no attempt made")
	}
	return fail(lastErr)
}

type response struct {
	code     int
	location string
	body     []byte
}

func (e *Engine) do(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) (*response, error) {
	if err := e.wait(ctx, rawURL); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetcher: build request %s: %w", redact(rawURL), err)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = redact(ue.URL)
		}
		return nil, err
	}
	defer resp.Body.Close()

	out := &response{code: resp.StatusCode, location: resp.Header.Get("Location")}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 丢弃响应体以便复用连接
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return out, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetcher: read body %s: %w", redact(rawURL), err)
	}
	if len(body) > MaxBodyBytes {
		return nil, fmt.Errorf("fetcher: body of %s exceeds %d bytes", redact(rawURL), MaxBodyBytes)
	}
	out.body = body
	return out, nil
}

// wait 按主机限速，避免同一主机上的大量 feed 同时请求
func (e *Engine) wait(ctx context.Context, rawURL string) error {
	if e.rps <= 0 {
		return nil
	}
	host := hostOf(rawURL)
	e.mu.Lock()
	lim, ok := e.limiters[host]
	if !ok {
		lim = rate.NewLimiter(e.rps, e.burst)
		e.limiters[host] = lim
	}
	e.mu.Unlock()
	return lim.Wait(ctx)
}

// ParseFeed 解析 RSS/Atom/JSON Feed，失败包装为 ErrParse
func ParseFeed(body []byte) (*gofeed.Feed, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return feed, nil
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func resolveRef(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func backoff(base time.Duration, n int) time.Duration {
	if base <= 0 {
		base = DefaultBackoffBase
	}
	return base << uint(n)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func uniqueAlternates(primary string, lists ...[]string) []string {
	seen := map[string]struct{}{primary: {}}
	var out []string
	for _, list := range lists {
		for _, u := range list {
			if u == "" {
				continue
			}
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}

// 日志和错误里不出现 API 密钥
var secretParams = []string{"apikey", "apiKey", "api_key", "api_token", "token"}

func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return rawURL
	}
	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return rawURL
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func redactAll(urls []string) []string {
	out := make([]string, len(urls))
	for i, u := range urls {
		out[i] = redact(u)
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
