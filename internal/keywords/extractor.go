// Package keywords 从标题和摘要中抽取关键词。
//
// 主路径使用 prose 做词性标注和命名实体识别；NLP 出错或 panic 时退化为按空白切分标题。
// Extract 永远不会把错误或 panic 抛给调用方。
package keywords

import (
	"fmt"
	"html"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"
)

const (
	// DefaultLimit 未指定上限时返回的最大关键词数
	DefaultLimit = 15
	// fallbackLimit 退化路径最多返回的词数
	fallbackLimit = 10
)

// Extractor 关键词抽取器，可并发使用
type Extractor struct {
	log     *zap.Logger
	analyze func(text string) ([]string, error)
}

// New 创建使用 prose 的抽取器
func New(log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{log: log, analyze: proseTerms}
}

// Extract 返回去重、保序、小写的关键词，最多 limit 个（limit<=0 时为 DefaultLimit）
func (e *Extractor) Extract(title, description string, limit int) (out []string) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	title = html.UnescapeString(strings.TrimSpace(title))
	description = html.UnescapeString(strings.TrimSpace(description))
	if title == "" && description == "" {
		return []string{}
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("keyword extraction panicked, using title fallback",
				zap.String("title", title), zap.Any("panic", r))
			out = fallback(title, limit)
		}
	}()

	text := title
	if description != "" {
		text = title + ". " + description
	}
	terms, err := e.analyze(text)
	if err != nil {
		e.log.Warn("keyword extraction failed, using title fallback",
			zap.String("title", title), zap.Error(err))
		return fallback(title, limit)
	}
	return filterTerms(terms, limit)
}

// proseTerms 依次产出名词短语、命名实体、缩写词
func proseTerms(text string) ([]string, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("keywords: analyze: %w", err)
	}

	var terms []string
	var phrase []string
	flush := func() {
		if len(phrase) > 0 {
			terms = append(terms, strings.Join(phrase, " "))
			phrase = phrase[:0]
		}
	}
	tokens := doc.Tokens()
	for _, tok := range tokens {
		if strings.HasPrefix(tok.Tag, "NN") {
			phrase = append(phrase, tok.Text)
			continue
		}
		flush()
	}
	flush()

	for _, ent := range doc.Entities() {
		terms = append(terms, ent.Text)
	}
	for _, tok := range tokens {
		if isAcronym(tok.Text) {
			terms = append(terms, tok.Text)
		}
	}
	return terms, nil
}

func isAcronym(s string) bool {
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			letters++
		case r == '.':
		default:
			return false
		}
	}
	return letters >= 2
}

func filterTerms(terms []string, limit int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = cleanTerm(t)
		if !acceptable(t) {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out
}

func cleanTerm(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	t = strings.TrimSuffix(t, "'s")
	t = strings.TrimSuffix(t, "’s")
	t = strings.Trim(t, ".,!?;:")
	t = strings.Map(func(r rune) rune {
		switch r {
		case '(', ')', '[', ']', '{', '}', '"':
			return -1
		}
		return r
	}, t)
	return strings.Join(strings.Fields(t), " ")
}

func acceptable(t string) bool {
	if len([]rune(t)) <= 2 || isNumeric(t) {
		return false
	}
	if _, ok := stopWords[t]; ok {
		return false
	}
	if strings.Contains(t, "cartoon") {
		return false
	}
	return !mentionsMedia(t)
}

// isNumeric 数字及其常见写法：1,000 / 2.5 / 10:30 / $100 / 40%
func isNumeric(s string) bool {
	digits := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits = true
		case strings.ContainsRune(",.$%:", r):
		default:
			return false
		}
	}
	return digits
}

func mentionsMedia(t string) bool {
	padded := " " + t + " "
	for _, name := range mediaNames {
		if strings.Contains(padded, " "+name+" ") {
			return true
		}
	}
	return false
}

func fallback(title string, limit int) []string {
	if limit > fallbackLimit {
		limit = fallbackLimit
	}
	out := make([]string, 0, limit)
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if len([]rune(w)) <= 3 || !acceptable(w) {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == limit {
			break
		}
	}
	return out
}
