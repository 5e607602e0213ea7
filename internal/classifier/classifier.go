// Package classifier 把来源名称映射为政治倾向，把外部 API 的分类映射为内部分类。
//
// 映射表是数据而不是代码：默认表内嵌在 tables.yaml 中，可通过外部 YAML 文件整体替换。
// 分类本身是启发式的，误判属于已知局限。
package classifier

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LJTian/NewsSpectrum/internal/model"
)

//go:embed tables.yaml
var defaultTables []byte

type biasEntry struct {
	Name string `yaml:"name"`
	Bias string `yaml:"bias"`
}

// Tables YAML 中的映射表结构
type Tables struct {
	Bias     []biasEntry                  `yaml:"bias"`
	Inbound  map[string]map[string]string `yaml:"inbound"`
	Outbound map[string]map[string]string `yaml:"outbound"`
}

type biasRule struct {
	key  string // 小写名称
	bias model.Bias
}

// Classifier 无副作用、确定性的分类器，可被多个 goroutine 共享
type Classifier struct {
	rules    []biasRule
	inbound  map[model.SourceKind]map[string]model.Category
	outbound map[model.SourceKind]map[model.Category]string
}

// Default 使用内嵌映射表构造分类器
func Default() *Classifier {
	c, err := Parse(defaultTables)
	if err != nil {
		// 内嵌表由单元测试保证合法
		panic(fmt.Sprintf("classifier: embedded tables invalid: %v", err))
	}
	return c
}

// Load 从 path 读取映射表；path 为空时使用内嵌表
func Load(path string) (*Classifier, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: read tables %s: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析 YAML 映射表
func Parse(data []byte) (*Classifier, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("classifier: decode tables: %w", err)
	}
	return fromTables(t)
}

func fromTables(t Tables) (*Classifier, error) {
	c := &Classifier{
		rules:    make([]biasRule, 0, len(t.Bias)),
		inbound:  make(map[model.SourceKind]map[string]model.Category),
		outbound: make(map[model.SourceKind]map[model.Category]string),
	}

	for i, e := range t.Bias {
		key := strings.ToLower(strings.TrimSpace(e.Name))
		if key == "" {
			return nil, fmt.Errorf("classifier: bias entry %d has empty name", i)
		}
		b := model.ParseBias(e.Bias)
		if b == model.BiasUnclear && !strings.EqualFold(e.Bias, string(model.BiasUnclear)) {
			return nil, fmt.Errorf("classifier: bias entry %q has unknown label %q", e.Name, e.Bias)
		}
		c.rules = append(c.rules, biasRule{key: key, bias: b})
	}

	for api, table := range t.Inbound {
		kind := model.SourceKind(strings.ToLower(api))
		m := make(map[string]model.Category, len(table))
		for raw, cat := range table {
			parsed, ok := model.ParseCategory(cat)
			if !ok || parsed == model.CategoryAll {
				return nil, fmt.Errorf("classifier: inbound %s/%s maps to unknown category %q", api, raw, cat)
			}
			m[strings.ToLower(strings.TrimSpace(raw))] = parsed
		}
		c.inbound[kind] = m
	}

	for api, table := range t.Outbound {
		kind := model.SourceKind(strings.ToLower(api))
		m := make(map[model.Category]string, len(table))
		for cat, param := range table {
			parsed, ok := model.ParseCategory(cat)
			if !ok {
				return nil, fmt.Errorf("classifier: outbound %s has unknown category %q", api, cat)
			}
			m[parsed] = param
		}
		c.outbound[kind] = m
	}

	return c, nil
}

// ClassifyBias 根据来源名称判断倾向：先忽略大小写精确匹配，
// 再按表顺序做双向包含匹配，都不命中返回 Unclear
func (c *Classifier) ClassifyBias(sourceName string) model.Bias {
	name := strings.ToLower(strings.TrimSpace(sourceName))
	if name == "" {
		return model.BiasUnclear
	}
	for _, r := range c.rules {
		if r.key == name {
			return r.bias
		}
	}
	for _, r := range c.rules {
		if strings.Contains(name, r.key) || strings.Contains(r.key, name) {
			return r.bias
		}
	}
	return model.BiasUnclear
}

// MapExternalCategory 把外部 API 返回的分类映射为内部分类，缺失或未知时为 news
func (c *Classifier) MapExternalCategory(api model.SourceKind, raw string) model.Category {
	cat, ok := c.lookupInbound(api, raw)
	if !ok {
		return model.CategoryNews
	}
	return cat
}

// LookupExternalCategory 与 MapExternalCategory 相同，但未命中时返回 false，
// 便于调用方回退到本轮请求的分类
func (c *Classifier) LookupExternalCategory(api model.SourceKind, raw string) (model.Category, bool) {
	return c.lookupInbound(api, raw)
}

func (c *Classifier) lookupInbound(api model.SourceKind, raw string) (model.Category, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", false
	}
	table, ok := c.inbound[api]
	if !ok {
		return "", false
	}
	cat, ok := table[raw]
	return cat, ok
}

// OutboundCategory 返回请求外部 API 时使用的分类参数，空串表示不带分类
func (c *Classifier) OutboundCategory(api model.SourceKind, requested model.Category) string {
	if requested == "" {
		requested = model.CategoryAll
	}
	return c.outbound[api][requested]
}
