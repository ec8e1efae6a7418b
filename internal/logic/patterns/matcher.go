package patterns

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// MinScore 命中比例达到该阈值才算匹配
const MinScore = 0.5

// Severity 严重程度
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ErrorPattern 一组关键词对应的失败类别与排查建议
type ErrorPattern struct {
	Category     string   `json:"category" yaml:"category"`
	Keywords     []string `json:"keywords" yaml:"keywords"`
	LikelyReason string   `json:"likelyReason" yaml:"likely_reason"`
	QuickFix     string   `json:"quickFix" yaml:"quick_fix"`
	Severity     Severity `json:"severity" yaml:"severity"`
}

// Score 关键词命中数 / 关键词总数，text 需已小写
func (p *ErrorPattern) Score(lowerText string) float64 {
	if len(p.Keywords) == 0 {
		return 0
	}
	hits := 0
	for _, kw := range p.Keywords {
		if strings.Contains(lowerText, kw) {
			hits++
		}
	}
	return float64(hits) / float64(len(p.Keywords))
}

// Matcher 按定义顺序评估全部模式，构造后只读，可并发使用
type Matcher struct {
	patterns []ErrorPattern
}

// NewMatcher patterns 被复制，关键词统一转为小写
func NewMatcher(patterns []ErrorPattern) *Matcher {
	list := make([]ErrorPattern, 0, len(patterns))
	for _, p := range patterns {
		kws := make([]string, 0, len(p.Keywords))
		for _, kw := range p.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		p.Keywords = kws
		list = append(list, p)
	}
	return &Matcher{patterns: list}
}

// Match 返回得分最高且不低于 MinScore 的模式；得分相同保留先定义的；都不满足返回 nil
func (m *Matcher) Match(logText string) *ErrorPattern {
	p, _ := m.Best(logText)
	return p
}

// Best 同 Match，额外返回得分
func (m *Matcher) Best(logText string) (*ErrorPattern, float64) {
	lower := strings.ToLower(logText)

	bestIdx, bestScore := -1, 0.0
	for i := range m.patterns {
		score := m.patterns[i].Score(lower)
		if score < MinScore {
			continue
		}
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestIdx < 0 {
		return nil, 0
	}
	p := m.patterns[bestIdx]
	return &p, bestScore
}

// MatchLogs 把日志按行拼接后匹配
func (m *Matcher) MatchLogs(logs []string) *ErrorPattern {
	return m.Match(strings.Join(logs, "\n"))
}

// Patterns 返回模式副本
func (m *Matcher) Patterns() []ErrorPattern {
	out := make([]ErrorPattern, len(m.patterns))
	copy(out, m.patterns)
	return out
}

//go:embed data/patterns.yaml
var defaultPatternsYAML []byte

type patternFile struct {
	Patterns []ErrorPattern `yaml:"patterns"`
}

// ParsePatterns 解析 YAML 模式文件
func ParsePatterns(raw []byte) ([]ErrorPattern, error) {
	var f patternFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse patterns: %w", err)
	}
	for i, p := range f.Patterns {
		if p.Category == "" {
			return nil, fmt.Errorf("pattern #%d: missing category", i)
		}
		if len(p.Keywords) == 0 {
			return nil, fmt.Errorf("pattern %q: no keywords", p.Category)
		}
	}
	return f.Patterns, nil
}

// DefaultPatterns 内置模式
func DefaultPatterns() ([]ErrorPattern, error) {
	return ParsePatterns(defaultPatternsYAML)
}

// NewDefaultMatcher 内置数据损坏属于编程错误，直接 panic
func NewDefaultMatcher() *Matcher {
	list, err := DefaultPatterns()
	if err != nil {
		panic(err)
	}
	return NewMatcher(list)
}
