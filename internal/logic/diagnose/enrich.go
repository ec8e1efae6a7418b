package diagnose

import (
	"obsidian-debug/internal/consts"
	"obsidian-debug/internal/logic/errorcodes"
	"obsidian-debug/internal/logic/patterns"
)

// ErrorResolver errorcodes.Registry 实现了该接口
type ErrorResolver interface {
	Resolve(programID string, code uint32) *errorcodes.ResolvedError
	ProgramName(programID string) string
}

// PatternMatcher patterns.Matcher 实现了该接口
type PatternMatcher interface {
	Best(logText string) (*patterns.ErrorPattern, float64)
}

// PatternMatch 关键词匹配结果
type PatternMatch struct {
	Category     string            `json:"category"`
	LikelyReason string            `json:"likelyReason"`
	QuickFix     string            `json:"quickFix"`
	Severity     patterns.Severity `json:"severity"`
	Score        float64           `json:"score"`
}

// EnrichedError 一次 Custom 错误解析的完整输出，只用于返回，不落库。
// 未解析到的错误名称等字段为空并在 JSON 中省略，调用方需把“未知错误码”作为常见情况处理。
type EnrichedError struct {
	InstructionIndex int                     `json:"instructionIndex"`
	ProgramID        string                  `json:"programId"`
	ProgramName      string                  `json:"programName"`
	ErrorCode        string                  `json:"errorCode"`
	ErrorCodeDecimal uint32                  `json:"errorCodeDecimal"`
	Resolved         bool                    `json:"resolved"`
	ErrorName        string                  `json:"errorName,omitempty"`
	ErrorDescription string                  `json:"errorDescription,omitempty"`
	Category         string                  `json:"category,omitempty"`
	DebugTip         string                  `json:"debugTip,omitempty"`
	Docs             []string                `json:"docs,omitempty"`
	Source           *errorcodes.ErrorSource `json:"source,omitempty"`
	Pattern          *PatternMatch           `json:"pattern,omitempty"`
	RawError         any                     `json:"rawError"`
}

// Enricher 把 meta.err、顶层指令的程序地址与日志合成 EnrichedError
type Enricher struct {
	resolver ErrorResolver
	matcher  PatternMatcher
}

// NewEnricher matcher 可为 nil，此时不做关键词匹配
func NewEnricher(resolver ErrorResolver, matcher PatternMatcher) *Enricher {
	return &Enricher{resolver: resolver, matcher: matcher}
}

// Enrich 只处理 {InstructionError: [index, {Custom: code}]}，其他形态直接返回 nil，不做任何解析。
// programIDs[i] 为第 i 条顶层指令的程序地址；下标越界时程序记为 Unknown，仍尝试 Anchor 回退。
func (e *Enricher) Enrich(rawErr any, programIDs []string, logs []string) *EnrichedError {
	tuple, ok := DecodeCustomError(rawErr)
	if !ok {
		return nil
	}

	out := &EnrichedError{
		InstructionIndex: tuple.Index,
		ProgramName:      consts.UnknownProgram,
		ErrorCode:        FormatErrorCode(tuple.Code),
		ErrorCodeDecimal: tuple.Code,
		RawError:         rawErr,
	}
	if tuple.Index < len(programIDs) {
		out.ProgramID = programIDs[tuple.Index]
		out.ProgramName = e.resolver.ProgramName(out.ProgramID)
	}

	if resolved := e.resolver.Resolve(out.ProgramID, tuple.Code); resolved != nil {
		out.Resolved = true
		out.ErrorName = resolved.Name
		out.ErrorDescription = resolved.Description
		out.Category = resolved.Category
		out.DebugTip = resolved.DebugTip
		out.Docs = resolved.Docs
		src := resolved.Source
		out.Source = &src
	}

	out.Pattern = e.matchLogs(logs)
	return out
}

func (e *Enricher) matchLogs(logs []string) *PatternMatch {
	if e.matcher == nil || len(logs) == 0 {
		return nil
	}
	p, score := e.matcher.Best(joinLogs(logs))
	if p == nil {
		return nil
	}
	return &PatternMatch{
		Category:     p.Category,
		LikelyReason: p.LikelyReason,
		QuickFix:     p.QuickFix,
		Severity:     p.Severity,
		Score:        score,
	}
}
