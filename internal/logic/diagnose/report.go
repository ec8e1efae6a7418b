package diagnose

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"obsidian-debug/internal/logic/logparser"
)

type ReportStatus string

const (
	ReportStatusSuccess ReportStatus = "success"
	ReportStatusFailed  ReportStatus = "failed"
)

// Report 一笔交易的完整诊断结果，交给 LLM 提示词或前端展示
type Report struct {
	ID                     string                           `json:"id"`
	Signature              string                           `json:"signature"`
	Slot                   uint64                           `json:"slot"`
	BlockTime              *int64                           `json:"blockTime,omitempty"`
	Status                 ReportStatus                     `json:"status"`
	Fee                    uint64                           `json:"fee"`
	ComputeUnitsConsumed   uint64                           `json:"computeUnitsConsumed"`
	FailedInstructionIndex *int                             `json:"failedInstructionIndex,omitempty"`
	Summary                string                           `json:"summary"`
	Error                  *EnrichedError                   `json:"error,omitempty"`
	RuntimeError           *RuntimeErrorDetail              `json:"runtimeError,omitempty"`
	AnchorError            *logparser.AnchorLogError        `json:"anchorError,omitempty"`
	Pattern                *PatternMatch                    `json:"pattern,omitempty"`
	ExecutionFlow          []logparser.InstructionExecution `json:"executionFlow"`
	ProgramLogs            []logparser.ProgramLog           `json:"programLogs"`
	LogsTruncated          bool                             `json:"logsTruncated,omitempty"`
	GeneratedAt            time.Time                        `json:"generatedAt"`
}

// Service 组合日志解析、错误码解析与关键词匹配，本身无 I/O
type Service struct {
	parser   *logparser.Parser
	enricher *Enricher
	now      func() time.Time
}

func NewService(resolver ErrorResolver, matcher PatternMatcher) *Service {
	return &Service{
		parser:   logparser.NewParser(resolver),
		enricher: NewEnricher(resolver, matcher),
		now:      time.Now,
	}
}

// Parser 暴露内部解析器，供只需要执行流的调用方使用
func (s *Service) Parser() *logparser.Parser {
	return s.parser
}

// Enricher 暴露内部 Enricher
func (s *Service) Enricher() *Enricher {
	return s.enricher
}

// Diagnose 生成诊断报告，tx 为 nil 时返回 nil
func (s *Service) Diagnose(tx *Transaction) *Report {
	if tx == nil {
		return nil
	}
	trace := s.parser.Parse(tx.LogMessages)

	r := &Report{
		ID:            uuid.NewString(),
		Signature:     tx.Signature,
		Slot:          tx.Slot,
		BlockTime:     tx.BlockTime,
		Status:        ReportStatusSuccess,
		Fee:           tx.Fee,
		ExecutionFlow: trace.ExecutionFlow,
		ProgramLogs:   trace.ProgramLogs,
		LogsTruncated: trace.Truncated,
		AnchorError:   trace.AnchorError,
		GeneratedAt:   s.now().UTC(),
	}
	if tx.ComputeUnitsConsumed != nil {
		r.ComputeUnitsConsumed = *tx.ComputeUnitsConsumed
	} else {
		r.ComputeUnitsConsumed = trace.TotalComputeUsed()
	}

	if !tx.Failed() {
		r.Summary = "Transaction succeeded"
		return r
	}

	r.Status = ReportStatusFailed
	r.RuntimeError = DescribeRuntimeError(tx.Err)
	r.Error = s.enricher.Enrich(tx.Err, tx.ProgramIDs, tx.LogMessages)
	if r.Error != nil {
		r.Pattern = r.Error.Pattern
	} else {
		r.Pattern = s.enricher.matchLogs(tx.LogMessages)
	}
	r.FailedInstructionIndex = failedIndex(r, trace)
	r.Summary = summarize(r)
	return r
}

func failedIndex(r *Report, trace *logparser.Trace) *int {
	if r.Error != nil {
		idx := r.Error.InstructionIndex
		return &idx
	}
	if r.RuntimeError != nil && r.RuntimeError.Kind == RuntimeKindInstruction {
		return r.RuntimeError.InstructionIndex
	}
	if ix := trace.FailedInstruction(); ix != nil {
		idx := ix.Index
		return &idx
	}
	return nil
}

func summarize(r *Report) string {
	switch {
	case r.Error != nil && r.Error.Resolved:
		return fmt.Sprintf("Instruction #%d (%s) failed with %s (%s): %s",
			r.Error.InstructionIndex, r.Error.ProgramName, r.Error.ErrorName, r.Error.ErrorCode, r.Error.ErrorDescription)
	case r.Error != nil:
		return fmt.Sprintf("Instruction #%d (%s) failed with unknown custom error %s",
			r.Error.InstructionIndex, r.Error.ProgramName, r.Error.ErrorCode)
	case r.RuntimeError != nil && r.RuntimeError.InstructionIndex != nil && r.RuntimeError.Kind == RuntimeKindInstruction:
		return fmt.Sprintf("Instruction #%d failed with %s: %s",
			*r.RuntimeError.InstructionIndex, r.RuntimeError.Name, r.RuntimeError.Description)
	case r.RuntimeError != nil:
		return fmt.Sprintf("Transaction failed with %s: %s", r.RuntimeError.Name, r.RuntimeError.Description)
	}
	return "Transaction failed"
}
