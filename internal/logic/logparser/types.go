package logparser

// Status 顶层指令执行结果
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Level 程序日志级别
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
	LevelData  Level = "data"
)

// InstructionExecution 一条顶层指令的执行记录，CPI 产生的内层指令不单独记录。
// Index 只在顶层指令之间计数，与交易 message 中的指令下标一一对应。
type InstructionExecution struct {
	Index       int     `json:"index"`
	ProgramID   string  `json:"programId"`
	ProgramName string  `json:"programName"`
	Status      Status  `json:"status"`
	Error       string  `json:"error,omitempty"`
	ComputeUsed *uint64 `json:"computeUsed,omitempty"`
}

// ProgramLog 一条归属到具体程序的日志，保持原始顺序，不去重
type ProgramLog struct {
	Program string `json:"program"`
	Message string `json:"message"`
	Level   Level  `json:"level"`
}

// AnchorLogError Anchor 程序失败前打印的结构化错误行
type AnchorLogError struct {
	ProgramID   string `json:"programId,omitempty"`
	ProgramName string `json:"programName,omitempty"`
	ErrorCode   string `json:"errorCode"`
	ErrorNumber uint32 `json:"errorNumber"`
	Message     string `json:"message"`
	Account     string `json:"account,omitempty"` // caused by account
	Origin      string `json:"origin,omitempty"`  // thrown in file:line
}

// Trace 一次解析的结果，每次调用新建，不缓存
type Trace struct {
	ExecutionFlow []InstructionExecution `json:"executionFlow"`
	ProgramLogs   []ProgramLog           `json:"programLogs"`
	// Truncated 运行时日志超出上限被截断，执行流可能不完整
	Truncated bool `json:"truncated,omitempty"`
	// AnchorError 第一条 AnchorError 日志，通常是最内层的根因
	AnchorError *AnchorLogError `json:"anchorError,omitempty"`
}

// FailedInstruction 返回第一个失败的顶层指令，没有则返回 nil
func (t *Trace) FailedInstruction() *InstructionExecution {
	for i := range t.ExecutionFlow {
		if t.ExecutionFlow[i].Status == StatusFailed {
			return &t.ExecutionFlow[i]
		}
	}
	return nil
}

// TotalComputeUsed 汇总顶层指令消耗的计算单元
func (t *Trace) TotalComputeUsed() uint64 {
	var total uint64
	for _, ix := range t.ExecutionFlow {
		if ix.ComputeUsed != nil {
			total += *ix.ComputeUsed
		}
	}
	return total
}
