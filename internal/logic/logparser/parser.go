package logparser

import (
	"regexp"
	"runtime/debug"
	"strconv"
	"strings"

	"obsidian-debug/internal/consts"
	"obsidian-debug/pkg/logger"
)

// 程序地址不含空白和冒号，"Program log:" 之类的行因此不会被当成地址
const idPattern = `([^\s:]+)`

var (
	invokeRe   = regexp.MustCompile(`^Program ` + idPattern + ` invoke \[(\d+)\]$`)
	successRe  = regexp.MustCompile(`^Program ` + idPattern + ` success$`)
	failedRe   = regexp.MustCompile(`^Program ` + idPattern + ` failed: (.*)$`)
	consumedRe = regexp.MustCompile(`^Program ` + idPattern + ` consumed (\d+) of (\d+) compute units$`)
)

const (
	logPrefix       = "Program log: "
	dataPrefix      = "Program data: "
	truncatedMarker = "Log truncated"
)

// ProgramNamer 程序地址 → 友好名称，errorcodes.Registry 实现了该接口
type ProgramNamer interface {
	ProgramName(programID string) string
}

type builtinNamer struct{}

func (builtinNamer) ProgramName(programID string) string {
	if name, ok := consts.KnownProgramName(programID); ok {
		return name
	}
	return programID
}

// frame 调用栈中的一层
type frame struct {
	programID     string
	topLevelIndex int
	stackHeight   int
	computeUsed   *uint64
}

// Parser 把交易的 logMessages 还原为顶层指令执行流与程序日志。
// 无状态，可并发使用。
type Parser struct {
	namer ProgramNamer
}

// NewParser namer 为 nil 时只使用内置程序名
func NewParser(namer ProgramNamer) *Parser {
	if namer == nil {
		namer = builtinNamer{}
	}
	return &Parser{namer: namer}
}

// state 单次解析的可变状态
type state struct {
	stack    []frame
	topLevel int
	trace    *Trace
}

// Parse 逐行解析日志，格式不认识的行直接跳过。
// 任何行都不会导致解析失败；内部 panic 被捕获，返回已累积的部分结果。
func (p *Parser) Parse(logs []string) (trace *Trace) {
	trace = &Trace{
		ExecutionFlow: make([]InstructionExecution, 0, 4),
		ProgramLogs:   make([]ProgramLog, 0, len(logs)),
	}
	st := &state{topLevel: -1, trace: trace}

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[LogParser] panic: %v, parsed=%d/%d lines\n%s",
				r, len(trace.ProgramLogs), len(logs), debug.Stack())
		}
	}()

	for _, line := range logs {
		p.parseLine(st, line)
	}
	return trace
}

func (p *Parser) parseLine(st *state, line string) {
	if m := invokeRe.FindStringSubmatch(line); m != nil {
		depth, err := strconv.Atoi(m[2])
		if err != nil {
			return
		}
		f := frame{programID: m[1], stackHeight: depth, topLevelIndex: -1}
		if depth == 1 {
			st.topLevel++
			f.topLevelIndex = st.topLevel
		}
		st.stack = append(st.stack, f)
		return
	}

	if m := successRe.FindStringSubmatch(line); m != nil {
		f, ok := st.pop()
		if ok && f.stackHeight == 1 {
			st.trace.ExecutionFlow = append(st.trace.ExecutionFlow, InstructionExecution{
				Index:       f.topLevelIndex,
				ProgramID:   m[1],
				ProgramName: p.namer.ProgramName(m[1]),
				Status:      StatusSuccess,
				ComputeUsed: f.computeUsed,
			})
		}
		return
	}

	if m := failedRe.FindStringSubmatch(line); m != nil {
		programID, msg := m[1], m[2]
		name := p.namer.ProgramName(programID)
		f, ok := st.pop()
		if ok && f.stackHeight == 1 {
			st.trace.ExecutionFlow = append(st.trace.ExecutionFlow, InstructionExecution{
				Index:       f.topLevelIndex,
				ProgramID:   programID,
				ProgramName: name,
				Status:      StatusFailed,
				Error:       msg,
				ComputeUsed: f.computeUsed,
			})
		}
		st.trace.ProgramLogs = append(st.trace.ProgramLogs, ProgramLog{
			Program: name,
			Message: msg,
			Level:   LevelError,
		})
		return
	}

	if m := consumedRe.FindStringSubmatch(line); m != nil {
		used, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			return
		}
		st.attachCompute(m[1], used)
		return
	}

	if text, ok := strings.CutPrefix(line, logPrefix); ok {
		program := st.currentProgram(p.namer)
		level := LevelInfo
		if strings.Contains(strings.ToLower(text), "error") {
			level = LevelError
		}
		st.trace.ProgramLogs = append(st.trace.ProgramLogs, ProgramLog{
			Program: program,
			Message: text,
			Level:   level,
		})
		if st.trace.AnchorError == nil {
			if ae := ParseAnchorError(text); ae != nil {
				if top, ok := st.top(); ok {
					ae.ProgramID = top.programID
					ae.ProgramName = program
				}
				st.trace.AnchorError = ae
			}
		}
		return
	}

	if text, ok := strings.CutPrefix(line, dataPrefix); ok {
		st.trace.ProgramLogs = append(st.trace.ProgramLogs, ProgramLog{
			Program: st.currentProgram(p.namer),
			Message: "Data: " + text,
			Level:   LevelData,
		})
		return
	}

	if line == truncatedMarker {
		st.trace.Truncated = true
	}
}

// pop 栈为空时返回 ok=false，调用方跳过，不视为错误
func (st *state) pop() (frame, bool) {
	n := len(st.stack)
	if n == 0 {
		return frame{}, false
	}
	f := st.stack[n-1]
	st.stack = st.stack[:n-1]
	return f, true
}

func (st *state) top() (frame, bool) {
	n := len(st.stack)
	if n == 0 {
		return frame{}, false
	}
	return st.stack[n-1], true
}

func (st *state) currentProgram(namer ProgramNamer) string {
	if f, ok := st.top(); ok {
		return namer.ProgramName(f.programID)
	}
	return consts.UnknownProgram
}

// attachCompute 运行时在 success/failed 之前打印 consumed 行：
// 栈顶是同一程序时先记在栈帧上，出栈生成执行记录时带出；
// 否则回退为写到最后一条执行记录上（programId 必须一致）。
func (st *state) attachCompute(programID string, used uint64) {
	if n := len(st.stack); n > 0 && st.stack[n-1].programID == programID {
		st.stack[n-1].computeUsed = &used
		return
	}
	flow := st.trace.ExecutionFlow
	if n := len(flow); n > 0 && flow[n-1].ProgramID == programID {
		flow[n-1].ComputeUsed = &used
	}
}
