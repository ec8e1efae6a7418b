package consts

import "runtime"

const (
	// UnknownProgram 日志归属无法确定时使用的程序名
	UnknownProgram = "Unknown"

	// 两个 Token 程序的协议名，解析时据此把来源标记为 token-program
	ProtocolSPLToken  = "SPL Token"
	ProtocolToken2022 = "Token-2022"
)

// CpuCount 表示逻辑 CPU 核心数，用于控制并发任务调度上限
var CpuCount = runtime.NumCPU()
