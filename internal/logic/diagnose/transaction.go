package diagnose

import (
	"errors"
	"strings"
)

var (
	// ErrTransactionNotFound RPC 节点查不到该交易（未确认或超出历史范围）
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidSignature 签名不是合法的 base58 64 字节
	ErrInvalidSignature = errors.New("invalid transaction signature")
)

// Transaction 诊断所需的交易字段，RPC 与 gRPC 两个来源都转换成这个结构
type Transaction struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
	BlockTime *int64 `json:"blockTime,omitempty"`
	Fee       uint64 `json:"fee"`
	// Err 与 RPC JSON 中 meta.err 同形，成功交易为 nil
	Err         any      `json:"err"`
	LogMessages []string `json:"logMessages"`
	// ProgramIDs 顶层指令的程序地址，按指令顺序
	ProgramIDs           []string `json:"programIds"`
	ComputeUnitsConsumed *uint64  `json:"computeUnitsConsumed,omitempty"`
}

func (t *Transaction) Failed() bool {
	return t.Err != nil
}

func joinLogs(logs []string) string {
	return strings.Join(logs, "\n")
}
