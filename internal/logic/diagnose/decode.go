package diagnose

import (
	"encoding/json"
	"fmt"
	"math"

	"obsidian-debug/internal/logic/errorcodes"
)

const (
	keyInstructionError = "InstructionError"
	keyCustom           = "Custom"
)

// InstructionErrorTuple meta.err 中 {InstructionError: [index, {Custom: code}]} 的解码结果
type InstructionErrorTuple struct {
	Index int
	Code  uint32
}

// DecodeCustomError 只接受 Custom 形态的 InstructionError，其余形态返回 ok=false。
// raw 是 RPC JSON 解码后的 meta.err，数字可能是 float64、json.Number 或整数类型。
func DecodeCustomError(raw any) (InstructionErrorTuple, bool) {
	index, detail, ok := splitInstructionError(raw)
	if !ok {
		return InstructionErrorTuple{}, false
	}
	custom, ok := detail.(map[string]any)
	if !ok || len(custom) != 1 {
		return InstructionErrorTuple{}, false
	}
	code, ok := toUint64(custom[keyCustom])
	if !ok || code > math.MaxUint32 {
		return InstructionErrorTuple{}, false
	}
	return InstructionErrorTuple{Index: index, Code: uint32(code)}, true
}

// splitInstructionError 拆出 [index, detail]，detail 可能是字符串或单键对象
func splitInstructionError(raw any) (int, any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok || len(obj) != 1 {
		return 0, nil, false
	}
	tuple, ok := obj[keyInstructionError].([]any)
	if !ok || len(tuple) != 2 {
		return 0, nil, false
	}
	idx, ok := toUint64(tuple[0])
	if !ok || idx > math.MaxUint8 {
		return 0, nil, false
	}
	return int(idx), tuple[1], true
}

// RuntimeErrorKind 运行时错误所在层级
type RuntimeErrorKind string

const (
	RuntimeKindTransaction RuntimeErrorKind = "transaction"
	RuntimeKindInstruction RuntimeErrorKind = "instruction"
)

// RuntimeErrorDetail meta.err 的通用描述，覆盖非 Custom 的内置错误
type RuntimeErrorDetail struct {
	errorcodes.RuntimeError
	Kind             RuntimeErrorKind `json:"kind"`
	InstructionIndex *int             `json:"instructionIndex,omitempty"`
	AccountIndex     *int             `json:"accountIndex,omitempty"`
}

// DescribeRuntimeError 描述任意形态的 meta.err，无法识别时返回 nil。
//
//	"BlockhashNotFound"
//	{"InstructionError": [0, "InvalidAccountData"]}
//	{"InstructionError": [1, {"Custom": 6001}]}
//	{"InstructionError": [0, {"BorshIoError": "..."}]}
//	{"InsufficientFundsForRent": {"account_index": 2}}
//	{"DuplicateInstruction": 3}
func DescribeRuntimeError(raw any) *RuntimeErrorDetail {
	switch v := raw.(type) {
	case string:
		return transactionDetail(v, nil)
	case map[string]any:
		if len(v) != 1 {
			return nil
		}
		if _, ok := v[keyInstructionError]; ok {
			index, detail, ok := splitInstructionError(v)
			if !ok {
				return nil
			}
			return instructionDetail(index, detail)
		}
		for name, payload := range v {
			return transactionDetail(name, payload)
		}
	}
	return nil
}

func transactionDetail(name string, payload any) *RuntimeErrorDetail {
	if name == "" {
		return nil
	}
	info, ok := errorcodes.LookupTransactionError(name)
	if !ok {
		info = errorcodes.RuntimeError{Name: name, Description: name}
	}
	d := &RuntimeErrorDetail{RuntimeError: info, Kind: RuntimeKindTransaction}
	switch p := payload.(type) {
	case map[string]any:
		if n, ok := toUint64(p["account_index"]); ok {
			i := int(n)
			d.AccountIndex = &i
		}
	default:
		if n, ok := toUint64(p); ok {
			i := int(n)
			d.InstructionIndex = &i
		}
	}
	return d
}

func instructionDetail(index int, detail any) *RuntimeErrorDetail {
	var name string
	var customCode *uint64

	switch v := detail.(type) {
	case string:
		name = v
	case map[string]any:
		for k, payload := range v {
			name = k
			if k == keyCustom {
				if n, ok := toUint64(payload); ok {
					customCode = &n
				}
			}
		}
	}
	if name == "" {
		return nil
	}

	info, ok := errorcodes.LookupInstructionError(name)
	if !ok {
		info = errorcodes.RuntimeError{Name: name, Description: name}
	}
	if customCode != nil {
		info.Description = fmt.Sprintf("Custom program error: %s", FormatErrorCode(uint32(*customCode)))
	}
	return &RuntimeErrorDetail{RuntimeError: info, Kind: RuntimeKindInstruction, InstructionIndex: &index}
}

// FormatErrorCode 与运行时日志一致的小写十六进制，例如 6001 → "0x1771"
func FormatErrorCode(code uint32) string {
	return fmt.Sprintf("0x%x", code)
}

// toUint64 兼容 encoding/json、jsonx（UseNumber）与直接构造的整数
func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 || n != math.Trunc(n) || n >= math.MaxUint64 {
			return 0, false
		}
		return uint64(n), true
	case float32:
		return toUint64(float64(n))
	case json.Number:
		i, err := n.Int64()
		if err != nil || i < 0 {
			return 0, false
		}
		return uint64(i), true
	case int:
		return signedToUint64(int64(n))
	case int8:
		return signedToUint64(int64(n))
	case int16:
		return signedToUint64(int64(n))
	case int32:
		return signedToUint64(int64(n))
	case int64:
		return signedToUint64(n)
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	}
	return 0, false
}

func signedToUint64(n int64) (uint64, bool) {
	if n < 0 {
		return 0, false
	}
	return uint64(n), true
}
