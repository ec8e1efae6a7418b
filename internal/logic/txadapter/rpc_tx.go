package txadapter

import (
	"errors"
	"fmt"

	"obsidian-debug/internal/logic/diagnose"
)

// RpcTransaction getTransaction / getBlock 在 encoding=json 下返回的交易条目，
// 只保留诊断需要的字段。meta.err 保持 RPC 的 JSON 形态。
type RpcTransaction struct {
	Meta *struct {
		Err             any      `json:"err"`
		Fee             uint64   `json:"fee"`
		LogMessages     []string `json:"logMessages"`
		LoadedAddresses *struct {
			Writable []string `json:"writable"`
			Readonly []string `json:"readonly"`
		} `json:"loadedAddresses"`
		ComputeUnitsConsumed *uint64 `json:"computeUnitsConsumed"`
	} `json:"meta"`
	Transaction struct {
		Signatures []string `json:"signatures"`
		Message    struct {
			AccountKeys  []string `json:"accountKeys"`
			Instructions []struct {
				ProgramIdIndex int `json:"programIdIndex"`
			} `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
}

// IsFailed meta 缺失时视为无法判断，返回 false
func (t *RpcTransaction) IsFailed() bool {
	return t != nil && t.Meta != nil && t.Meta.Err != nil
}

// Signature 第一个签名即交易 id
func (t *RpcTransaction) Signature() string {
	if t == nil || len(t.Transaction.Signatures) == 0 {
		return ""
	}
	return t.Transaction.Signatures[0]
}

// AdaptRpcTx signature 为空时取交易自身的第一个签名
func AdaptRpcTx(signature string, slot uint64, blockTime *int64, raw *RpcTransaction) (*diagnose.Transaction, error) {
	if raw == nil {
		return nil, errors.New("nil rpc transaction")
	}
	if raw.Meta == nil {
		return nil, errors.New("transaction meta unavailable")
	}
	if signature == "" {
		signature = raw.Signature()
	}

	// 完整账户列表 = 静态账户 + ALT 的 writable + readonly
	keys := append([]string{}, raw.Transaction.Message.AccountKeys...)
	if la := raw.Meta.LoadedAddresses; la != nil {
		keys = append(keys, la.Writable...)
		keys = append(keys, la.Readonly...)
	}

	programIDs := make([]string, len(raw.Transaction.Message.Instructions))
	for i, ix := range raw.Transaction.Message.Instructions {
		if ix.ProgramIdIndex < 0 || ix.ProgramIdIndex >= len(keys) {
			return nil, fmt.Errorf("instruction %d program index %d out of range (%d keys)", i, ix.ProgramIdIndex, len(keys))
		}
		programIDs[i] = keys[ix.ProgramIdIndex]
	}

	return &diagnose.Transaction{
		Signature:            signature,
		Slot:                 slot,
		BlockTime:            blockTime,
		Fee:                  raw.Meta.Fee,
		Err:                  raw.Meta.Err,
		LogMessages:          raw.Meta.LogMessages,
		ProgramIDs:           programIDs,
		ComputeUnitsConsumed: raw.Meta.ComputeUnitsConsumed,
	}, nil
}
