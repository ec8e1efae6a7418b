package service

import (
	"context"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/zeromicro/go-zero/core/jsonx"

	"obsidian-debug/internal/config"
	"obsidian-debug/internal/logic/diagnose"
	"obsidian-debug/internal/logic/txadapter"
	"obsidian-debug/internal/types"
)

// rpcCaller 原始 JSON-RPC 调用，*rpc.RpcClient 满足
type rpcCaller interface {
	Call(ctx context.Context, params ...any) ([]byte, error)
}

// RpcTxFetcher 通过 getTransaction 获取交易。
// 直接解析原始响应，meta.err 保持 RPC 的 JSON 形态（数字为 json.Number）。
type RpcTxFetcher struct {
	rpc        rpcCaller
	commitment string
	timeout    time.Duration
}

type rpcError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type rpcTransactionResponse struct {
	Result *rpcTransaction `json:"result"`
	Error  *rpcError       `json:"error"`
}

// rpcTransaction getTransaction 在交易条目外多出 slot 和 blockTime
type rpcTransaction struct {
	Slot      uint64 `json:"slot"`
	BlockTime *int64 `json:"blockTime"`
	txadapter.RpcTransaction
}

func NewRpcTxFetcher(cfg config.SolanaConfig) *RpcTxFetcher {
	client := rpc.NewRpcClient(cfg.Endpoint)
	return newRpcTxFetcher(&client, cfg)
}

func newRpcTxFetcher(caller rpcCaller, cfg config.SolanaConfig) *RpcTxFetcher {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	commitment := cfg.Commitment
	if commitment == "" {
		commitment = string(rpc.CommitmentConfirmed)
	}
	return &RpcTxFetcher{rpc: caller, commitment: commitment, timeout: timeout}
}

// FetchTransaction 签名非法返回 ErrInvalidSignature，节点查不到返回 ErrTransactionNotFound
func (f *RpcTxFetcher) FetchTransaction(ctx context.Context, signature string) (*diagnose.Transaction, error) {
	if _, err := types.TrySignatureFromBase58(signature); err != nil {
		return nil, fmt.Errorf("%w: %v", diagnose.ErrInvalidSignature, err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, err := f.rpc.Call(ctx, "getTransaction", signature, map[string]any{
		"encoding":                       "json",
		"commitment":                     f.commitment,
		"maxSupportedTransactionVersion": 0,
	})
	if err != nil {
		return nil, fmt.Errorf("getTransaction failed: %w", err)
	}

	var resp rpcTransactionResponse
	if err := jsonx.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode getTransaction response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getTransaction rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Result == nil {
		return nil, diagnose.ErrTransactionNotFound
	}
	return txadapter.AdaptRpcTx(signature, resp.Result.Slot, resp.Result.BlockTime, &resp.Result.RpcTransaction)
}
