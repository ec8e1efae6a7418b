package grpc

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/zeromicro/go-zero/core/jsonx"

	"obsidian-debug/internal/logic/diagnose"
	"obsidian-debug/internal/logic/txadapter"
	"obsidian-debug/internal/metrics"
	"obsidian-debug/pkg/logger"
)

// 节点对跳过或已清理的 slot 返回的错误码，按空块处理
const (
	rpcCodeSlotSkipped         = -32007
	rpcCodeLongTermStorageSlot = -32009
)

// blockSource 补扫用的链上区块查询
type blockSource interface {
	// GetBlocks 返回 [from, to] 内产出了区块的 slot
	GetBlocks(ctx context.Context, from, to uint64) ([]uint64, error)
	// GetFailedTransactions 返回该 slot 区块内的全部失败交易
	GetFailedTransactions(ctx context.Context, slot uint64) ([]*diagnose.Transaction, error)
}

type rpcBlockSource struct {
	client     *rpc.RpcClient
	commitment string
}

func newRpcBlockSource(endpoint, commitment string) *rpcBlockSource {
	client := rpc.NewRpcClient(endpoint)
	// getBlock 不支持 processed
	if commitment == "" || commitment == string(rpc.CommitmentProcessed) {
		commitment = string(rpc.CommitmentConfirmed)
	}
	return &rpcBlockSource{client: &client, commitment: commitment}
}

func (s *rpcBlockSource) GetBlocks(ctx context.Context, from, to uint64) ([]uint64, error) {
	resp, err := s.client.GetBlocks(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

func (s *rpcBlockSource) GetFailedTransactions(ctx context.Context, slot uint64) ([]*diagnose.Transaction, error) {
	body, err := s.client.Call(ctx, "getBlock", slot, map[string]any{
		"encoding":                       "json",
		"transactionDetails":             "full",
		"rewards":                        false,
		"commitment":                     s.commitment,
		"maxSupportedTransactionVersion": 0,
	})
	if err != nil {
		return nil, fmt.Errorf("getBlock %d failed: %w", slot, err)
	}
	return decodeFailedBlock(slot, body)
}

type rpcBlockResponse struct {
	Result *struct {
		BlockTime    *int64                     `json:"blockTime"`
		Transactions []txadapter.RpcTransaction `json:"transactions"`
	} `json:"result"`
	Error *struct {
		Code    int64  `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// decodeFailedBlock 解析 getBlock 响应并挑出失败交易，无法转换的交易记为 invalid 跳过
func decodeFailedBlock(slot uint64, body []byte) ([]*diagnose.Transaction, error) {
	var resp rpcBlockResponse
	if err := jsonx.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode getBlock %d response: %w", slot, err)
	}
	if resp.Error != nil {
		switch resp.Error.Code {
		case rpcCodeSlotSkipped, rpcCodeLongTermStorageSlot:
			logger.Debugf("[BlockSource] slot %d unavailable: %s", slot, resp.Error.Message)
			return nil, nil
		}
		return nil, fmt.Errorf("getBlock %d rpc error %d: %s", slot, resp.Error.Code, resp.Error.Message)
	}
	if resp.Result == nil {
		return nil, nil
	}

	var txs []*diagnose.Transaction
	for i := range resp.Result.Transactions {
		raw := &resp.Result.Transactions[i]
		if !raw.IsFailed() {
			continue
		}
		tx, err := txadapter.AdaptRpcTx("", slot, resp.Result.BlockTime, raw)
		if err != nil {
			logger.Warnf("[BlockSource] adapt tx failed: slot=%d, sig=%s, err=%v", slot, raw.Signature(), err)
			metrics.RecordWatcherTx("invalid")
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
