package txadapter

import (
	"errors"
	"fmt"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"

	"obsidian-debug/internal/logic/diagnose"
	"obsidian-debug/internal/types"
)

// ValidateGrpcTx 结构校验。失败交易正是需要诊断的对象，这里不过滤 meta.err
func ValidateGrpcTx(tx *pb.SubscribeUpdateTransactionInfo) error {
	if tx == nil {
		return errors.New("nil transaction info")
	}
	if tx.Transaction == nil {
		return errors.New("missing Transaction field")
	}
	if tx.Transaction.Message == nil {
		return errors.New("missing Message field in transaction")
	}
	if len(tx.Transaction.Signatures) == 0 {
		return errors.New("missing transaction signature")
	}
	if len(tx.Transaction.Signatures[0]) != 64 {
		return fmt.Errorf("invalid transaction signature length: %d", len(tx.Transaction.Signatures[0]))
	}
	if tx.IsVote {
		return errors.New("vote transaction skipped")
	}
	if tx.Meta == nil {
		return errors.New("missing transaction meta data")
	}
	return nil
}

// IsFailedGrpcTx 结构合法且执行失败
func IsFailedGrpcTx(tx *pb.SubscribeUpdateTransactionInfo) bool {
	return ValidateGrpcTx(tx) == nil && tx.Meta.Err != nil && len(tx.Meta.Err.Err) > 0
}

// buildFullAccountKeys 拼接 message.accountKeys 与 Address Lookup Table 中的 writable / readonly 地址，
// 顺序与运行时的账户下标一致
func buildFullAccountKeys(accountKeys, loadedWritable, loadedReadonly [][]byte) ([]string, error) {
	total := len(accountKeys) + len(loadedWritable) + len(loadedReadonly)
	keys := make([]string, 0, total)

	for _, group := range [][][]byte{accountKeys, loadedWritable, loadedReadonly} {
		for _, b := range group {
			key, err := types.PubkeyFromBytes(b)
			if err != nil {
				return nil, fmt.Errorf("account index %d: %w", len(keys), err)
			}
			keys = append(keys, key.String())
		}
	}
	return keys, nil
}

// topLevelProgramIDs 按指令顺序返回顶层指令的程序地址
func topLevelProgramIDs(instructions []*pb.CompiledInstruction, accountKeys []string) ([]string, error) {
	programIDs := make([]string, len(instructions))
	for i, ix := range instructions {
		idx := int(ix.ProgramIdIndex)
		if idx >= len(accountKeys) {
			return nil, fmt.Errorf("instruction %d program index %d out of range (%d keys)", i, idx, len(accountKeys))
		}
		programIDs[i] = accountKeys[idx]
	}
	return programIDs, nil
}

// AdaptGrpcTx 将 gRPC 推送的交易转换为诊断输入
func AdaptGrpcTx(slot uint64, blockTime *int64, tx *pb.SubscribeUpdateTransactionInfo) (_ *diagnose.Transaction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("AdaptGrpcTx panic: %v", r)
		}
	}()

	if err := ValidateGrpcTx(tx); err != nil {
		return nil, err
	}

	accountKeys, err := buildFullAccountKeys(
		tx.Transaction.Message.AccountKeys,
		tx.Meta.LoadedWritableAddresses,
		tx.Meta.LoadedReadonlyAddresses,
	)
	if err != nil {
		return nil, fmt.Errorf("buildFullAccountKeys error: %w", err)
	}
	programIDs, err := topLevelProgramIDs(tx.Transaction.Message.Instructions, accountKeys)
	if err != nil {
		return nil, err
	}

	var txErr any
	if tx.Meta.Err != nil {
		txErr, err = DecodeTransactionError(tx.Meta.Err.Err)
		if err != nil {
			return nil, fmt.Errorf("decode meta.err: %w", err)
		}
	}

	sig, err := types.SignatureFromBytes(tx.Transaction.Signatures[0])
	if err != nil {
		return nil, err
	}

	return &diagnose.Transaction{
		Signature:            sig.String(),
		Slot:                 slot,
		BlockTime:            blockTime,
		Fee:                  tx.Meta.Fee,
		Err:                  txErr,
		LogMessages:          tx.Meta.LogMessages,
		ProgramIDs:           programIDs,
		ComputeUnitsConsumed: tx.Meta.ComputeUnitsConsumed,
	}, nil
}
