package txadapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/jsonx"

	"obsidian-debug/internal/consts"
)

const rpcTxJSON = `{
  "meta": {
    "err": {"InstructionError": [1, {"Custom": 6001}]},
    "fee": 5000,
    "logMessages": ["Program log: hi"],
    "loadedAddresses": {"writable": ["` + consts.TokenProgramStr + `"], "readonly": ["` + consts.JupiterV6ProgramStr + `"]},
    "computeUnitsConsumed": 1200
  },
  "transaction": {
    "signatures": ["sig-1", "sig-2"],
    "message": {
      "accountKeys": ["11111111111111111111111111111111", "` + consts.ComputeBudgetProgramStr + `"],
      "instructions": [{"programIdIndex": 1}, {"programIdIndex": 3}]
    }
  }
}`

func decodeRpcTx(t *testing.T, s string) *RpcTransaction {
	t.Helper()
	var raw RpcTransaction
	require.NoError(t, jsonx.UnmarshalFromString(s, &raw))
	return &raw
}

func TestAdaptRpcTx(t *testing.T) {
	raw := decodeRpcTx(t, rpcTxJSON)
	assert.True(t, raw.IsFailed())
	assert.Equal(t, "sig-1", raw.Signature())

	blockTime := int64(1746100000)
	tx, err := AdaptRpcTx("", 42, &blockTime, raw)
	require.NoError(t, err)
	assert.Equal(t, "sig-1", tx.Signature)
	assert.Equal(t, uint64(42), tx.Slot)
	assert.Equal(t, uint64(5000), tx.Fee)
	// 静态账户之后依次是 ALT 的 writable、readonly
	assert.Equal(t, []string{consts.ComputeBudgetProgramStr, consts.JupiterV6ProgramStr}, tx.ProgramIDs)
	require.NotNil(t, tx.ComputeUnitsConsumed)
	assert.Equal(t, uint64(1200), *tx.ComputeUnitsConsumed)

	tx, err = AdaptRpcTx("explicit", 42, nil, raw)
	require.NoError(t, err)
	assert.Equal(t, "explicit", tx.Signature)
}

func TestAdaptRpcTxInvalid(t *testing.T) {
	_, err := AdaptRpcTx("", 1, nil, nil)
	assert.Error(t, err)

	noMeta := decodeRpcTx(t, `{"transaction":{"signatures":["s"]}}`)
	assert.False(t, noMeta.IsFailed())
	_, err = AdaptRpcTx("", 1, nil, noMeta)
	assert.ErrorContains(t, err, "meta")

	badIndex := decodeRpcTx(t, `{"meta":{"err":"AccountInUse"},"transaction":{"message":{"accountKeys":[],"instructions":[{"programIdIndex":0}]}}}`)
	_, err = AdaptRpcTx("", 1, nil, badIndex)
	assert.ErrorContains(t, err, "out of range")
	assert.Equal(t, "", badIndex.Signature())
}
