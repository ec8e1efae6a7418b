package txadapter

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obsidian-debug/internal/logic/diagnose"
)

func u32le(vs ...uint32) []byte {
	var out []byte
	for _, v := range vs {
		out = binary.LittleEndian.AppendUint32(out, v)
	}
	return out
}

func customErrBytes(index uint8, code uint32) []byte {
	b := u32le(txErrInstructionError)
	b = append(b, index)
	return append(b, u32le(ixErrCustom, code)...)
}

func TestDecodeTransactionError(t *testing.T) {
	t.Run("custom", func(t *testing.T) {
		got, err := DecodeTransactionError(customErrBytes(1, 6001))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"InstructionError": []any{float64(1), map[string]any{"Custom": float64(6001)}},
		}, got)

		// 与 RPC 形态一致，可直接交给 DecodeCustomError
		tuple, ok := diagnose.DecodeCustomError(got)
		require.True(t, ok)
		assert.Equal(t, diagnose.InstructionErrorTuple{Index: 1, Code: 6001}, tuple)
	})

	t.Run("builtin instruction error", func(t *testing.T) {
		b := append(u32le(txErrInstructionError), 3)
		b = append(b, u32le(37)...)
		got, err := DecodeTransactionError(b)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"InstructionError": []any{float64(3), "ComputationalBudgetExceeded"}}, got)
	})

	t.Run("borsh io error with message", func(t *testing.T) {
		b := append(u32le(txErrInstructionError), 0)
		b = append(b, u32le(ixErrBorshIoError)...)
		b = binary.LittleEndian.AppendUint64(b, 3)
		b = append(b, "eof"...)
		got, err := DecodeTransactionError(b)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"InstructionError": []any{float64(0), map[string]any{"BorshIoError": "eof"}}}, got)
	})

	t.Run("borsh io error unit", func(t *testing.T) {
		b := append(u32le(txErrInstructionError), 0)
		b = append(b, u32le(ixErrBorshIoError)...)
		got, err := DecodeTransactionError(b)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"InstructionError": []any{float64(0), "BorshIoError"}}, got)
	})

	t.Run("unit transaction error", func(t *testing.T) {
		got, err := DecodeTransactionError(u32le(7))
		require.NoError(t, err)
		assert.Equal(t, "BlockhashNotFound", got)
	})

	t.Run("payload variants", func(t *testing.T) {
		got, err := DecodeTransactionError(append(u32le(txErrDuplicateInstruction), 2))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"DuplicateInstruction": float64(2)}, got)

		got, err = DecodeTransactionError(append(u32le(txErrInsufficientFundsRent), 4))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"InsufficientFundsForRent": map[string]any{"account_index": float64(4)}}, got)
	})

	t.Run("empty", func(t *testing.T) {
		got, err := DecodeTransactionError(nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestDecodeTransactionErrorMalformed(t *testing.T) {
	for name, raw := range map[string][]byte{
		"short variant":     {1, 0},
		"unknown variant":   u32le(999),
		"missing index":     u32le(txErrInstructionError),
		"missing code":      append(append(u32le(txErrInstructionError), 0), u32le(ixErrCustom)...),
		"unknown ix error":  append(append(u32le(txErrInstructionError), 0), u32le(500)...),
		"missing rent acct": u32le(txErrInsufficientFundsRent),
	} {
		_, err := DecodeTransactionError(raw)
		assert.ErrorIs(t, err, ErrMalformedTxError, name)
	}
}
