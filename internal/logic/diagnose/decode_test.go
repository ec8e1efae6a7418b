package diagnose

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCustomErrorNumberTypes(t *testing.T) {
	for _, tc := range []struct {
		name  string
		index any
		code  any
	}{
		{"float64", float64(3), float64(6001)},
		{"json.Number", json.Number("3"), json.Number("6001")},
		{"int", 3, 6001},
		{"uint8/uint32", uint8(3), uint32(6001)},
		{"int64", int64(3), int64(6001)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DecodeCustomError(customErr(tc.index, tc.code))
			require.True(t, ok)
			assert.Equal(t, InstructionErrorTuple{Index: 3, Code: 6001}, got)
		})
	}
}

func TestDecodeCustomErrorRejects(t *testing.T) {
	for _, raw := range []any{
		customErr(256, 1),                // 指令下标是 u8
		customErr(0, float64(1<<33)),     // 错误码是 u32
		customErr(0, json.Number("1e3")), // 非整数字面量
		customErr("0", 1),                // 下标不是数字
		map[string]any{"Custom": 1},      // 缺少外层
		map[string]any{"InstructionError": []any{0, map[string]any{"Custom": 1, "Extra": 2}}},
		map[string]any{"InstructionError": []any{0, map[string]any{"Custom": 1}}, "Other": 1},
	} {
		_, ok := DecodeCustomError(raw)
		assert.False(t, ok, "%v", raw)
	}
}

func TestDescribeRuntimeError(t *testing.T) {
	t.Run("transaction string", func(t *testing.T) {
		d := DescribeRuntimeError("BlockhashNotFound")
		require.NotNil(t, d)
		assert.Equal(t, RuntimeKindTransaction, d.Kind)
		assert.Equal(t, "Blockhash not found", d.Description)
		assert.Equal(t, "Expiry", d.Category)
		assert.Nil(t, d.InstructionIndex)
	})

	t.Run("builtin instruction error", func(t *testing.T) {
		d := DescribeRuntimeError(map[string]any{"InstructionError": []any{float64(2), "ComputationalBudgetExceeded"}})
		require.NotNil(t, d)
		assert.Equal(t, RuntimeKindInstruction, d.Kind)
		assert.Equal(t, "ComputationalBudgetExceeded", d.Name)
		require.NotNil(t, d.InstructionIndex)
		assert.Equal(t, 2, *d.InstructionIndex)
	})

	t.Run("custom instruction error", func(t *testing.T) {
		d := DescribeRuntimeError(customErr(1, 6001))
		require.NotNil(t, d)
		assert.Equal(t, "Custom", d.Name)
		assert.Equal(t, "Custom program error: 0x1771", d.Description)
	})

	t.Run("payload variants", func(t *testing.T) {
		d := DescribeRuntimeError(map[string]any{"InsufficientFundsForRent": map[string]any{"account_index": float64(4)}})
		require.NotNil(t, d)
		require.NotNil(t, d.AccountIndex)
		assert.Equal(t, 4, *d.AccountIndex)

		d = DescribeRuntimeError(map[string]any{"DuplicateInstruction": float64(3)})
		require.NotNil(t, d)
		require.NotNil(t, d.InstructionIndex)
		assert.Equal(t, 3, *d.InstructionIndex)
	})

	t.Run("unknown variant keeps name", func(t *testing.T) {
		d := DescribeRuntimeError("BrandNewError")
		require.NotNil(t, d)
		assert.Equal(t, "BrandNewError", d.Name)
	})

	t.Run("unrecognized", func(t *testing.T) {
		assert.Nil(t, DescribeRuntimeError(nil))
		assert.Nil(t, DescribeRuntimeError(42))
		assert.Nil(t, DescribeRuntimeError(""))
		assert.Nil(t, DescribeRuntimeError(map[string]any{"a": 1, "b": 2}))
	})

	t.Run("malformed instruction error tuple", func(t *testing.T) {
		assert.Nil(t, DescribeRuntimeError(map[string]any{"InstructionError": []any{float64(0), "InvalidAccountData", "extra"}}))
		assert.Nil(t, DescribeRuntimeError(map[string]any{"InstructionError": "InvalidAccountData"}))
	})
}

func TestFormatErrorCode(t *testing.T) {
	assert.Equal(t, "0x1771", FormatErrorCode(6001))
	assert.Equal(t, "0x0", FormatErrorCode(0))
	assert.Equal(t, "0xbc4", FormatErrorCode(3012))
}
