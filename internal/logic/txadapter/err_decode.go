package txadapter

import (
	"encoding/binary"
	"errors"
	"fmt"

	"obsidian-debug/internal/logic/errorcodes"
)

// bincode 变体序号
const (
	txErrInstructionError       = 8
	txErrDuplicateInstruction   = 30
	txErrInsufficientFundsRent  = 31
	txErrProgramExecRestricted  = 35
	ixErrCustom                 = 25
	ixErrBorshIoError           = 44
	maxBorshIoErrorMessageBytes = 4096
)

var ErrMalformedTxError = errors.New("malformed transaction error bytes")

type bincodeReader struct {
	buf []byte
	pos int
}

func (r *bincodeReader) u8() (uint8, error) {
	if r.pos+1 > len(r.buf) {
		return 0, ErrMalformedTxError
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *bincodeReader) u32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, ErrMalformedTxError
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *bincodeReader) u64() (uint64, error) {
	if r.pos+8 > len(r.buf) {
		return 0, ErrMalformedTxError
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *bincodeReader) remaining() int {
	return len(r.buf) - r.pos
}

// DecodeTransactionError 把 gRPC 推送的 bincode 编码 TransactionError 转成 RPC JSON 中 meta.err 的形态，
// 数字统一为 float64，与 encoding/json 解码 RPC 响应的结果一致。
//
//	"BlockhashNotFound"
//	{"InstructionError": [1, {"Custom": 6001}]}
//	{"InstructionError": [0, "InvalidAccountData"]}
//	{"InsufficientFundsForRent": {"account_index": 2}}
func DecodeTransactionError(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	r := &bincodeReader{buf: raw}
	variant, err := r.u32()
	if err != nil {
		return nil, err
	}
	name, ok := errorcodes.TransactionErrorVariant(variant)
	if !ok {
		return nil, fmt.Errorf("%w: unknown transaction error variant %d", ErrMalformedTxError, variant)
	}

	switch variant {
	case txErrInstructionError:
		index, err := r.u8()
		if err != nil {
			return nil, err
		}
		ixErr, err := decodeInstructionError(r)
		if err != nil {
			return nil, err
		}
		return map[string]any{name: []any{float64(index), ixErr}}, nil
	case txErrDuplicateInstruction:
		index, err := r.u8()
		if err != nil {
			return nil, err
		}
		return map[string]any{name: float64(index)}, nil
	case txErrInsufficientFundsRent, txErrProgramExecRestricted:
		account, err := r.u8()
		if err != nil {
			return nil, err
		}
		return map[string]any{name: map[string]any{"account_index": float64(account)}}, nil
	}
	return name, nil
}

func decodeInstructionError(r *bincodeReader) (any, error) {
	variant, err := r.u32()
	if err != nil {
		return nil, err
	}
	name, ok := errorcodes.InstructionErrorVariant(variant)
	if !ok {
		return nil, fmt.Errorf("%w: unknown instruction error variant %d", ErrMalformedTxError, variant)
	}

	switch variant {
	case ixErrCustom:
		code, err := r.u32()
		if err != nil {
			return nil, err
		}
		return map[string]any{name: float64(code)}, nil
	case ixErrBorshIoError:
		// 新版本运行时中 BorshIoError 不再携带字符串
		if r.remaining() < 8 {
			return name, nil
		}
		n, err := r.u64()
		if err != nil {
			return nil, err
		}
		if n > maxBorshIoErrorMessageBytes || int(n) > r.remaining() {
			return nil, fmt.Errorf("%w: borsh io message length %d", ErrMalformedTxError, n)
		}
		msg := string(r.buf[r.pos : r.pos+int(n)])
		r.pos += int(n)
		return map[string]any{name: msg}, nil
	}
	return name, nil
}
