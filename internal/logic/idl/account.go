package idl

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/klauspost/compress/zlib"
	"github.com/near/borsh-go"

	"obsidian-debug/internal/types"
)

// idlSeed Anchor 存放 IDL 账户时使用的 seed
const idlSeed = "anchor:idl"

const (
	discriminatorLen = 8
	// discriminator + authority + Vec<u8> 长度前缀
	headerLen = discriminatorLen + 32 + 4
	// 解压后的 IDL JSON 上限
	maxIdlJSONSize = 16 << 20
)

var (
	ErrNotIdlAccount   = errors.New("account is not an anchor idl account")
	ErrAccountTooShort = errors.New("idl account data too short")
)

var idlAccountDiscriminator = accountDiscriminator("IdlAccount")

// idlAccountLayout discriminator 之后的 borsh 布局
type idlAccountLayout struct {
	Authority [32]byte
	Data      []byte
}

// Account 解码后的 IDL 账户
type Account struct {
	Authority string
	// JSON 已解压的 IDL 文档
	JSON []byte
}

func accountDiscriminator(name string) [discriminatorLen]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [discriminatorLen]byte
	copy(d[:], sum[:discriminatorLen])
	return d
}

// Address 计算程序的 IDL 账户地址：createWithSeed(base, "anchor:idl", programID)，
// base 为该程序空 seed 的 PDA
func Address(programID string) (string, error) {
	pid, err := types.TryPubkeyFromBase58(programID)
	if err != nil {
		return "", fmt.Errorf("invalid program id: %w", err)
	}
	program := common.PublicKeyFromBytes(pid[:])
	base, _, err := common.FindProgramAddress([][]byte{}, program)
	if err != nil {
		return "", fmt.Errorf("find program address: %w", err)
	}
	return common.CreateWithSeed(base, idlSeed, program).ToBase58(), nil
}

// DecodeAccount 解析 IDL 账户原始数据。账户空间通常大于实际内容，尾部填充会被忽略。
func DecodeAccount(data []byte) (*Account, error) {
	if len(data) < headerLen {
		return nil, ErrAccountTooShort
	}
	if !bytes.Equal(data[:discriminatorLen], idlAccountDiscriminator[:]) {
		return nil, ErrNotIdlAccount
	}
	dataLen := int(binary.LittleEndian.Uint32(data[headerLen-4 : headerLen]))
	end := headerLen + dataLen
	if end > len(data) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrAccountTooShort, end, len(data))
	}

	var layout idlAccountLayout
	if err := borsh.Deserialize(&layout, data[discriminatorLen:end]); err != nil {
		return nil, fmt.Errorf("borsh decode idl account: %w", err)
	}
	doc, err := Inflate(layout.Data)
	if err != nil {
		return nil, err
	}
	return &Account{
		Authority: types.Pubkey(layout.Authority).String(),
		JSON:      doc,
	}, nil
}

// Inflate 解压 zlib 格式的 IDL 数据
func Inflate(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("open zlib stream: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, maxIdlJSONSize+1))
	if err != nil {
		return nil, fmt.Errorf("inflate idl: %w", err)
	}
	if len(out) > maxIdlJSONSize {
		return nil, fmt.Errorf("inflated idl exceeds %d bytes", maxIdlJSONSize)
	}
	return out, nil
}
