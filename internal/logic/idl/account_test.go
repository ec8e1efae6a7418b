package idl

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/klauspost/compress/zlib"
	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obsidian-debug/internal/consts"
)

const sampleIdl = `{
  "version": "0.1.0",
  "name": "sample",
  "errors": [
    {"code": 6000, "name": "SlippageExceeded", "msg": "Slippage exceeded"},
    {"code": 6001, "name": "StalePrice", "msg": "Oracle price is stale"}
  ]
}`

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// buildAccount 按链上布局构造账户数据，padding 模拟预留空间
func buildAccount(t *testing.T, authority [32]byte, idlJSON []byte, padding int) []byte {
	t.Helper()
	body, err := borsh.Serialize(idlAccountLayout{Authority: authority, Data: compress(t, idlJSON)})
	require.NoError(t, err)
	out := append([]byte{}, idlAccountDiscriminator[:]...)
	out = append(out, body...)
	return append(out, make([]byte, padding)...)
}

func TestDecodeAccount(t *testing.T) {
	var authority [32]byte
	authority[0] = 7
	data := buildAccount(t, authority, []byte(sampleIdl), 512)

	acc, err := DecodeAccount(data)
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(authority[:]), acc.Authority)
	assert.JSONEq(t, sampleIdl, string(acc.JSON))
}

func TestDecodeAccountErrors(t *testing.T) {
	valid := buildAccount(t, [32]byte{}, []byte(sampleIdl), 0)

	_, err := DecodeAccount(valid[:10])
	assert.ErrorIs(t, err, ErrAccountTooShort)

	wrong := append([]byte{}, valid...)
	wrong[0] ^= 0xff
	_, err = DecodeAccount(wrong)
	assert.ErrorIs(t, err, ErrNotIdlAccount)

	// 长度前缀超出数据范围
	_, err = DecodeAccount(valid[:len(valid)-3])
	assert.ErrorIs(t, err, ErrAccountTooShort)

	// 数据不是 zlib
	body, err := borsh.Serialize(idlAccountLayout{Data: []byte("plain text")})
	require.NoError(t, err)
	_, err = DecodeAccount(append(idlAccountDiscriminator[:], body...))
	assert.Error(t, err)
}

func TestAddress(t *testing.T) {
	addr, err := Address(consts.JupiterV6ProgramStr)
	require.NoError(t, err)

	// createWithSeed = sha256(base || seed || owner)
	program := common.PublicKeyFromString(consts.JupiterV6ProgramStr)
	base, _, err := common.FindProgramAddress([][]byte{}, program)
	require.NoError(t, err)
	h := sha256.New()
	h.Write(base.Bytes())
	h.Write([]byte("anchor:idl"))
	h.Write(program.Bytes())
	assert.Equal(t, base58.Encode(h.Sum(nil)), addr)

	again, err := Address(consts.JupiterV6ProgramStr)
	require.NoError(t, err)
	assert.Equal(t, addr, again)

	_, err = Address("not-a-key")
	assert.Error(t, err)
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleIdl))
	require.NoError(t, err)
	assert.Equal(t, "sample", doc.Name)
	assert.Equal(t, "0.1.0", doc.Version)
	require.Len(t, doc.Errors, 2)
	assert.Equal(t, "Oracle price is stale", doc.Errors[6001].Description)

	// 0.30+ 格式
	doc, err = ParseDocument([]byte(`{"address":"x","metadata":{"name":"newer","version":"0.2.0"},"errors":[{"code":6000,"name":"A","msg":"a"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "newer", doc.Name)
	assert.Equal(t, "0.2.0", doc.Version)
	assert.Len(t, doc.Errors, 1)

	_, err = ParseDocument([]byte(`[`))
	assert.Error(t, err)
}
