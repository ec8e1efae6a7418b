package types

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Signature 交易签名（64 字节），同时作为交易的唯一标识
type Signature [SignatureLength]byte

func (s Signature) String() string {
	return base58.Encode(s[:])
}

// Bytes 返回签名原始字节，常用于 Kafka 分区选择
func (s Signature) Bytes() []byte {
	return s[:]
}

// TrySignatureFromBase58 校验并解析用户提交的交易签名
func TrySignatureFromBase58(s string) (Signature, error) {
	data, err := base58.Decode(s)
	if err != nil {
		return Signature{}, fmt.Errorf("failed to decode base58 signature %q: %w", s, err)
	}
	if len(data) != SignatureLength {
		return Signature{}, fmt.Errorf("invalid signature length: got %d, want %d", len(data), SignatureLength)
	}
	var sig Signature
	copy(sig[:], data)
	return sig, nil
}

// SignatureFromBytes 将 gRPC 推送的签名字节转换为 Signature
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != SignatureLength {
		return Signature{}, fmt.Errorf("invalid signature length: got %d, want %d", len(b), SignatureLength)
	}
	var sig Signature
	copy(sig[:], b)
	return sig, nil
}
