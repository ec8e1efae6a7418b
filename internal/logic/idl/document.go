package idl

import (
	"fmt"

	"github.com/zeromicro/go-zero/core/jsonx"

	"obsidian-debug/internal/logic/errorcodes"
)

// Document IDL 中与错误解析相关的部分
type Document struct {
	Name    string
	Version string
	Errors  map[uint32]errorcodes.ErrorInfo
}

// 0.30 之前 name/version 在顶层，之后移到 metadata
type documentHeader struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Metadata *struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"metadata"`
}

// ParseDocument 解析 IDL JSON 的名称、版本与错误码表
func ParseDocument(idlJSON []byte) (*Document, error) {
	var header documentHeader
	if err := jsonx.Unmarshal(idlJSON, &header); err != nil {
		return nil, fmt.Errorf("decode idl header: %w", err)
	}
	table, err := errorcodes.BuildErrorTable(idlJSON)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Name:    header.Name,
		Version: header.Version,
		Errors:  table,
	}
	if header.Metadata != nil {
		if header.Metadata.Name != "" {
			doc.Name = header.Metadata.Name
		}
		if header.Metadata.Version != "" {
			doc.Version = header.Metadata.Version
		}
	}
	return doc, nil
}
