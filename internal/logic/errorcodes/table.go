package errorcodes

import (
	"encoding/json"
	"fmt"

	"github.com/zeromicro/go-zero/core/jsonx"

	"obsidian-debug/pkg/logger"
)

// RawErrorEntry IDL errors 段中的一条记录。
// Anchor IDL 使用 msg，Codama IDL 使用 message，手工整理的数据使用 description，三者都接受。
type RawErrorEntry struct {
	Code        uint32   `json:"code"`
	Name        string   `json:"name"`
	Msg         string   `json:"msg,omitempty"`
	Message     string   `json:"message,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	DebugTip    string   `json:"debugTip,omitempty"`
	Docs        []string `json:"docs,omitempty"`
}

// idlDocument 只关心 errors 所在的两种位置，其余字段忽略
type idlDocument struct {
	Program json.RawMessage `json:"program"`
	Errors  json.RawMessage `json:"errors"`
}

// shapeDetector 尝试从文档中提取错误列表，提取不到返回 nil
type shapeDetector func(doc *idlDocument) []RawErrorEntry

// shapeDetectors 按顺序尝试：先嵌套的 program.errors，再顶层 errors，第一个非空结果生效
var shapeDetectors = []shapeDetector{
	nestedProgramErrors,
	flatErrors,
}

func nestedProgramErrors(doc *idlDocument) []RawErrorEntry {
	if len(doc.Program) == 0 {
		return nil
	}
	var program struct {
		Errors []RawErrorEntry `json:"errors"`
	}
	if err := jsonx.Unmarshal(doc.Program, &program); err != nil {
		return nil
	}
	return program.Errors
}

func flatErrors(doc *idlDocument) []RawErrorEntry {
	if len(doc.Errors) == 0 {
		return nil
	}
	var entries []RawErrorEntry
	if err := jsonx.Unmarshal(doc.Errors, &entries); err != nil {
		return nil
	}
	return entries
}

// ExtractErrorEntries 从 IDL JSON 中提取错误列表。
// 文档本身不是合法 JSON 对象时返回 error；两种形态都不存在时返回空列表。
func ExtractErrorEntries(idlJSON []byte) ([]RawErrorEntry, error) {
	var doc idlDocument
	if err := jsonx.Unmarshal(idlJSON, &doc); err != nil {
		return nil, fmt.Errorf("decode idl document: %w", err)
	}
	for _, detect := range shapeDetectors {
		if entries := detect(&doc); len(entries) > 0 {
			return entries, nil
		}
	}
	return nil, nil
}

// BuildErrorTable 从 IDL JSON 构建 code → ErrorInfo 表
func BuildErrorTable(idlJSON []byte) (map[uint32]ErrorInfo, error) {
	entries, err := ExtractErrorEntries(idlJSON)
	if err != nil {
		return nil, err
	}
	return BuildErrorTableFromEntries(entries), nil
}

// BuildErrorTableFromEntries 重复 code 以后出现的为准，并记录告警
func BuildErrorTableFromEntries(entries []RawErrorEntry) map[uint32]ErrorInfo {
	table := make(map[uint32]ErrorInfo, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			logger.Warnf("[errorcodes] 跳过缺少 name 的错误码: code=%d", e.Code)
			continue
		}
		if prev, dup := table[e.Code]; dup {
			logger.Warnf("[errorcodes] 重复的错误码 %d: %s 被 %s 覆盖", e.Code, prev.Name, e.Name)
		}
		desc := e.Description
		if desc == "" {
			desc = e.Msg
		}
		if desc == "" {
			desc = e.Message
		}
		table[e.Code] = ErrorInfo{
			Code:        e.Code,
			Name:        e.Name,
			Description: desc,
			Category:    e.Category,
			DebugTip:    e.DebugTip,
			Docs:        e.Docs,
		}
	}
	return table
}

// MergeErrorTables 用 overlay（如链上最新 IDL）覆盖 base（仓库内置表）。
// overlay 中同 code 同 name 的条目若缺少 category / debugTip / description，则沿用 base 的值。
// base 中存在而 overlay 中不存在的 code 保留。
func MergeErrorTables(base, overlay map[uint32]ErrorInfo) map[uint32]ErrorInfo {
	merged := make(map[uint32]ErrorInfo, len(base)+len(overlay))
	for code, info := range base {
		merged[code] = info
	}
	for code, info := range overlay {
		if prev, ok := base[code]; ok && prev.Name == info.Name {
			if info.Category == "" {
				info.Category = prev.Category
			}
			if info.DebugTip == "" {
				info.DebugTip = prev.DebugTip
			}
			if info.Description == "" {
				info.Description = prev.Description
			}
		}
		merged[code] = info
	}
	return merged
}
