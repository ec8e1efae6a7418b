package errorcodes

// ErrorInfo 描述程序内的一个错误码，来源于 IDL 的 errors 段（可附带人工整理的分类与排查提示）。
// 同一程序的表内 Code 唯一，Name 不要求跨程序唯一。
type ErrorInfo struct {
	Code        uint32   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	DebugTip    string   `json:"debugTip,omitempty"`
	Docs        []string `json:"docs,omitempty"`
}

// SourceKind 错误来源类型
type SourceKind string

const (
	SourceProgramSpecific SourceKind = "program-specific"
	SourceAnchorFramework SourceKind = "anchor-framework"
	SourceTokenProgram    SourceKind = "token-program"
)

// ErrorSource 仅在解析时附加，静态表本身不携带来源。
// anchor-framework 来源只有 ProgramID（出错的程序本身没有对应表）。
type ErrorSource struct {
	Kind        SourceKind `json:"type"`
	ProgramID   string     `json:"programId"`
	ProgramName string     `json:"programName,omitempty"`
}

// ResolvedError 是 Registry.Resolve 的返回结果
type ResolvedError struct {
	ErrorInfo
	Source ErrorSource `json:"source"`
}

// ProtocolType 协议类型，framework 类型不参与 programId 索引
type ProtocolType string

const (
	ProtocolTypeProgram   ProtocolType = "program"
	ProtocolTypeFramework ProtocolType = "framework"
)

// Protocol 一个带版本的错误码集合，构造后只读
type Protocol struct {
	Name      string
	ProgramID string
	Version   string
	Type      ProtocolType
	errors    map[uint32]ErrorInfo
}

// NewProtocol 构造协议，errors 会被复制一份，调用方后续修改不影响协议
func NewProtocol(name, programID, version string, typ ProtocolType, errors map[uint32]ErrorInfo) *Protocol {
	if typ == "" {
		typ = ProtocolTypeProgram
	}
	table := make(map[uint32]ErrorInfo, len(errors))
	for code, info := range errors {
		table[code] = info
	}
	return &Protocol{
		Name:      name,
		ProgramID: programID,
		Version:   version,
		Type:      typ,
		errors:    table,
	}
}

// Lookup 按错误码查表
func (p *Protocol) Lookup(code uint32) (ErrorInfo, bool) {
	info, ok := p.errors[code]
	return info, ok
}

// ErrorCount 返回表中错误码数量
func (p *Protocol) ErrorCount() int {
	return len(p.errors)
}

// Errors 返回错误码表副本
func (p *Protocol) Errors() map[uint32]ErrorInfo {
	out := make(map[uint32]ErrorInfo, len(p.errors))
	for code, info := range p.errors {
		out[code] = info
	}
	return out
}

// IsFramework 是否为框架级协议（Anchor）
func (p *Protocol) IsFramework() bool {
	return p.Type == ProtocolTypeFramework
}
