package types

// HTTP API 请求与响应

type DiagnoseRequest struct {
	Signature string `json:"signature"`
}

type DiagnoseBatchRequest struct {
	Signatures []string `json:"signatures"`
}

// EnrichRequest err 为 RPC 返回的 meta.err 原样 JSON
type EnrichRequest struct {
	Err        any      `json:"err"`
	ProgramIDs []string `json:"programIds"`
	Logs       []string `json:"logs"`
}

type ParseLogsRequest struct {
	Logs []string `json:"logs"`
}

// ErrorLookupRequest code 支持十进制与 0x 前缀十六进制
type ErrorLookupRequest struct {
	ProgramID string `path:"programId"`
	Code      string `path:"code"`
}

type ProtocolSummary struct {
	Name       string `json:"name"`
	ProgramID  string `json:"programId,omitempty"`
	Version    string `json:"version,omitempty"`
	Type       string `json:"type"`
	ErrorCount int    `json:"errorCount"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
