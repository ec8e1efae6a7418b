package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/zeromicro/go-zero/core/jsonx"
	"github.com/zeromicro/go-zero/rest/httpx"

	"obsidian-debug/internal/svc"
	"obsidian-debug/internal/types"
)

const maxBodyBytes = 8 << 20

// EnrichHandler err 字段是任意 JSON，直接用 jsonx 解析请求体。
// 非 Custom 形态的错误返回 null。
func EnrichHandler(svcCtx *svc.ApiServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		var req types.EnrichRequest
		if err := jsonx.Unmarshal(body, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}

		enriched := svcCtx.Diagnoser.Enricher().Enrich(req.Err, req.ProgramIDs, req.Logs)
		httpx.OkJsonCtx(r.Context(), w, enriched)
	}
}

func ParseLogsHandler(svcCtx *svc.ApiServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ParseLogsRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		httpx.OkJsonCtx(r.Context(), w, svcCtx.Diagnoser.Parser().Parse(req.Logs))
	}
}
