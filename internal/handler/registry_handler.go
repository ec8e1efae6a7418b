package handler

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/zeromicro/go-zero/rest/httpx"

	"obsidian-debug/internal/svc"
	"obsidian-debug/internal/types"
)

// ErrorLookupHandler 按 programId + code 查询错误码，顺序与 Enrich 一致：程序表 → Anchor 框架表
func ErrorLookupHandler(svcCtx *svc.ApiServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ErrorLookupRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		code, err := strconv.ParseUint(req.Code, 0, 32)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, fmt.Errorf("%w: invalid error code %q", errBadRequest, req.Code))
			return
		}

		resolved := svcCtx.Registry.Resolve(req.ProgramID, uint32(code))
		if resolved == nil {
			httpx.ErrorCtx(r.Context(), w, fmt.Errorf("%w: no error %s for program %s", errNotFound, req.Code, req.ProgramID))
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resolved)
	}
}

func ListProtocolsHandler(svcCtx *svc.ApiServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		protocols := svcCtx.Registry.Protocols()
		out := make([]types.ProtocolSummary, 0, len(protocols))
		for _, p := range protocols {
			out = append(out, types.ProtocolSummary{
				Name:       p.Name,
				ProgramID:  p.ProgramID,
				Version:    p.Version,
				Type:       string(p.Type),
				ErrorCount: p.ErrorCount(),
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		httpx.OkJsonCtx(r.Context(), w, map[string]any{"protocols": out})
	}
}
