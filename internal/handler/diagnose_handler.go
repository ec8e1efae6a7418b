package handler

import (
	"fmt"
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"obsidian-debug/internal/svc"
	"obsidian-debug/internal/types"
)

func DiagnoseHandler(svcCtx *svc.ApiServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.DiagnoseRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}

		report, err := svcCtx.Diagnosis.DiagnoseSignature(r.Context(), req.Signature)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, report)
	}
}

// DiagnoseBatchHandler 单个签名失败写在对应条目的 error 字段，整体仍返回 200
func DiagnoseBatchHandler(svcCtx *svc.ApiServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.DiagnoseBatchRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		if err := checkBatchSize(len(req.Signatures), svcCtx.Config.BatchLimit); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		items := svcCtx.Diagnosis.DiagnoseBatch(r.Context(), req.Signatures, svcCtx.Config.BatchConcurrency)
		httpx.OkJsonCtx(r.Context(), w, map[string]any{"items": items})
	}
}

// checkBatchSize limit <= 0 表示不限制条数
func checkBatchSize(n, limit int) error {
	switch {
	case n == 0:
		return fmt.Errorf("%w: signatures must not be empty", errBadRequest)
	case limit > 0 && n > limit:
		return fmt.Errorf("%w: signatures must contain at most %d items, got %d", errBadRequest, limit, n)
	}
	return nil
}
