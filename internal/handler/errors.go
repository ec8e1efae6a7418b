package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"

	"obsidian-debug/internal/logic/diagnose"
	"obsidian-debug/internal/types"
)

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

// ErrorHandler 通过 httpx.SetErrorHandlerCtx 注册，把哨兵错误映射为 HTTP 状态码
func ErrorHandler(ctx context.Context, err error) (int, any) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		logx.WithContext(ctx).Errorf("request failed: %v", err)
	}
	return status, &types.ErrorResponse{Code: status, Message: err.Error()}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, diagnose.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound), errors.Is(err, diagnose.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
