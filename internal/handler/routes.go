package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"obsidian-debug/internal/svc"
)

func RegisterHandlers(server *rest.Server, svcCtx *svc.ApiServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{Method: http.MethodPost, Path: "/diagnose", Handler: DiagnoseHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/diagnose/batch", Handler: DiagnoseBatchHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/enrich", Handler: EnrichHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/logs/parse", Handler: ParseLogsHandler(svcCtx)},
			{Method: http.MethodGet, Path: "/errors/:programId/:code", Handler: ErrorLookupHandler(svcCtx)},
			{Method: http.MethodGet, Path: "/protocols", Handler: ListProtocolsHandler(svcCtx)},
		},
		rest.WithPrefix("/api/v1"),
	)
}
