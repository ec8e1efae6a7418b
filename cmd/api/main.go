package main

import (
	"flag"
	"runtime/debug"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"
	"github.com/zeromicro/go-zero/rest"
	"github.com/zeromicro/go-zero/rest/httpx"

	"obsidian-debug/internal/config"
	"obsidian-debug/internal/handler"
	"obsidian-debug/internal/svc"
	"obsidian-debug/pkg/logger"
)

var configFile = flag.String("f", "etc/api.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	var c config.ApiConfig
	conf.MustLoad(*configFile, &c)

	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		panic(err)
	}
	defer logger.Sync()

	svcCtx, err := svc.NewApiServiceContext(c)
	if err != nil {
		panic(err)
	}
	defer svcCtx.Close()

	server := rest.MustNewServer(c.RestConf)
	httpx.SetErrorHandlerCtx(handler.ErrorHandler)
	handler.RegisterHandlers(server, svcCtx)

	sg := zerosvc.NewServiceGroup()
	defer sg.Stop()
	sg.Add(server)
	if svcCtx.IdlSync != nil {
		sg.Add(svcCtx.IdlSync)
	}

	logx.Infof("Starting api server at %s:%d", c.Host, c.Port)
	sg.Start()
}
