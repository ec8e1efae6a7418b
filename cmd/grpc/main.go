package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"

	"obsidian-debug/internal/config"
	"obsidian-debug/internal/logic/grpc"
	"obsidian-debug/internal/svc"
	"obsidian-debug/pkg/logger"
)

var configFile = flag.String("f", "etc/grpc.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	var c config.WatcherConfig
	conf.MustLoad(*configFile, &c)
	c.ServiceConf.MustSetUp()

	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		panic(err)
	}
	defer logger.Sync()

	serviceContext, err := svc.NewGrpcServiceContext(c)
	if err != nil {
		panic(err)
	}
	defer serviceContext.Close()

	sg := zerosvc.NewServiceGroup()
	if serviceContext.IdlSync != nil {
		sg.Add(serviceContext.IdlSync)
	}

	var backfiller *grpc.GapBackfiller
	if c.GapBackfill.Enabled {
		backfiller = grpc.NewGapBackfiller(c.GapBackfill, c.Solana, serviceContext.Diagnosis)
		sg.Add(backfiller)
	}

	blockChan := make(chan *pb.SubscribeUpdateBlock, c.BlockChanSize)
	sg.Add(grpc.NewBlockProcessor(serviceContext.Diagnosis, backfiller, blockChan))

	grpcService, err := grpc.NewGrpcStreamManager(c.Grpc, blockChan)
	if err != nil {
		panic(err)
	}
	sg.Add(grpcService)

	logx.Infof("Starting grpc stream service, programs=%d", len(c.Grpc.Programs))

	// 启动服务
	go sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logx.Info("Shutting down services...")
	sg.Stop()
}
