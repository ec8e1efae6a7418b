package svc

import (
	"obsidian-debug/internal/config"
	"obsidian-debug/internal/metrics"
	"obsidian-debug/pkg/logger"
)

// GrpcServiceContext 失败交易监听服务资源
type GrpcServiceContext struct {
	Config config.WatcherConfig
	*ServiceContext
}

// NewGrpcServiceContext 创建一个新的 GRPC 服务上下文
func NewGrpcServiceContext(c config.WatcherConfig) (*GrpcServiceContext, error) {
	sc, err := newServiceContext(coreOptions{
		Source:     metrics.SourceWatcher,
		Solana:     c.Solana,
		Redis:      c.Redis,
		Kafka:      c.KafkaProducerConf,
		IdlSync:    c.IdlSync,
		ErrorTable: c.ErrorTable,
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("GRPC 服务上下文初始化完成")
	return &GrpcServiceContext{Config: c, ServiceContext: sc}, nil
}
