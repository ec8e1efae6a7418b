package svc

import (
	"obsidian-debug/internal/config"
	"obsidian-debug/internal/metrics"
)

type ApiServiceContext struct {
	Config config.ApiConfig
	*ServiceContext
}

func NewApiServiceContext(c config.ApiConfig) (*ApiServiceContext, error) {
	sc, err := newServiceContext(coreOptions{
		Source:     metrics.SourceAPI,
		Solana:     c.Solana,
		Redis:      c.Redis,
		Kafka:      c.KafkaProducerConf,
		IdlSync:    c.IdlSync,
		ErrorTable: c.ErrorTable,
	})
	if err != nil {
		return nil, err
	}
	return &ApiServiceContext{Config: c, ServiceContext: sc}, nil
}
