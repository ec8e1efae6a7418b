package svc

import (
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/redis/go-redis/v9"

	"obsidian-debug/internal/cache"
	"obsidian-debug/internal/config"
	"obsidian-debug/internal/logic/diagnose"
	"obsidian-debug/internal/logic/errorcodes"
	"obsidian-debug/internal/logic/patterns"
	"obsidian-debug/internal/mq"
	"obsidian-debug/internal/service"
	"obsidian-debug/pkg/logger"
	pmq "obsidian-debug/pkg/mq"
)

// ServiceContext API 与 watcher 共用的资源
type ServiceContext struct {
	Registry  *errorcodes.Registry
	Matcher   *patterns.Matcher
	Diagnoser *diagnose.Service
	Fetcher   *service.RpcTxFetcher
	Diagnosis *service.DiagnosisService
	IdlSync   *service.IdlSyncService // 未启用时为 nil

	Redis    redis.UniversalClient
	Producer *kafka.Producer
}

type coreOptions struct {
	Source     string
	Solana     config.SolanaConfig
	Redis      config.RedisConfig
	Kafka      config.KafkaProducerConfig
	IdlSync    config.IdlSyncConfig
	ErrorTable config.ErrorTableConfig
}

func newServiceContext(opt coreOptions) (*ServiceContext, error) {
	// 1. 错误码注册表：内置表 + 可选的外部目录
	registry := errorcodes.MustNewDefaultRegistry()
	if opt.ErrorTable.Dir != "" {
		if err := errorcodes.LoadDir(registry, opt.ErrorTable.Dir, opt.ErrorTable.Manifest); err != nil {
			return nil, fmt.Errorf("加载错误码目录 %s 失败: %w", opt.ErrorTable.Dir, err)
		}
	}
	logger.Infof("错误码注册表加载完成，协议数: %d", len(registry.Protocols()))

	matcher := patterns.NewDefaultMatcher()
	sc := &ServiceContext{
		Registry:  registry,
		Matcher:   matcher,
		Diagnoser: diagnose.NewService(registry, matcher),
		Fetcher:   service.NewRpcTxFetcher(opt.Solana),
	}

	// 2. 报告缓存：优先 Redis，否则进程内缓存
	var reportCache service.ReportCache
	ttl := time.Duration(opt.Redis.TTLSec) * time.Second
	if opt.Redis.Enabled() {
		sc.Redis = redis.NewClient(&redis.Options{
			Addr:     opt.Redis.Addr,
			Password: opt.Redis.Password,
			DB:       opt.Redis.DB,
		})
		reportCache = cache.NewRedisReportCache(sc.Redis, opt.Redis.KeyPrefix, ttl)
	} else {
		mem, err := cache.NewMemoryReportCache(ttl, 0)
		if err != nil {
			sc.Close()
			return nil, err
		}
		reportCache = mem
	}

	// 3. Kafka 发布，未配置 broker 时跳过
	var publisher service.ReportPublisher
	if opt.Kafka.Enabled() {
		producer, err := pmq.NewKafkaProducer(opt.Kafka.ToKafkaOption())
		if err != nil {
			logger.Errorf("Kafka producer 初始化失败: %v", err)
			sc.Close()
			return nil, err
		}
		sc.Producer = producer
		go logProducerEvents(producer)
		publisher = mq.NewReportPublisher(producer, opt.Kafka.Topics.Diagnosis, opt.Kafka.Partitions.Diagnosis,
			time.Duration(opt.Kafka.SendTimeoutMs)*time.Millisecond)
	}

	sc.Diagnosis = service.NewDiagnosisService(sc.Diagnoser, sc.Fetcher, reportCache, publisher, opt.Source)

	if opt.IdlSync.Enabled {
		sc.IdlSync = service.NewIdlSyncService(opt.IdlSync, opt.Solana, registry)
	}
	return sc, nil
}

// logProducerEvents 消费 producer 的全局事件，避免 Events 通道堆积
func logProducerEvents(p *kafka.Producer) {
	for e := range p.Events() {
		if kerr, ok := e.(kafka.Error); ok {
			logger.Warnf("[kafka] %v", kerr)
		}
	}
}

// Close 关闭服务上下文中的资源
func (sc *ServiceContext) Close() {
	if sc.Producer != nil {
		sc.Producer.Flush(3000)
		sc.Producer.Close()
	}
	if sc.Redis != nil {
		if err := sc.Redis.Close(); err != nil {
			logger.Warnf("关闭 Redis 失败: %v", err)
		}
	}
}
