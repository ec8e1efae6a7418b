package config

import (
	"github.com/zeromicro/go-zero/core/service"
	"github.com/zeromicro/go-zero/rest"

	"obsidian-debug/pkg/logger"
	"obsidian-debug/pkg/mq"
)

type LogConfig struct {
	Format   string `json:",default=console,options=console|json"` // 日志格式
	LogDir   string `json:",default=logs"`                         // 日志目录（可为相对路径或绝对路径）
	Level    string `json:",default=info"`                         // 日志级别：debug / info / warn / error
	Compress bool   `json:",optional"`                             // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// SolanaConfig Solana JSON-RPC 配置
type SolanaConfig struct {
	Endpoint   string `json:",default=https://api.mainnet-beta.solana.com"`
	Commitment string `json:",default=confirmed,options=processed|confirmed|finalized"`
	TimeoutSec int    `json:",default=10"` // 单次 RPC 请求超时（秒）
}

// RedisConfig 诊断报告缓存，Addr 为空时不启用
type RedisConfig struct {
	Addr      string `json:",optional"`
	Password  string `json:",optional"`
	DB        int    `json:",optional"`
	TTLSec    int    `json:",default=86400"` // 报告缓存时长（秒）
	KeyPrefix string `json:",default=obsidian:report"`
}

func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置，Brokers 为空时不发布
type KafkaProducerConfig struct {
	Brokers       string `json:",optional"`  // Kafka broker 地址，多个用英文逗号分隔
	BatchSize     int    `json:",optional"`  // 批处理大小（单位字节）
	LingerMs      int    `json:",default=5"` // 批处理最大延迟（毫秒）
	SendTimeoutMs int    `json:",default=3000"`

	Topics struct {
		Diagnosis string `json:",default=obsidian.diagnosis"` // 诊断报告 topic
	}

	Partitions struct {
		Diagnosis int `json:",default=8"`
	}
}

func (c *KafkaProducerConfig) Enabled() bool {
	return c.Brokers != ""
}

func (c *KafkaProducerConfig) ToKafkaOption() mq.KafkaProducerOption {
	return mq.KafkaProducerOption{
		Brokers:   c.Brokers,
		BatchSize: c.BatchSize,
		LingerMs:  c.LingerMs,
		Topics: []mq.TopicOption{
			{Topic: c.Topics.Diagnosis, Partitions: c.Partitions.Diagnosis},
		},
	}
}

// IdlSyncConfig 链上 Anchor IDL 同步
type IdlSyncConfig struct {
	Enabled    bool     `json:",optional"`
	Schedule   string   `json:",optional"` // cron 表达式，为空时每 30 分钟一次
	TimeoutSec int      `json:",default=15"`
	Programs   []string `json:",optional"` // 为空时同步所有已注册的非框架程序
}

// ErrorTableConfig 错误码表来源
type ErrorTableConfig struct {
	// Dir 额外的 protocols.yaml 目录，会覆盖内置表中相同的程序
	Dir      string `json:",optional"`
	Manifest string `json:",default=protocols.yaml"` // Dir 内的清单文件名
}

// ApiConfig HTTP API 服务配置
type ApiConfig struct {
	rest.RestConf
	LogConf           LogConfig
	Solana            SolanaConfig
	Redis             RedisConfig         `json:",optional"`
	KafkaProducerConf KafkaProducerConfig `json:",optional"`
	IdlSync           IdlSyncConfig       `json:",optional"`
	ErrorTable        ErrorTableConfig    `json:",optional"`

	BatchLimit       int `json:",default=20"` // 批量诊断单次最多签名数
	BatchConcurrency int `json:",default=4"`
}

// GrpcConfig yellowstone gRPC 订阅配置
type GrpcConfig struct {
	Endpoint string // gRPC 服务端地址
	XToken   string `json:",optional"` // x-token 认证

	// 应用级逻辑心跳（ping）配置
	StreamPingIntervalSec int `json:",default=10"` // 应用层 ping 心跳间隔（秒）

	// gRPC Keepalive 底层连接检测配置
	KeepalivePingIntervalSec int `json:",default=15"` // 底层 keepalive 间隔（秒）
	KeepalivePingTimeoutSec  int `json:",default=5"`  // 底层 keepalive 超时（秒）

	// gRPC 窗口大小调优（用于大数据流推送）
	InitialWindowSize     int `json:",default=1073741824"` // 单流窗口大小（字节）
	InitialConnWindowSize int `json:",default=1073741824"` // 整体连接窗口大小（字节）

	// 消息体大小限制
	MaxCallSendMsgSize int `json:",default=67108864"` // 单条消息最大发送字节数
	MaxCallRecvMsgSize int `json:",default=67108864"` // 单条消息最大接收字节数

	// 超时与重连策略
	ReconnectIntervalSec int `json:",default=3"`  // 重连最小间隔（秒）
	ConnectTimeoutSec    int `json:",default=10"` // 连接建立超时（秒）
	SendTimeoutSec       int `json:",default=5"`  // 发送超时（秒）
	BlockRecvTimeoutSec  int `json:",default=30"` // 超过该时长未收到 block 则重连（秒）
	MaxLatencyWarnMs     int `json:",default=3000"`

	// Programs 订阅的程序地址，只接收涉及这些程序的交易
	Programs []string
}

// WatcherConfig 失败交易监听服务配置
type WatcherConfig struct {
	service.ServiceConf
	LogConf           LogConfig
	Solana            SolanaConfig
	Grpc              GrpcConfig
	Redis             RedisConfig         `json:",optional"`
	KafkaProducerConf KafkaProducerConfig `json:",optional"`
	IdlSync           IdlSyncConfig       `json:",optional"`
	ErrorTable        ErrorTableConfig    `json:",optional"`

	BlockChanSize int               `json:",default=200"`
	GapBackfill   GapBackfillConfig `json:",optional"`
}

// GapBackfillConfig stream 跳过的 slot 延迟确认后，用 getBlock 补扫其中的失败交易
type GapBackfillConfig struct {
	Enabled     bool `json:",optional"`
	DelaySec    int  `json:",default=30"` // 跳号后等待多久再查询，给 RPC 节点留出确认时间
	Concurrency int  `json:",default=4"`  // 并发 getBlock 数
	MaxAttempts int  `json:",default=3"`  // getBlocks 失败后的最大尝试次数
}
