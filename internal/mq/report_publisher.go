package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/zeromicro/go-zero/core/jsonx"

	"obsidian-debug/internal/logic/diagnose"
	"obsidian-debug/internal/types"
	"obsidian-debug/pkg/logger"
	pmq "obsidian-debug/pkg/mq"
	"obsidian-debug/pkg/utils"
)

const defaultSendTimeout = 3 * time.Second

// ReportPublisher 把诊断报告发布到 Kafka，key 为交易签名，同一签名固定落在同一分区
type ReportPublisher struct {
	producer    pmq.Producer
	topic       string
	partitions  int
	sendTimeout time.Duration
}

func NewReportPublisher(producer pmq.Producer, topic string, partitions int, sendTimeout time.Duration) *ReportPublisher {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &ReportPublisher{
		producer:    producer,
		topic:       topic,
		partitions:  partitions,
		sendTimeout: sendTimeout,
	}
}

// Publish 发送并等待 ack，返回失败条数；全部成功时 error 为 nil
func (p *ReportPublisher) Publish(ctx context.Context, reports ...*diagnose.Report) (int, error) {
	jobs := make([]*pmq.KafkaJob, 0, len(reports))
	for _, r := range reports {
		if r == nil {
			continue
		}
		job, err := p.buildJob(r)
		if err != nil {
			logger.Warnf("[ReportPublisher] skip report %s: %v", r.Signature, err)
			continue
		}
		jobs = append(jobs, job)
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	_, failed := pmq.SendKafkaJobs(ctx, p.producer, jobs, p.sendTimeout)
	if len(failed) > 0 {
		return len(failed), fmt.Errorf("%d/%d reports failed, first error: %w", len(failed), len(jobs), failed[0].Err)
	}
	return 0, nil
}

func (p *ReportPublisher) buildJob(r *diagnose.Report) (*pmq.KafkaJob, error) {
	value, err := jsonx.Marshal(r)
	if err != nil {
		return nil, err
	}
	return &pmq.KafkaJob{
		Topic:     p.topic,
		Partition: p.partitionFor(r.Signature),
		Key:       []byte(r.Signature),
		Value:     value,
	}, nil
}

// partitionFor 签名可解码时按签名字节取分区，否则交给 Kafka 按 key 分配
func (p *ReportPublisher) partitionFor(signature string) int32 {
	if p.partitions <= 1 {
		return kafka.PartitionAny
	}
	sig, err := types.TrySignatureFromBase58(signature)
	if err != nil {
		return kafka.PartitionAny
	}
	return int32(utils.PartitionHashBytes(sig.Bytes(), uint32(p.partitions)))
}
