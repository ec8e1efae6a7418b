package mq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obsidian-debug/internal/logic/diagnose"
)

// recordingProducer 记录所有消息并立即 ack
type recordingProducer struct {
	mu   sync.Mutex
	msgs []*kafka.Message
	fail bool
}

func (p *recordingProducer) Produce(msg *kafka.Message, ch chan kafka.Event) error {
	p.mu.Lock()
	p.msgs = append(p.msgs, msg)
	p.mu.Unlock()
	if p.fail {
		msg.TopicPartition.Error = errors.New("broker down")
	}
	ch <- msg
	return nil
}

func testSignature() string {
	b := make([]byte, 64)
	for i := range b {
		b[i] = byte(i + 3)
	}
	return base58.Encode(b)
}

func TestReportPublisherPublish(t *testing.T) {
	p := &recordingProducer{}
	pub := NewReportPublisher(p, "obsidian.diagnosis", 8, time.Second)

	sig := testSignature()
	failedCount, err := pub.Publish(context.Background(), &diagnose.Report{Signature: sig, Summary: "x"})
	require.NoError(t, err)
	assert.Zero(t, failedCount)

	require.Len(t, p.msgs, 1)
	msg := p.msgs[0]
	assert.Equal(t, "obsidian.diagnosis", *msg.TopicPartition.Topic)
	assert.Equal(t, sig, string(msg.Key))
	assert.Contains(t, string(msg.Value), `"summary":"x"`)

	raw, _ := base58.Decode(sig)
	assert.Equal(t, int32(raw[27]&7), msg.TopicPartition.Partition)
}

func TestReportPublisherPartitionFallback(t *testing.T) {
	pub := NewReportPublisher(&recordingProducer{}, "t", 8, 0)
	assert.Equal(t, kafka.PartitionAny, pub.partitionFor("not-base58-0OIl"))
	assert.Equal(t, defaultSendTimeout, pub.sendTimeout)

	single := NewReportPublisher(&recordingProducer{}, "t", 1, 0)
	assert.Equal(t, kafka.PartitionAny, single.partitionFor(testSignature()))
}

func TestReportPublisherFailures(t *testing.T) {
	pub := NewReportPublisher(&recordingProducer{fail: true}, "t", 4, time.Second)
	n, err := pub.Publish(context.Background(), &diagnose.Report{Signature: "a"}, &diagnose.Report{Signature: "b"})
	assert.Error(t, err)
	assert.Equal(t, 2, n)

	// nil 报告被跳过
	n, err = pub.Publish(context.Background(), nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}
