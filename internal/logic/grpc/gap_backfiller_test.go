package grpc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obsidian-debug/internal/config"
	"obsidian-debug/internal/logic/diagnose"
)

// fakeBlockSource blocks 中存在的 slot 视为链上产出了区块，值为其中的失败交易
type fakeBlockSource struct {
	mu        sync.Mutex
	blocks    map[uint64][]*diagnose.Transaction
	listErr   error
	blockErrs map[uint64]error
	listCalls int
	fetched   []uint64
}

func (s *fakeBlockSource) GetBlocks(_ context.Context, from, to uint64) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []uint64
	for slot := from; slot <= to; slot++ {
		if _, ok := s.blocks[slot]; ok {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *fakeBlockSource) GetFailedTransactions(_ context.Context, slot uint64) ([]*diagnose.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, slot)
	if err := s.blockErrs[slot]; err != nil {
		return nil, err
	}
	return s.blocks[slot], nil
}

func failedTx(sig string, slot uint64) *diagnose.Transaction {
	return &diagnose.Transaction{
		Signature: sig,
		Slot:      slot,
		Err:       map[string]any{"InstructionError": []any{float64(0), map[string]any{"Custom": float64(1)}}},
	}
}

func newTestBackfiller(source blockSource, sink transactionSink) *GapBackfiller {
	b := newGapBackfiller(config.GapBackfillConfig{Concurrency: 2, MaxAttempts: 2}, source, sink)
	b.now = func() time.Time { return time.Unix(1746100000, 0) }
	return b
}

func TestCoalesceGaps(t *testing.T) {
	windows := coalesceGaps([]SlotGap{
		{From: 20, To: 25},
		{From: 1, To: 5},
		{From: 6, To: 8, Attempts: 1},
		{From: 3, To: 4},
	}, 100)
	// 相邻和重叠的区间合并，不相连的 9..19 不会被填进窗口
	require.Len(t, windows, 2)
	assert.Equal(t, uint64(1), windows[0].From)
	assert.Equal(t, uint64(8), windows[0].To)
	assert.Equal(t, 1, windows[0].Attempts)
	assert.Equal(t, uint64(20), windows[1].From)
	assert.Equal(t, uint64(25), windows[1].To)

	split := coalesceGaps([]SlotGap{{From: 0, To: 24}}, 10)
	require.Len(t, split, 3)
	assert.Equal(t, uint64(9), split[0].To)
	assert.Equal(t, uint64(10), split[1].From)
	assert.Equal(t, uint64(20), split[2].From)
	assert.Equal(t, uint64(24), split[2].To)

	assert.Nil(t, coalesceGaps(nil, 10))
}

func TestTakeDue(t *testing.T) {
	now := time.Unix(1000, 0)
	queue := []SlotGap{
		{From: 1, To: 1, DueAt: now.Add(-time.Second)},
		{From: 2, To: 2, DueAt: now.Add(time.Second)},
		{From: 3, To: 3, DueAt: now},
	}
	due, rest := takeDue(queue, now)
	require.Len(t, due, 2)
	assert.Equal(t, uint64(1), due[0].From)
	assert.Equal(t, uint64(3), due[1].From)
	require.Len(t, rest, 1)
	assert.Equal(t, uint64(2), rest[0].From)
}

// 101、103、110 链上有区块但 stream 没有推送，102 是空块
func TestBackfillDiagnosesMissedBlocks(t *testing.T) {
	source := &fakeBlockSource{blocks: map[uint64][]*diagnose.Transaction{
		101: {failedTx("sig-101", 101)},
		103: {failedTx("sig-103a", 103), failedTx("sig-103b", 103)},
		110: nil,
	}}
	sink := &recordingSink{}
	b := newTestBackfiller(source, sink)

	stats := b.backfill([]SlotGap{{From: 101, To: 103}, {From: 102, To: 102}, {From: 110, To: 110}})
	assert.Equal(t, backfillStats{Empty: 1, Missing: 3, Diagnosed: 3}, stats)
	assert.Equal(t, 2, source.listCalls)
	assert.ElementsMatch(t, []uint64{101, 103, 110}, source.fetched)

	require.Len(t, sink.txs, 3)
	assert.Equal(t, "sig-101", sink.txs[0].Signature)
	assert.Equal(t, "sig-103a", sink.txs[1].Signature)
	assert.Equal(t, "sig-103b", sink.txs[2].Signature)
}

func TestBackfillGetBlockFailure(t *testing.T) {
	source := &fakeBlockSource{
		blocks: map[uint64][]*diagnose.Transaction{
			5: {failedTx("sig-5", 5)},
			6: {failedTx("sig-6", 6)},
		},
		blockErrs: map[uint64]error{5: errors.New("429 too many requests")},
	}
	sink := &recordingSink{}
	stats := newTestBackfiller(source, sink).backfill([]SlotGap{{From: 5, To: 6}})

	assert.Equal(t, 2, stats.Missing)
	assert.Equal(t, 1, stats.Unrecovered)
	assert.Equal(t, 1, stats.Diagnosed)
	require.Len(t, sink.txs, 1)
	assert.Equal(t, "sig-6", sink.txs[0].Signature)
}

func TestBackfillRequeueThenDrop(t *testing.T) {
	source := &fakeBlockSource{listErr: errors.New("rpc unavailable")}
	sink := &recordingSink{}
	b := newTestBackfiller(source, sink)
	b.delay = 30 * time.Second

	stats := b.backfill([]SlotGap{{From: 1, To: 3}})
	assert.Equal(t, 1, stats.Requeued)
	require.Len(t, b.queue, 1)
	assert.Equal(t, 1, b.queue[0].Attempts)
	assert.Equal(t, b.now().Add(30*time.Second), b.queue[0].DueAt)

	// 第二次仍失败，达到 MaxAttempts 后放弃，不计为漏推
	due, rest := takeDue(b.queue, b.queue[0].DueAt)
	b.queue = rest
	stats = b.backfill(due)
	assert.Equal(t, backfillStats{Dropped: 3}, stats)
	assert.Empty(t, b.queue)
	assert.Empty(t, sink.txs)
}

func TestBackfillNoMissingSlots(t *testing.T) {
	source := &fakeBlockSource{}
	stats := newTestBackfiller(source, &recordingSink{}).backfill([]SlotGap{{From: 7, To: 9}})
	assert.Equal(t, backfillStats{Empty: 3}, stats)
	assert.Empty(t, source.fetched)
}

func TestGapBackfillerSubmit(t *testing.T) {
	b := newTestBackfiller(&fakeBlockSource{}, &recordingSink{})
	b.Submit(5, 4)
	b.Submit(1, 2)
	require.Len(t, b.gapCh, 1)
	gap := <-b.gapCh
	assert.Equal(t, SlotGap{From: 1, To: 2, DueAt: b.now()}, gap)
}

func TestGapBackfillerStartStop(t *testing.T) {
	source := &fakeBlockSource{blocks: map[uint64][]*diagnose.Transaction{42: {failedTx("sig-42", 42)}}}
	sink := &recordingSink{}
	b := newGapBackfiller(config.GapBackfillConfig{}, source, sink)
	b.tick = 10 * time.Millisecond

	done := make(chan struct{})
	go func() {
		b.Start()
		close(done)
	}()
	b.Submit(41, 43)

	assert.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.txs) == 1
	}, time.Second, 10*time.Millisecond)

	b.Stop()
	<-done
}
