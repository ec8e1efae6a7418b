package grpc

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"

	"obsidian-debug/internal/config"
	"obsidian-debug/internal/logic/diagnose"
	"obsidian-debug/internal/metrics"
)

const (
	// getBlocks 单次查询的 slot 跨度
	maxWindowSlots  = 5000
	maxQueuedGaps   = 500
	gapTickInterval = 5 * time.Second
	listTimeout     = 6 * time.Second
	getBlockTimeout = 15 * time.Second
)

// SlotGap stream 没有推送的一段连续 slot，闭区间
type SlotGap struct {
	From     uint64
	To       uint64
	DueAt    time.Time // 早于该时间不查询，节点可能还没确认这些区块
	Attempts int       // 已失败的 getBlocks 次数
}

func (g SlotGap) size() int {
	return int(g.To - g.From + 1)
}

// backfillStats 一轮补扫的结果
type backfillStats struct {
	Empty       int // 链上确实没有区块
	Missing     int // 有区块但 stream 漏推
	Diagnosed   int // 补扫出的失败交易中完成诊断的数量
	Unrecovered int // 漏推但 getBlock 失败的 slot
	Requeued    int
	Dropped     int // 超过最大尝试次数，放弃确认的 slot 数
}

// GapBackfiller 接收 BlockProcessor 报告的跳号区间，延迟确认哪些 slot 真的产出了区块，
// 对漏推的区块用 getBlock 拉取失败交易并走同一条诊断链路。
type GapBackfiller struct {
	source      blockSource
	sink        transactionSink
	delay       time.Duration
	concurrency int
	maxAttempts int
	tick        time.Duration
	now         func() time.Time

	gapCh chan SlotGap
	queue []SlotGap // 只在 Start 所在 goroutine 中访问

	ctx    context.Context
	cancel func(err error)
	logx.Logger
}

func NewGapBackfiller(cfg config.GapBackfillConfig, solana config.SolanaConfig, sink transactionSink) *GapBackfiller {
	return newGapBackfiller(cfg, newRpcBlockSource(solana.Endpoint, solana.Commitment), sink)
}

func newGapBackfiller(cfg config.GapBackfillConfig, source blockSource, sink transactionSink) *GapBackfiller {
	ctx, cancel := context.WithCancelCause(context.Background())
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &GapBackfiller{
		source:      source,
		sink:        sink,
		delay:       time.Duration(cfg.DelaySec) * time.Second,
		concurrency: concurrency,
		maxAttempts: maxAttempts,
		tick:        gapTickInterval,
		now:         time.Now,
		gapCh:       make(chan SlotGap, maxQueuedGaps),
		ctx:         ctx,
		cancel:      cancel,
		Logger:      logx.WithContext(ctx).WithFields(logx.Field("service", "gap_backfiller")),
	}
}

// Submit 非阻塞，队列满时丢弃并告警
func (b *GapBackfiller) Submit(from, to uint64) {
	if from > to {
		b.Errorf("invalid slot gap [%d, %d]", from, to)
		return
	}
	gap := SlotGap{From: from, To: to, DueAt: b.now().Add(b.delay)}
	select {
	case b.gapCh <- gap:
	default:
		metrics.RecordGapSlots("unchecked", gap.size())
		b.Errorf("gap channel full, dropped [%d, %d]", from, to)
	}
}

func (b *GapBackfiller) Start() {
	ticker := time.NewTicker(b.tick)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			b.Infof("gap backfiller stopped, %d gaps pending", len(b.queue))
			return
		case gap := <-b.gapCh:
			b.enqueue(gap)
		case <-ticker.C:
			var due []SlotGap
			due, b.queue = takeDue(b.queue, b.now())
			if len(due) > 0 {
				b.backfill(due)
			}
		}
	}
}

func (b *GapBackfiller) Stop() {
	b.cancel(errors.New("service stop"))
}

func (b *GapBackfiller) enqueue(gap SlotGap) {
	if len(b.queue) >= maxQueuedGaps {
		metrics.RecordGapSlots("unchecked", gap.size())
		b.Errorf("too many pending gaps (%d), dropped [%d, %d]", len(b.queue), gap.From, gap.To)
		return
	}
	b.queue = append(b.queue, gap)
}

// backfill 同步执行一轮补扫，失败的窗口重新入队
func (b *GapBackfiller) backfill(due []SlotGap) backfillStats {
	var stats backfillStats
	var missing []uint64

	for _, w := range coalesceGaps(due, maxWindowSlots) {
		if b.ctx.Err() != nil {
			return stats
		}
		produced, err := b.listBlocks(w)
		if err != nil {
			w.Attempts++
			if w.Attempts >= b.maxAttempts {
				stats.Dropped += w.size()
				metrics.RecordGapSlots("unchecked", w.size())
				b.Errorf("getBlocks [%d, %d] failed %d times, giving up: %v", w.From, w.To, w.Attempts, err)
				continue
			}
			w.DueAt = b.now().Add(b.delay)
			b.enqueue(w)
			stats.Requeued++
			b.Infof("getBlocks [%d, %d] failed, retry later: %v", w.From, w.To, err)
			continue
		}
		stats.Missing += len(produced)
		stats.Empty += w.size() - len(produced)
		missing = append(missing, produced...)
	}

	metrics.RecordGapSlots("empty", stats.Empty)
	metrics.RecordGapSlots("missing", stats.Missing)
	if len(missing) == 0 {
		return stats
	}

	txs, unrecovered := b.fetchFailed(missing)
	stats.Unrecovered = unrecovered
	if len(txs) > 0 {
		reports := b.sink.ProcessTransactions(b.ctx, txs)
		stats.Diagnosed = len(reports)
		for range reports {
			metrics.RecordWatcherTx("backfilled")
		}
	}
	b.Infof("backfill: missing slots %d, empty slots %d, failed tx %d, diagnosed %d, unrecovered slots %d",
		stats.Missing, stats.Empty, len(txs), stats.Diagnosed, stats.Unrecovered)
	return stats
}

// listBlocks 只保留窗口内的 slot，节点偶尔会多返回边界外的值
func (b *GapBackfiller) listBlocks(w SlotGap) ([]uint64, error) {
	ctx, cancel := context.WithTimeout(b.ctx, listTimeout)
	defer cancel()

	slots, err := b.source.GetBlocks(ctx, w.From, w.To)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, len(slots))
	for _, slot := range slots {
		if slot >= w.From && slot <= w.To {
			out = append(out, slot)
		}
	}
	return out, nil
}

// fetchFailed 并发拉取漏推区块的失败交易，按 slot 顺序返回
func (b *GapBackfiller) fetchFailed(slots []uint64) ([]*diagnose.Transaction, int) {
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	perSlot := make([][]*diagnose.Transaction, len(slots))
	failed := make([]bool, len(slots))

	g, gctx := errgroup.WithContext(b.ctx)
	g.SetLimit(b.concurrency)
	for i, slot := range slots {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(gctx, getBlockTimeout)
			defer cancel()
			txs, err := b.source.GetFailedTransactions(ctx, slot)
			if err != nil {
				// 单个区块失败不影响其它区块
				failed[i] = true
				b.Errorf("slot %d missed by stream, getBlock failed: %v", slot, err)
				return nil
			}
			perSlot[i] = txs
			return nil
		})
	}
	_ = g.Wait()

	var out []*diagnose.Transaction
	unrecovered := 0
	for i := range slots {
		if failed[i] {
			unrecovered++
			continue
		}
		out = append(out, perSlot[i]...)
	}
	return out, unrecovered
}

// takeDue 拆出已到期的区间，rest 复用 queue 的底层数组
func takeDue(queue []SlotGap, now time.Time) (due, rest []SlotGap) {
	rest = queue[:0]
	for _, g := range queue {
		if g.DueAt.After(now) {
			rest = append(rest, g)
		} else {
			due = append(due, g)
		}
	}
	return due, rest
}

// coalesceGaps 合并重叠或相邻的区间后按 maxSpan 切分。
// 只合并真正相连的区间，结果窗口内的每个 slot 都来自某个输入区间。
func coalesceGaps(gaps []SlotGap, maxSpan uint64) []SlotGap {
	if len(gaps) == 0 || maxSpan == 0 {
		return nil
	}
	sorted := append([]SlotGap(nil), gaps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].From < sorted[j].From })

	var unions []SlotGap
	cur := sorted[0]
	for _, g := range sorted[1:] {
		if g.From <= cur.To+1 {
			cur.To = max(cur.To, g.To)
			cur.Attempts = max(cur.Attempts, g.Attempts)
			continue
		}
		unions = append(unions, cur)
		cur = g
	}
	unions = append(unions, cur)

	windows := make([]SlotGap, 0, len(unions))
	for _, u := range unions {
		for from := u.From; from <= u.To; {
			to := min(u.To, from+maxSpan-1)
			windows = append(windows, SlotGap{From: from, To: to, DueAt: u.DueAt, Attempts: u.Attempts})
			if to == u.To {
				break
			}
			from = to + 1
		}
	}
	return windows
}
