package grpc

import (
	"context"
	"errors"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/logx"

	"obsidian-debug/internal/consts"
	"obsidian-debug/internal/logic/diagnose"
	"obsidian-debug/internal/logic/txadapter"
	"obsidian-debug/internal/metrics"
	"obsidian-debug/pkg/utils"
)

// transactionSink 诊断并发布失败交易，*service.DiagnosisService 满足
type transactionSink interface {
	ProcessTransactions(ctx context.Context, txs []*diagnose.Transaction) []*diagnose.Report
}

// gapReporter *GapBackfiller 满足
type gapReporter interface {
	Submit(from, to uint64)
}

type BlockProcessor struct {
	sink      transactionSink
	gaps      gapReporter // 为 nil 时不做漏扫检测
	blockChan chan *pb.SubscribeUpdateBlock
	lastSlot  uint64
	ctx       context.Context
	cancel    func(err error)
	logx.Logger
}

func NewBlockProcessor(sink transactionSink, gaps *GapBackfiller, blockChan chan *pb.SubscribeUpdateBlock) *BlockProcessor {
	var reporter gapReporter
	if gaps != nil {
		reporter = gaps
	}
	return newBlockProcessor(sink, reporter, blockChan)
}

func newBlockProcessor(sink transactionSink, gaps gapReporter, blockChan chan *pb.SubscribeUpdateBlock) *BlockProcessor {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &BlockProcessor{
		sink:      sink,
		gaps:      gaps,
		blockChan: blockChan,
		Logger:    logx.WithContext(ctx).WithFields(logx.Field("service", "block_processor")),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (p *BlockProcessor) Start() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case block := <-p.blockChan:
			p.procBlock(block)
			if len(p.blockChan) > 10 {
				p.Debugf("block chan len:%v", len(p.blockChan))
			}
		}
	}
}

func (p *BlockProcessor) Stop() {
	p.cancel(errors.New("service stop"))
}

func (p *BlockProcessor) procBlock(block *pb.SubscribeUpdateBlock) {
	if block == nil {
		return
	}
	startTime := time.Now()
	p.checkGap(block.Slot)

	// 1. 过滤失败交易
	failed := make([]*pb.SubscribeUpdateTransactionInfo, 0, 8)
	for _, tx := range block.Transactions {
		if txadapter.IsFailedGrpcTx(tx) {
			failed = append(failed, tx)
		}
	}
	if len(failed) == 0 {
		return
	}

	var blockTime *int64
	if block.BlockTime != nil {
		ts := block.BlockTime.Timestamp
		blockTime = &ts
	}

	// 2. 并发转换
	adapted := utils.ParallelMap(failed, consts.CpuCount+2,
		func(tx *pb.SubscribeUpdateTransactionInfo) *diagnose.Transaction {
			t, err := txadapter.AdaptGrpcTx(block.Slot, blockTime, tx)
			if err != nil {
				p.Errorf("AdaptGrpcTx failed: slot=%d, index=%d, err=%v", block.Slot, tx.Index, err)
				return nil
			}
			return t
		})

	txs := make([]*diagnose.Transaction, 0, len(adapted))
	for _, t := range adapted {
		if t == nil {
			metrics.RecordWatcherTx("invalid")
			continue
		}
		txs = append(txs, t)
	}

	// 3. 诊断、缓存、发布
	reports := p.sink.ProcessTransactions(p.ctx, txs)
	for range reports {
		metrics.RecordWatcherTx("diagnosed")
	}
	p.Infof("slot %d: 总tx数量 %d, 失败tx数量 %d, 诊断数量 %d, 耗时 %v",
		block.Slot, len(block.Transactions), len(failed), len(reports), time.Since(startTime))
}

// checkGap slot 跳号时提交给 GapBackfiller，确认是空块还是漏推
func (p *BlockProcessor) checkGap(slot uint64) {
	last := p.lastSlot
	if slot > last {
		p.lastSlot = slot
	}
	if p.gaps == nil || last == 0 || slot <= last+1 {
		return
	}
	p.gaps.Submit(last+1, slot-1)
}
