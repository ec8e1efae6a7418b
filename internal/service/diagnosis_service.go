package service

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"

	"obsidian-debug/internal/logic/diagnose"
	"obsidian-debug/internal/metrics"
	"obsidian-debug/pkg/logger"
)

// TxFetcher 按签名获取交易
type TxFetcher interface {
	FetchTransaction(ctx context.Context, signature string) (*diagnose.Transaction, error)
}

// ReportCache Get 未命中返回 nil, nil
type ReportCache interface {
	Get(ctx context.Context, signature string) (*diagnose.Report, error)
	Set(ctx context.Context, r *diagnose.Report) error
}

// ReportPublisher 返回发送失败的条数
type ReportPublisher interface {
	Publish(ctx context.Context, reports ...*diagnose.Report) (int, error)
}

// DiagnosisService 串起 缓存 → RPC 获取 → 诊断 → 缓存/发布。
// cache 和 publisher 可为 nil。
type DiagnosisService struct {
	diagnoser *diagnose.Service
	fetcher   TxFetcher
	cache     ReportCache
	publisher ReportPublisher
	source    string
}

func NewDiagnosisService(diagnoser *diagnose.Service, fetcher TxFetcher, cache ReportCache, publisher ReportPublisher, source string) *DiagnosisService {
	return &DiagnosisService{
		diagnoser: diagnoser,
		fetcher:   fetcher,
		cache:     cache,
		publisher: publisher,
		source:    source,
	}
}

func (s *DiagnosisService) Diagnoser() *diagnose.Service {
	return s.diagnoser
}

// DiagnoseSignature 诊断单笔交易，缓存命中时不访问 RPC
func (s *DiagnosisService) DiagnoseSignature(ctx context.Context, signature string) (*diagnose.Report, error) {
	start := time.Now()
	defer metrics.ObserveDiagnose(s.source, start)

	if cached := s.lookup(ctx, signature); cached != nil {
		return cached, nil
	}

	if s.fetcher == nil {
		return nil, errors.New("transaction fetcher not configured")
	}
	tx, err := s.fetcher.FetchTransaction(ctx, signature)
	if err != nil {
		return nil, err
	}

	report := s.diagnose(tx)
	s.store(ctx, report)
	s.publish(ctx, report)
	return report, nil
}

// BatchItem 批量诊断中单个签名的结果
type BatchItem struct {
	Signature string           `json:"signature"`
	Report    *diagnose.Report `json:"report,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// DiagnoseBatch 并发诊断多个签名，结果顺序与输入一致，单个失败不影响其他
func (s *DiagnosisService) DiagnoseBatch(ctx context.Context, signatures []string, concurrency int) []BatchItem {
	items := make([]BatchItem, len(signatures))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, sig := range signatures {
		items[i].Signature = sig
		g.Go(func() error {
			r, err := s.DiagnoseSignature(gctx, sig)
			if err != nil {
				items[i].Error = err.Error()
				return nil
			}
			items[i].Report = r
			return nil
		})
	}
	_ = g.Wait()
	return items
}

// ProcessTransactions 诊断已获取的交易（stream 推送），缓存并批量发布
func (s *DiagnosisService) ProcessTransactions(ctx context.Context, txs []*diagnose.Transaction) []*diagnose.Report {
	reports := make([]*diagnose.Report, 0, len(txs))
	for _, tx := range txs {
		start := time.Now()
		r := s.diagnose(tx)
		metrics.ObserveDiagnose(s.source, start)
		if r == nil {
			continue
		}
		s.store(ctx, r)
		reports = append(reports, r)
	}
	s.publish(ctx, reports...)
	return reports
}

func (s *DiagnosisService) diagnose(tx *diagnose.Transaction) (report *diagnose.Report) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[DiagnosisService] diagnose panic: %v\n%s", r, debug.Stack())
			report = nil
		}
	}()

	report = s.diagnoser.Diagnose(tx)
	recordEnrich(report)
	return report
}

func recordEnrich(r *diagnose.Report) {
	if r == nil || r.Status != diagnose.ReportStatusFailed {
		return
	}
	switch {
	case r.Error == nil:
		metrics.RecordEnrich("none", "")
	case r.Error.Resolved && r.Error.Source != nil:
		metrics.RecordEnrich("resolved", string(r.Error.Source.Kind))
	default:
		metrics.RecordEnrich("unresolved", "")
	}
}

func (s *DiagnosisService) lookup(ctx context.Context, signature string) *diagnose.Report {
	if s.cache == nil {
		return nil
	}
	r, err := s.cache.Get(ctx, signature)
	switch {
	case err != nil:
		metrics.RecordCache("error")
		logx.WithContext(ctx).Errorf("report cache get %s: %v", signature, err)
		return nil
	case r == nil:
		metrics.RecordCache("miss")
		return nil
	}
	metrics.RecordCache("hit")
	return r
}

func (s *DiagnosisService) store(ctx context.Context, r *diagnose.Report) {
	if s.cache == nil || r == nil {
		return
	}
	if err := s.cache.Set(ctx, r); err != nil {
		logx.WithContext(ctx).Errorf("report cache set %s: %v", r.Signature, err)
	}
}

func (s *DiagnosisService) publish(ctx context.Context, reports ...*diagnose.Report) {
	if s.publisher == nil || len(reports) == 0 {
		return
	}
	failed, err := s.publisher.Publish(ctx, reports...)
	metrics.RecordPublish("ok", len(reports)-failed)
	if err != nil {
		metrics.RecordPublish("failed", failed)
		logx.WithContext(ctx).Errorf("publish %d reports: %v", len(reports), err)
	}
}
