package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"obsidian-debug/internal/config"
	"obsidian-debug/internal/logic/errorcodes"
	"obsidian-debug/internal/logic/idl"
	"obsidian-debug/internal/metrics"
	"obsidian-debug/pkg/logger"
)

// getMultipleAccounts 单次最多 100 个地址
const maxAccountsPerRequest = 100

const defaultSyncSchedule = "@every 30m"

// accountFetcher *client.Client 满足
type accountFetcher interface {
	GetMultipleAccounts(ctx context.Context, addresses []string) ([]client.AccountInfo, error)
}

// IdlSyncService 定时拉取链上 Anchor IDL，与内置错误码表合并后重新注册
type IdlSyncService struct {
	registry *errorcodes.Registry
	fetcher  accountFetcher
	programs []string
	timeout  time.Duration
	schedule string
	cron     *cron.Cron

	// baseline 启动时的内置表，每次同步都以它为底合并
	baseline map[string]*errorcodes.Protocol

	mu       sync.Mutex // 同步任务串行执行
	stopChan chan struct{}
	ctx      context.Context
	cancel   func(err error)
}

func NewIdlSyncService(cfg config.IdlSyncConfig, solana config.SolanaConfig, registry *errorcodes.Registry) *IdlSyncService {
	return newIdlSyncService(cfg, client.NewClient(solana.Endpoint), registry)
}

func newIdlSyncService(cfg config.IdlSyncConfig, fetcher accountFetcher, registry *errorcodes.Registry) *IdlSyncService {
	ctx, cancel := context.WithCancelCause(context.Background())

	baseline := make(map[string]*errorcodes.Protocol)
	for _, p := range registry.Protocols() {
		if !p.IsFramework() {
			baseline[p.ProgramID] = p
		}
	}

	programs := cfg.Programs
	if len(programs) == 0 {
		for _, p := range registry.Protocols() {
			if !p.IsFramework() {
				programs = append(programs, p.ProgramID)
			}
		}
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = defaultSyncSchedule
	}
	return &IdlSyncService{
		registry: registry,
		fetcher:  fetcher,
		programs: programs,
		timeout:  timeout,
		schedule: schedule,
		cron:     cron.New(),
		baseline: baseline,
		stopChan: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *IdlSyncService) Start() {
	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		logger.Errorf("[IdlSyncService] invalid schedule %q: %v", s.schedule, err)
		return
	}
	s.cron.Start()
	defer s.cron.Stop()
	go s.runScheduled()
	<-s.stopChan
}

func (s *IdlSyncService) Stop() {
	s.cancel(errors.New("IdlSyncService stop"))
	<-s.cron.Stop().Done()
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
}

func (s *IdlSyncService) runScheduled() {
	updated, err := s.SyncOnce()
	if err != nil {
		logger.Warnf("[IdlSyncService] 同步失败: %v", err)
		return
	}
	logger.Infof("[IdlSyncService] 同步完成，更新协议数: %d", updated)
}

// SyncOnce 执行一次同步，返回重新注册的协议数量
func (s *IdlSyncService) SyncOnce() (updated int, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[IdlSyncService] sync panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("sync panic: %v", r)
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	addresses := make([]string, 0, len(s.programs))
	programs := make([]string, 0, len(s.programs))
	for _, pid := range s.programs {
		addr, err := idl.Address(pid)
		if err != nil {
			logger.Warnf("[IdlSyncService] 跳过无效程序地址 %s: %v", pid, err)
			continue
		}
		addresses = append(addresses, addr)
		programs = append(programs, pid)
	}

	infos, err := s.fetchAccounts(addresses)
	if err != nil {
		return 0, err
	}

	for i, info := range infos {
		pid := programs[i]
		if len(info.Data) == 0 {
			metrics.RecordIdlSync("missing")
			continue
		}
		if err := s.apply(pid, info.Data); err != nil {
			metrics.RecordIdlSync("invalid")
			logger.Warnf("[IdlSyncService] 解析 IDL 失败: program=%s err=%v", pid, err)
			continue
		}
		metrics.RecordIdlSync("updated")
		updated++
	}
	return updated, nil
}

// fetchAccounts 按 100 个一组并发请求，返回顺序与 addresses 一致
func (s *IdlSyncService) fetchAccounts(addresses []string) ([]client.AccountInfo, error) {
	infos := make([]client.AccountInfo, len(addresses))
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(addresses); start += maxAccountsPerRequest {
		end := min(start+maxAccountsPerRequest, len(addresses))
		g.Go(func() error {
			chunk, err := s.fetcher.GetMultipleAccounts(gctx, addresses[start:end])
			if err != nil {
				return fmt.Errorf("GetMultipleAccounts failed: %w", err)
			}
			if len(chunk) != end-start {
				return fmt.Errorf("返回账户数与请求不一致: got=%d want=%d", len(chunk), end-start)
			}
			copy(infos[start:end], chunk)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}

func (s *IdlSyncService) apply(programID string, data []byte) error {
	account, err := idl.DecodeAccount(data)
	if err != nil {
		return err
	}
	doc, err := idl.ParseDocument(account.JSON)
	if err != nil {
		return err
	}
	if len(doc.Errors) == 0 {
		return errors.New("idl has no errors section")
	}

	name, version := doc.Name, doc.Version
	var base map[uint32]errorcodes.ErrorInfo
	if p, ok := s.baseline[programID]; ok {
		name = p.Name
		base = p.Errors()
		if version == "" {
			version = p.Version
		}
	}
	if name == "" {
		name = programID
	}

	merged := errorcodes.MergeErrorTables(base, doc.Errors)
	s.registry.Register(errorcodes.NewProtocol(name, programID, version, errorcodes.ProtocolTypeProgram, merged))
	return nil
}
