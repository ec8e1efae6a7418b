package errorcodes

import (
	"sort"
	"sync"

	"obsidian-debug/internal/consts"
	"obsidian-debug/pkg/logger"
)

// Registry 错误码注册表：协议名 → 协议、programId → 协议，以及至多一个框架级协议。
// 由调用方显式构造并注入，启动时填充一次，之后以读为主；
// 重复注册按协议名 / programId 覆盖（幂等），供 IDL 同步服务运行时刷新。
type Registry struct {
	mu        sync.RWMutex
	byName    map[string]*Protocol
	byProgram map[string]*Protocol
	framework *Protocol
}

func NewRegistry() *Registry {
	return &Registry{
		byName:    make(map[string]*Protocol),
		byProgram: make(map[string]*Protocol),
	}
}

// Register 注册协议。
//   - 同名协议已存在时整体替换，旧 programId 的索引一并移除；
//   - 另一个协议已占用该 programId 时，被占用方从注册表中移除，保证一个 programId 只对应一个协议；
//   - framework 类型不进入 programId 索引，替换当前框架协议。
func (r *Registry) Register(p *Protocol) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byName[p.Name]; ok {
		r.unindexLocked(old)
	}

	if p.IsFramework() {
		if r.framework != nil && r.framework.Name != p.Name {
			logger.Warnf("[Registry] 框架协议 %s 被 %s 替换", r.framework.Name, p.Name)
			delete(r.byName, r.framework.Name)
		}
		r.framework = p
		r.byName[p.Name] = p
		return
	}

	if holder, ok := r.byProgram[p.ProgramID]; ok && holder.Name != p.Name {
		logger.Warnf("[Registry] programId %s 从协议 %s 改绑到 %s", p.ProgramID, holder.Name, p.Name)
		delete(r.byName, holder.Name)
	}
	r.byName[p.Name] = p
	r.byProgram[p.ProgramID] = p
}

func (r *Registry) unindexLocked(old *Protocol) {
	if old.IsFramework() {
		if r.framework == old {
			r.framework = nil
		}
		return
	}
	if cur, ok := r.byProgram[old.ProgramID]; ok && cur == old {
		delete(r.byProgram, old.ProgramID)
	}
}

// Resolve 按优先级解析错误码，命中即返回：
//  1. programId 对应的协议表；
//  2. 框架协议（Anchor）表，仅按表内是否存在判断，不做数值区间过滤；
//  3. 都未命中返回 nil，调用方按“未知错误”处理，不得臆造名称。
func (r *Registry) Resolve(programID string, code uint32) *ResolvedError {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.byProgram[programID]; ok {
		if info, found := p.Lookup(code); found {
			kind := SourceProgramSpecific
			if isTokenProtocol(p.Name) {
				kind = SourceTokenProgram
			}
			return &ResolvedError{
				ErrorInfo: info,
				Source:    ErrorSource{Kind: kind, ProgramID: programID, ProgramName: p.Name},
			}
		}
	}

	if r.framework != nil {
		if info, found := r.framework.Lookup(code); found {
			return &ResolvedError{
				ErrorInfo: info,
				Source:    ErrorSource{Kind: SourceAnchorFramework, ProgramID: programID},
			}
		}
	}
	return nil
}

func isTokenProtocol(name string) bool {
	return name == consts.ProtocolSPLToken || name == consts.ProtocolToken2022
}

// ProgramName 返回程序友好名称：已注册协议名 → 内置程序名 → 原始地址
func (r *Registry) ProgramName(programID string) string {
	r.mu.RLock()
	p, ok := r.byProgram[programID]
	r.mu.RUnlock()
	if ok {
		return p.Name
	}
	if name, ok := consts.KnownProgramName(programID); ok {
		return name
	}
	return programID
}

// Protocol 按协议名查找
func (r *Registry) Protocol(name string) (*Protocol, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// ProtocolByProgram 按 programId 查找（不含框架协议）
func (r *Registry) ProtocolByProgram(programID string) (*Protocol, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byProgram[programID]
	return p, ok
}

// Framework 返回当前框架协议，可能为 nil
func (r *Registry) Framework() *Protocol {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.framework
}

// Protocols 返回按名称排序的全部协议
func (r *Registry) Protocols() []*Protocol {
	r.mu.RLock()
	out := make([]*Protocol, 0, len(r.byName))
	for _, p := range r.byName {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
