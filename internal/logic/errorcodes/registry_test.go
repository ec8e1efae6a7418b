package errorcodes

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obsidian-debug/internal/consts"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewDefaultRegistry()
	require.NoError(t, err)
	return r
}

// 内置清单全部可加载，且框架协议不进入 programId 索引
func TestDefaultRegistryLoads(t *testing.T) {
	r := newTestRegistry(t)

	fw := r.Framework()
	require.NotNil(t, fw)
	assert.Equal(t, "Anchor", fw.Name)
	assert.True(t, fw.IsFramework())

	_, indexed := r.ProtocolByProgram(consts.FrameworkProgramWildcard)
	assert.False(t, indexed)

	for _, id := range []string{
		consts.TokenProgramStr,
		consts.TokenProgram2022Str,
		consts.JupiterV6ProgramStr,
		consts.OrcaWhirlpoolProgramStr,
		consts.RaydiumV4ProgramStr,
		consts.RaydiumCLMMProgramStr,
		consts.RaydiumCPMMProgramStr,
		consts.TokenMetadataProgramStr,
		consts.PumpFunProgramStr,
		consts.MeteoraDLMMProgramStr,
		consts.AssociatedTokenProgramStr,
		consts.SystemProgramStr,
	} {
		p, ok := r.ProtocolByProgram(id)
		if assert.True(t, ok, id) {
			assert.Greater(t, p.ErrorCount(), 0, p.Name)
			known, _ := consts.KnownProgramName(id)
			assert.Equal(t, known, p.Name, "protocol name must match the display name")
		}
	}
}

// 程序表优先于框架表
func TestResolvePrecedence(t *testing.T) {
	r := newTestRegistry(t)
	r.Register(NewProtocol("Fake", "P1", "0.0.1", ProtocolTypeProgram, map[uint32]ErrorInfo{
		100: {Code: 100, Name: "FakeHundred", Description: "fake protocol error 100"},
	}))

	got := r.Resolve("P1", 100)
	require.NotNil(t, got)
	assert.Equal(t, "FakeHundred", got.Name)
	assert.Equal(t, "fake protocol error 100", got.Description)
	assert.Equal(t, SourceProgramSpecific, got.Source.Kind)
	assert.Equal(t, "Fake", got.Source.ProgramName)

	// 表中没有的码落到 Anchor
	fallback := r.Resolve("P1", 3012)
	require.NotNil(t, fallback)
	assert.Equal(t, "AccountNotInitialized", fallback.Name)
	assert.Equal(t, SourceAnchorFramework, fallback.Source.Kind)
	assert.Equal(t, "P1", fallback.Source.ProgramID)
	assert.Empty(t, fallback.Source.ProgramName)

	// 未注册程序同样落到 Anchor
	anchor := r.Resolve("Unregistered1111111111111111111111111111111", 100)
	require.NotNil(t, anchor)
	assert.Equal(t, "InstructionMissing", anchor.Name)
}

func TestResolveUnknownIsNil(t *testing.T) {
	r := newTestRegistry(t)
	assert.Nil(t, r.Resolve(consts.SystemProgramStr, 999999))
	assert.Nil(t, r.Resolve("not-base58!", 999999))
	assert.Nil(t, NewRegistry().Resolve(consts.TokenProgramStr, 1))
}

// Anchor 回退只看表内是否存在，不做区间过滤
func TestResolveFrameworkMembershipOnly(t *testing.T) {
	r := NewRegistry()
	r.Register(NewProtocol("Anchor", consts.FrameworkProgramWildcard, "x", ProtocolTypeFramework, map[uint32]ErrorInfo{
		7: {Code: 7, Name: "OutOfRange"},
	}))
	got := r.Resolve("Anything", 7)
	require.NotNil(t, got)
	assert.Equal(t, "OutOfRange", got.Name)
	assert.Nil(t, r.Resolve("Anything", 2000))
}

func TestResolveScenarios(t *testing.T) {
	r := newTestRegistry(t)

	t.Run("jupiter slippage", func(t *testing.T) {
		got := r.Resolve(consts.JupiterV6ProgramStr, 6001)
		require.NotNil(t, got)
		assert.Equal(t, "SlippageToleranceExceeded", got.Name)
		assert.Equal(t, "Slippage Protection", got.Category)
		assert.NotEmpty(t, got.DebugTip)
		assert.Equal(t, SourceProgramSpecific, got.Source.Kind)
		assert.Equal(t, "Jupiter Aggregator v6", got.Source.ProgramName)
	})

	t.Run("spl token insufficient funds", func(t *testing.T) {
		got := r.Resolve(consts.TokenProgramStr, 1)
		require.NotNil(t, got)
		assert.Equal(t, "InsufficientFunds", got.Name)
		assert.Equal(t, SourceTokenProgram, got.Source.Kind)
		assert.Equal(t, consts.ProtocolSPLToken, got.Source.ProgramName)
	})

	t.Run("token-2022 shares token tags", func(t *testing.T) {
		got := r.Resolve(consts.TokenProgram2022Str, 36)
		require.NotNil(t, got)
		assert.Equal(t, "NoMemo", got.Name)
		assert.Equal(t, SourceTokenProgram, got.Source.Kind)
	})

	t.Run("codama message field", func(t *testing.T) {
		got := r.Resolve(consts.TokenMetadataProgramStr, 7)
		require.NotNil(t, got)
		assert.Equal(t, "UpdateAuthorityIncorrect", got.Name)
		assert.Equal(t, "Update Authority given does not match", got.Description)
	})

	t.Run("program table miss falls back to anchor", func(t *testing.T) {
		got := r.Resolve(consts.SystemProgramStr, 100)
		require.NotNil(t, got)
		assert.Equal(t, "InstructionMissing", got.Name)
		assert.Equal(t, SourceAnchorFramework, got.Source.Kind)
	})
}

func TestResolveDeterministic(t *testing.T) {
	r := newTestRegistry(t)
	first := r.Resolve(consts.OrcaWhirlpoolProgramStr, 6036)
	require.NotNil(t, first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.Resolve(consts.OrcaWhirlpoolProgramStr, 6036))
	}
}

// 重复加载同一清单不产生重复协议
func TestLoadDefaultsIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	before := len(r.Protocols())

	require.NoError(t, LoadDefaults(r))
	require.NoError(t, LoadDefaults(r))

	assert.Len(t, r.Protocols(), before)
	got := r.Resolve(consts.JupiterV6ProgramStr, 6001)
	require.NotNil(t, got)
	assert.Equal(t, "SlippageToleranceExceeded", got.Name)
}

func TestRegisterOverwrite(t *testing.T) {
	r := NewRegistry()
	r.Register(NewProtocol("Foo", "A1", "1", ProtocolTypeProgram, map[uint32]ErrorInfo{1: {Code: 1, Name: "Old"}}))

	t.Run("same name new program id", func(t *testing.T) {
		r.Register(NewProtocol("Foo", "A2", "2", ProtocolTypeProgram, map[uint32]ErrorInfo{1: {Code: 1, Name: "New"}}))
		_, ok := r.ProtocolByProgram("A1")
		assert.False(t, ok, "old program id must be unindexed")
		got := r.Resolve("A2", 1)
		require.NotNil(t, got)
		assert.Equal(t, "New", got.Name)
	})

	t.Run("program id taken by another name", func(t *testing.T) {
		r.Register(NewProtocol("Bar", "A2", "1", ProtocolTypeProgram, map[uint32]ErrorInfo{1: {Code: 1, Name: "Bar1"}}))
		_, ok := r.Protocol("Foo")
		assert.False(t, ok)
		p, ok := r.ProtocolByProgram("A2")
		require.True(t, ok)
		assert.Equal(t, "Bar", p.Name)
	})

	t.Run("framework replaced", func(t *testing.T) {
		r.Register(NewProtocol("FwA", "*", "1", ProtocolTypeFramework, nil))
		r.Register(NewProtocol("FwB", "*", "1", ProtocolTypeFramework, nil))
		assert.Equal(t, "FwB", r.Framework().Name)
		_, ok := r.Protocol("FwA")
		assert.False(t, ok)
	})

	r.Register(nil)
}

func TestProgramName(t *testing.T) {
	r := newTestRegistry(t)
	assert.Equal(t, "Jupiter Aggregator v6", r.ProgramName(consts.JupiterV6ProgramStr))
	assert.Equal(t, "Compute Budget", r.ProgramName(consts.ComputeBudgetProgramStr))
	assert.Equal(t, "Some1111111111111111111111111111111111111", r.ProgramName("Some1111111111111111111111111111111111111"))
}

// 运行时刷新与并发读互不阻塞出错
func TestRegistryConcurrentAccess(t *testing.T) {
	r := newTestRegistry(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.Resolve(consts.TokenProgramStr, 1)
				_ = r.ProgramName(consts.RaydiumV4ProgramStr)
			}
		}()
		go func() {
			defer wg.Done()
			_ = LoadDefaults(r)
		}()
	}
	wg.Wait()
	assert.NotNil(t, r.Resolve(consts.TokenProgramStr, 1))
}

func TestNewProtocolCopiesTable(t *testing.T) {
	src := map[uint32]ErrorInfo{1: {Code: 1, Name: "A"}}
	p := NewProtocol("P", "X", "1", "", src)
	src[2] = ErrorInfo{Code: 2, Name: "B"}

	assert.Equal(t, 1, p.ErrorCount())
	assert.Equal(t, ProtocolTypeProgram, p.Type)

	out := p.Errors()
	out[3] = ErrorInfo{Code: 3}
	_, ok := p.Lookup(3)
	assert.False(t, ok)
}
