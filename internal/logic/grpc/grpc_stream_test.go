package grpc

import (
	"testing"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obsidian-debug/internal/consts"
)

func TestBuildSubscribeRequest(t *testing.T) {
	programs := []string{consts.JupiterV6ProgramStr, consts.RaydiumCPMMProgramStr}
	req := buildSubscribeRequest(programs)

	require.Len(t, req.Blocks, 1)
	for _, f := range req.Blocks {
		assert.Equal(t, programs, f.AccountInclude)
		assert.True(t, f.GetIncludeTransactions())
		assert.False(t, f.GetIncludeAccounts())
		assert.False(t, f.GetIncludeEntries())
	}
	assert.Equal(t, pb.CommitmentLevel_CONFIRMED, req.GetCommitment())
}

func TestBlockLatencyMs(t *testing.T) {
	now := time.Unix(1746100002, 500_000_000)
	latency, ok := blockLatencyMs(&pb.SubscribeUpdateBlock{BlockTime: &pb.UnixTimestamp{Timestamp: 1746100000}}, now)
	require.True(t, ok)
	assert.Equal(t, int64(2500), latency)

	_, ok = blockLatencyMs(&pb.SubscribeUpdateBlock{}, now)
	assert.False(t, ok)
}
