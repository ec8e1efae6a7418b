package utils

import (
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParallelMap(t *testing.T) {
	// 测试空输入
	t.Run("empty input", func(t *testing.T) {
		result := ParallelMap([]int{}, 4, func(i int) int { return i * 2 })
		assert.Empty(t, result)
	})

	// 测试单元素输入
	t.Run("single input", func(t *testing.T) {
		result := ParallelMap([]int{42}, 4, func(i int) int { return i * 2 })
		assert.Equal(t, []int{84}, result)
	})

	// 测试多元素输入，确保顺序正确
	t.Run("multiple inputs with order", func(t *testing.T) {
		result := ParallelMap([]int{1, 2, 3, 4, 5}, 3, func(i int) int {
			time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
			return i * 2
		})
		assert.Equal(t, []int{2, 4, 6, 8, 10}, result)
	})

	// 测试并发上限
	t.Run("concurrency limit", func(t *testing.T) {
		input := make([]int, 60)
		var current, peak int32
		ParallelMap(input, 6, func(int) int {
			n := atomic.AddInt32(&current, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			return 0
		})
		assert.LessOrEqual(t, peak, int32(6))
		assert.GreaterOrEqual(t, peak, int32(2))
	})

	// workers <= 1 时串行
	t.Run("serial", func(t *testing.T) {
		result := ParallelMap([]string{"a", "b"}, 0, func(s string) string { return s + s })
		assert.Equal(t, []string{"aa", "bb"}, result)
	})
}

func TestPartitionHashBytes(t *testing.T) {
	b := make([]byte, 64)
	for i := range b {
		b[i] = byte(i * 7)
	}
	assert.Equal(t, uint32(0), PartitionHashBytes(b[:10], 8), "too short")
	assert.Equal(t, uint32(0), PartitionHashBytes(b, 1))
	assert.Equal(t, uint32(b[27])&7, PartitionHashBytes(b, 8))

	for i := 0; i < 100; i++ {
		b[7] = byte(i)
		assert.Less(t, PartitionHashBytes(b, 12), uint32(12))
	}
}
