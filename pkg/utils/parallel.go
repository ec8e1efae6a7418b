package utils

import "golang.org/x/sync/errgroup"

// ParallelMap 以最多 workers 个协程并发执行 fn，结果顺序与输入一致
func ParallelMap[T, R any](items []T, workers int, fn func(T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}
	// 单任务或单协程直接串行处理
	if workers <= 1 || len(items) == 1 {
		for i, item := range items {
			results[i] = fn(item)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			results[i] = fn(item)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
