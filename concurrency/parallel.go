package concurrency

import (
	"context"
	"sync"
)

// ParallelExecutor 并行执行器
type ParallelExecutor struct {
	maxWorkers int
}

// NewParallelExecutor 创建并行执行器，maxWorkers 小于 1 时按 1 处理
func NewParallelExecutor(maxWorkers int) *ParallelExecutor {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &ParallelExecutor{
		maxWorkers: maxWorkers,
	}
}

// Workers 实际使用的 worker 数上限
func (p *ParallelExecutor) Workers() int {
	return p.maxWorkers
}

// Execute 并行执行 n 个任务，返回按下标排列的错误。
// ctx 取消后尚未开始的任务直接返回 ctx.Err()。
func (p *ParallelExecutor) Execute(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []error {
	if n <= 0 {
		return nil
	}

	// 如果任务数少于 worker 数，调整
	workers := min(p.maxWorkers, n)

	queue := make(chan int, n)
	results := make([]error, n)
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range queue {
				if err := ctx.Err(); err != nil {
					results[index] = err
					continue
				}
				results[index] = fn(ctx, index)
			}
		}()
	}

	for i := range n {
		queue <- i
	}
	close(queue)

	wg.Wait()
	return results
}

// FirstError 返回第一个非 nil 的错误
func FirstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
