package worker

import (
	"log"
	"sync"
)

// Task 背景工作，例如縮圖產生或寄送郵件
type Task func()

// Pool 固定數量 goroutine 的工作池
type Pool interface {
	Submit(Task)
	Stop()
}

// NewPool 建立 n 個 worker，n<=0 時為 1
func NewPool(n int) Pool {
	if n <= 0 {
		n = 1
	}
	p := &pool{jobs: make(chan Task, n*4)}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				run(job)
			}
		}()
	}
	return p
}

// run 單一工作 panic 不影響其他工作
func run(job Task) {
	if job == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("背景工作失敗: %v", r)
		}
	}()
	job()
}

type pool struct {
	jobs chan Task
	wg   sync.WaitGroup
}

func (p *pool) Submit(t Task) {
	p.jobs <- t
}

// Stop 等待已送出的工作完成
func (p *pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

// Inline 在呼叫端直接執行，供 CLI 與測試使用
type Inline struct{}

func (Inline) Submit(t Task) { run(t) }
func (Inline) Stop()         {}
