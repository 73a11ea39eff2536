// Package scheduler は固定間隔でジョブを実行する軽量なスケジューラを提供します。
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Job は1tick分の処理です。エラーはログに記録されるだけで伝播しません。
type Job func(ctx context.Context) error

// Scheduler は固定間隔でジョブを起動します。
// 前回のtickが実行中の場合、新しいtickは開始せずスキップします
// （取得が遅いときにtickが無制限に重なるのを防ぐため）。
// ジョブのエラーやパニックはプロセスを落とさず、次のtickは前のtickの
// 失敗と無関係に実行されます。
type Scheduler struct {
	name     string
	interval time.Duration
	job      Job

	running atomic.Bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// New は新しいSchedulerを作成します。
func New(name string, interval time.Duration, job Job) *Scheduler {
	return &Scheduler{name: name, interval: interval, job: job}
}

// Start はスケジューラのループをバックグラウンドで開始します。
// ctxのキャンセルまたはStopで停止します。
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop はループを停止し、実行中のtickの完了を待ちます。
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick はジョブを別ゴルーチンで起動します。前回分がまだ実行中であれば
// 何もせずスキップします。
func (s *Scheduler) tick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		slog.Warn("previous run still in progress, skipping tick", "job", s.name)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		defer func() {
			if r := recover(); r != nil {
				slog.Error("job panicked", "job", s.name, "panic", r)
			}
		}()

		if err := s.job(ctx); err != nil {
			slog.Error("job failed", "job", s.name, "error", err)
		}
	}()
}
