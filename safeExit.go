package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var SafeExitInst *SafeExit

func InitSafeExit() {
	ctx, cancel := context.WithCancel(context.Background())
	SafeExitInst = &SafeExit{ctx: ctx, cancel: cancel}
	go SafeExitInst.ListenSignal()
}

// SafeExit 收到信号后取消上下文并按注册逆序执行清理
type SafeExit struct {
	ctx    context.Context
	cancel context.CancelFunc
	funcs  []func()
	mu     sync.Mutex
}

// Context 收到退出信号时取消
func (s *SafeExit) Context() context.Context {
	return s.ctx
}

func (s *SafeExit) Register(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.funcs = append(s.funcs, f)
}

// Cleanup 执行清理但不退出进程
func (s *SafeExit) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	for i := len(s.funcs) - 1; i >= 0; i-- {
		s.funcs[i]()
	}
	s.funcs = nil
}

func (s *SafeExit) exit() {
	s.Cleanup()
	os.Exit(0)
}

func (s *SafeExit) ListenSignal() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	for sig := range sigs {
		fmt.Printf("收到系统信号 %d, 正在停止任务, 请稍后\n", sig)
		s.exit()
	}
}
