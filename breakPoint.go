package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"vtlayer/tile"
)

var BreakPointInst *BreakPoint

// InitBreakPoint 打开图层的断点文件, 每行一个已完成的 z/x/y
func InitBreakPoint(name string) {
	dir := conf.BreakPoint.SaveFilePath
	os.MkdirAll(dir, os.ModePerm)
	filapath := filepath.Join(dir, fmt.Sprintf("%s.log", name))
	file, err := os.OpenFile(filapath, os.O_APPEND|os.O_CREATE|os.O_RDWR, os.ModePerm)
	if err != nil {
		fmt.Println(err)
		panic("break point file open is error")
	}

	// 获取断点记录
	successMap := getBackPoint(file)
	log.Infof("break point %s: %d tiles done", filapath, len(successMap))

	BreakPointInst = newBreakPoint(file, successMap, conf.Task.Workers)
	SafeExitInst.Register(BreakPointInst.BreakPointSafeFun)

	// 开始断点任务
	go BreakPointInst.Start()
}

// 初始化断点文件
func getBackPoint(r io.Reader) map[string]struct{} {
	res := make(map[string]struct{})

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			res[line] = struct{}{}
		}
	}
	return res
}

type BreakPoint struct {
	w          io.WriteCloser
	saveChan   chan tile.Address
	successMap map[string]struct{}
	done       chan struct{}
	mu         sync.Mutex
	isClose    bool
}

func newBreakPoint(w io.WriteCloser, successMap map[string]struct{}, buf int) *BreakPoint {
	return &BreakPoint{
		w:          w,
		saveChan:   make(chan tile.Address, buf),
		successMap: successMap,
		done:       make(chan struct{}),
	}
}

func (b *BreakPoint) IsSuccessed(a tile.Address) bool {
	_, ok := b.successMap[a.String()]
	return ok
}

func (b *BreakPoint) SetSuccessed(a tile.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isClose {
		return
	}
	b.saveChan <- a
}

func (b *BreakPoint) Start() {
	defer close(b.done)
	for a := range b.saveChan {
		fmt.Fprintln(b.w, a.String())
	}
}

// BreakPointSafeFun 写完已排队的记录后关闭文件
func (b *BreakPoint) BreakPointSafeFun() {
	b.mu.Lock()
	if !b.isClose {
		b.isClose = true
		close(b.saveChan)
	}
	b.mu.Unlock()
	<-b.done
	b.w.Close()
	log.Infof("断点记录任务已安全退出")
}
