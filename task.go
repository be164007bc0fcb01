package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/teris-io/shortid"
	pb "gopkg.in/cheggaaa/pb.v1"

	"vtlayer/layer"
	"vtlayer/mbtiles"
	"vtlayer/tile"
)

// outputMBTiles 输出为瓦片库, 否则按 z/x/y.pbf 写文件
const outputMBTiles = "mbtiles"

// Level 级别&瓦片区间
type Level struct {
	Zoom  int
	Range tile.Range
	Count int64
}

func (l Level) String() string {
	r := l.Range
	return fmt.Sprintf("zoom %d, columns %d-%d, rows %d-%d", l.Zoom, r.StartColumn, r.EndColumn, r.StartRow, r.EndRow)
}

// runPrefetch 预取配置范围内的瓦片
func runPrefetch(l *layer.VectorTileLayer) error {
	start := time.Now()

	bound, err := prefetchBound(conf.Prefetch.Bounds, l.Extent())
	if err != nil {
		return err
	}
	levels := prefetchLevels(bound, conf.Prefetch.Min, conf.Prefetch.Max, l.SourceMinZoom(), l.SourceMaxZoom())

	InitBreakPoint(l.Name())
	task := NewTask(l, levels)
	if task == nil {
		log.Warnf("no tiles to prefetch for layer %s", l.Name())
		return nil
	}
	// 注册安全退出
	SafeExitInst.Register(task.AbortFun)

	if err := task.Download(); err != nil {
		return err
	}

	secs := time.Since(start).Seconds()
	log.Printf("\n%.3fs finished...", secs)
	return nil
}

// prefetchLevels 级别截断到数据源范围
func prefetchLevels(bound orb.Bound, min, max, sourceMin, sourceMax int) []Level {
	if min < sourceMin {
		min = sourceMin
	}
	if max > sourceMax {
		max = sourceMax
	}
	var levels []Level
	for z := min; z <= max; z++ {
		r := tile.FromWebMercator(z).TileRangeFromBound(bound)
		if !r.IsValid() {
			continue
		}
		levels = append(levels, Level{Zoom: z, Range: r, Count: r.Count()})
	}
	return levels
}

// Task 预取任务
type Task struct {
	ID          string
	Name        string
	File        string
	Levels      []Level
	Layer       *layer.VectorTileLayer
	Total       int64
	workerCount int
	timeDelay   int
	bufSize     int
	db          *sql.DB
	tileWG      sync.WaitGroup
	saveWG      sync.WaitGroup
	abort       chan struct{}
	workers     chan struct{}
	savePipe    chan Tile
}

// NewTask 创建预取任务
func NewTask(l *layer.VectorTileLayer, levels []Level) *Task {
	if len(levels) == 0 {
		return nil
	}
	id, _ := shortid.Generate()

	task := Task{
		ID:     id,
		Name:   l.Name(),
		Levels: levels,
		Layer:  l,
	}
	for _, lv := range levels {
		log.Printf("zoom: %d, tiles: %d \n", lv.Zoom, lv.Count)
		task.Total += lv.Count
	}

	task.workerCount = conf.Task.Workers
	if task.workerCount < 1 {
		task.workerCount = 1
	}
	task.timeDelay = conf.Task.Timedelay
	task.bufSize = conf.Task.BufSize

	task.abort = make(chan struct{}, 1)
	task.workers = make(chan struct{}, task.workerCount)
	task.savePipe = make(chan Tile, task.bufSize)

	return &task
}

// SetupFile 创建输出目录或瓦片库
func (task *Task) SetupFile() error {
	outdir := conf.Output.Directory
	if err := os.MkdirAll(outdir, os.ModePerm); err != nil {
		return err
	}
	if conf.Output.Format != outputMBTiles {
		task.File = outdir
		return nil
	}
	task.File = filepath.Join(outdir, task.Name+".mbtiles")
	metadata := map[string]string{
		"name":    task.Name,
		"format":  tile.PBF,
		"minzoom": strconv.Itoa(task.Levels[0].Zoom),
		"maxzoom": strconv.Itoa(task.Levels[len(task.Levels)-1].Zoom),
	}
	if e := task.Layer.Extent(); !e.IsEmpty() {
		w := tile.MercatorBoundToWGS84(e)
		metadata["bounds"] = fmt.Sprintf("%f,%f,%f,%f", w.Min.X(), w.Min.Y(), w.Max.X(), w.Max.Y())
	}
	db, err := mbtiles.Create(task.File, metadata)
	if err != nil {
		return err
	}
	task.db = db
	return nil
}

// AbortFun 结束任务
func (task *Task) AbortFun() {
	select {
	case task.abort <- struct{}{}:
	default:
	}
}

// Download 开启预取任务
func (task *Task) Download() error {
	if err := task.SetupFile(); err != nil {
		return err
	}
	task.saveWG.Add(1)
	go task.savePipeline()

	for _, lv := range task.Levels {
		if !task.downloadLevel(lv) {
			break
		}
	}
	close(task.savePipe)
	task.saveWG.Wait()
	if task.db != nil {
		return task.db.Close()
	}
	return nil
}

// savePipeline 单协程写入, 瓦片库不支持并发写
func (task *Task) savePipeline() {
	defer task.saveWG.Done()
	for t := range task.savePipe {
		if err := task.saveTile(t); err != nil {
			log.Errorf("save %s tile error ~ %s", t.T, err)
			continue
		}
		BreakPointInst.SetSuccessed(t.T)
	}
}

// saveTile 保存瓦片
func (task *Task) saveTile(t Tile) error {
	if task.db != nil {
		return mbtiles.InsertTile(task.db, t.T.Zoom, t.T.Column, t.T.Row, t.C)
	}
	return saveToFiles(t, task.File)
}

// tileFetcher 瓦片加载器
func (task *Task) tileFetcher(a tile.Address) {
	start := time.Now()
	//workers完成并清退
	defer func() {
		task.tileWG.Done()
		<-task.workers
	}()

	body := task.Layer.GetRawTile(SafeExitInst.Context(), a)
	if len(body) == 0 {
		log.Debugf("nil tile %s ~", a)
		return
	}
	task.savePipe <- Tile{T: a, C: body}

	cost := time.Since(start).Milliseconds()
	log.Debugf("tile(z:%d, x:%d, y:%d), %dms , %.2f kb ...\n", a.Zoom, a.Column, a.Row, cost, float32(len(body))/1024.0)
}

// downloadLevel 下载指定层级, 任务取消时返回 false
func (task *Task) downloadLevel(lv Level) bool {
	log.Infof("Task level: %s starting", lv)
	bar := pb.New64(lv.Count).Prefix(fmt.Sprintf("Zoom %d : ", lv.Zoom)).Postfix("\n")
	bar.SetRefreshRate(time.Second)
	bar.Start()

	var tilelist = make(chan tile.Address, task.bufSize)
	go lv.Range.Channel(lv.Zoom, tilelist)

	canceled := false
	for a := range tilelist {
		// 如果已经在成功列表里
		if BreakPointInst.IsSuccessed(a) {
			log.Debugf("tile %s already fetched, skip", a)
			bar.Increment()
			continue
		}
		select {
		// 向队列发送数据
		case task.workers <- struct{}{}:
			bar.Increment()
			//设置请求发送间隔时间
			time.Sleep(time.Duration(task.timeDelay) * time.Millisecond)
			task.tileWG.Add(1)
			go task.tileFetcher(a)
		case <-task.abort:
			log.Infof("Task %s got canceled.", task.Name)
			canceled = true
		case <-SafeExitInst.Context().Done():
			canceled = true
		}
		if canceled {
			go func() {
				for range tilelist {
				}
			}()
			break
		}
	}
	//等待该层结束
	task.tileWG.Wait()
	bar.FinishPrint(fmt.Sprintf("Task %s Zoom %d finished ~", task.ID, lv.Zoom))
	return !canceled
}
