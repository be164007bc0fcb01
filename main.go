package main

func main() {
	// 初始化控制台
	InitFlag()
	// 开始安全退出任务
	InitSafeExit()
	// 初始化配置
	InitConf(configPath)
	// 初始化日志
	InitLog()
	// 初始化图层
	l := InitLayer()

	var err error
	switch action {
	case "info":
		err = runInfo(l)
	case "tile":
		err = runTile(l)
	case "prefetch":
		err = runPrefetch(l)
	case "serve":
		err = runServe(l)
	default:
		log.Fatalf("unknown action %q", action)
	}
	SafeExitInst.Cleanup()
	if err != nil {
		log.Fatalf("%s failed, details: %s", action, err)
	}
}
