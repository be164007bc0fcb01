package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	hf             bool
	configPath     string
	logLevel       string
	sourceOverride string
	action         string
	tileAddress    string
)

func InitFlag() {
	flag.BoolVar(&hf, "h", false, "this help")
	flag.StringVar(&configPath, "c", "./conf/conf.toml", "set config `file`")
	flag.StringVar(&logLevel, "l", "info", "set log level (default: info)")
	flag.StringVar(&sourceOverride, "s", "", "override layer `source` connection string")
	flag.StringVar(&action, "a", "info", "action: info | tile | prefetch | serve")
	flag.StringVar(&tileAddress, "t", "0/0/0", "tile `z/x/y` for the tile action")
	flag.Usage = usage
	flag.Parse()

	if hf {
		flag.Usage()
		os.Exit(0)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `vtlayer version: vtlayer/v0.1.0
Usage: vtlayer [-h] [-c filename] [-l logLevel] [-s source] [-a action] [-t z/x/y]
`)
	flag.PrintDefaults()
}
