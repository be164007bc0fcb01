package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"vtlayer/loader"
)

var conf *Conf

type Conf struct {
	App struct {
		Version string `toml:"version"`
		Title   string `toml:"title"`
	} `toml:"app"`
	Output struct {
		Format         string `toml:"format"`
		Directory      string `toml:"directory"`
		LogDir         string `toml:"logDir"`
		OutputTerminal bool   `toml:"outputTerminal"`
	} `toml:"output"`
	Layer struct {
		Name    string `toml:"name"`
		Source  string `toml:"source"`
		Project string `toml:"project"`
	} `toml:"layer"`
	HTTP struct {
		Timeout   int    `toml:"timeout"`
		UserAgent string `toml:"userAgent"`
	} `toml:"http"`
	MBTiles struct {
		Driver string `toml:"driver"`
	} `toml:"mbtiles"`
	Cache struct {
		Kind      string `toml:"kind"`
		Size      int    `toml:"size"`
		RedisAddr string `toml:"redisAddr"`
		TTL       int    `toml:"ttl"`
	} `toml:"cache"`
	Task struct {
		Workers   int `toml:"workers"`
		Timedelay int `toml:"timedelay"`
		BufSize   int `toml:"bufSize"`
	} `toml:"task"`
	Prefetch struct {
		Min    int    `toml:"min"`
		Max    int    `toml:"max"`
		Bounds string `toml:"bounds"`
	} `toml:"prefetch"`
	BreakPoint struct {
		SaveFilePath string `toml:"saveFilePath"`
	} `toml:"breakPoint"`
	Serve struct {
		Addr string `toml:"addr"`
	} `toml:"serve"`
	Auth []loader.Credential `toml:"auth"`
}

// InitConf 初始化配置
func InitConf(cfgFile string) {
	if cfgFile == "" {
		cfgFile = "conf.toml"
	}
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("config file(%s) not exist", cfgFile)
		os.Exit(1)
	}
	viper.SetConfigType("toml")
	viper.SetConfigFile(cfgFile)
	viper.AutomaticEnv() // read in environment variables that match
	err := viper.ReadInConfig()
	if err != nil {
		fmt.Printf("read config file(%s) error, details: %s\n", viper.ConfigFileUsed(), err)
	}
	setDefaults()

	err = viper.Unmarshal(&conf)
	if err != nil {
		panic("配置文件解析失败")
	}
	if sourceOverride != "" {
		conf.Layer.Source = sourceOverride
	}
}

func setDefaults() {
	viper.SetDefault("app.version", "v 0.1.0")
	viper.SetDefault("app.title", "Vector Tile Layer")
	viper.SetDefault("output.format", "file")
	viper.SetDefault("output.directory", "output")
	viper.SetDefault("output.outputTerminal", true)
	viper.SetDefault("layer.name", "vectortiles")
	viper.SetDefault("http.timeout", 30)
	viper.SetDefault("http.userAgent", "vtlayer/0.1.0")
	viper.SetDefault("mbtiles.driver", "sqlite3")
	viper.SetDefault("cache.kind", "none")
	viper.SetDefault("cache.size", 1024)
	viper.SetDefault("cache.redisAddr", "127.0.0.1:6379")
	viper.SetDefault("cache.ttl", 3600)
	viper.SetDefault("task.workers", 4)
	viper.SetDefault("task.timedelay", 0)
	viper.SetDefault("task.bufSize", 64)
	viper.SetDefault("prefetch.min", 0)
	viper.SetDefault("prefetch.max", 4)
	viper.SetDefault("breakPoint.saveFilePath", "breakpoint")
	viper.SetDefault("serve.addr", ":8080")
}
