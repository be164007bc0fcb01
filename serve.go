package main

import (
	"vtlayer/layer"
	"vtlayer/server"
)

func runServe(l *layer.VectorTileLayer) error {
	return server.New(l).Run(SafeExitInst.Context(), conf.Serve.Addr)
}
