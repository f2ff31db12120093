package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/Valmach/HashMapper/pkg/config"
	"github.com/Valmach/HashMapper/pkg/diskmap"
)

// setupCloseHandler flushes and unmaps m's backing files on SIGINT/SIGTERM.
func setupCloseHandler(m *diskmap.Map) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("closehandler invoked")
		m.Close()
		os.Exit(0)
	}()
}

func main() {
	var promptFlag = flag.Bool("c", true, "use prompt?")
	var dirFlag = flag.String("dir", config.DataDir, "base folder for the map's backing files")
	var tableLenFlag = flag.Int64("tablelen", 0, "initial primary file length in bytes (0 picks a small default)")
	var thresholdFlag = flag.Float64("loadthreshold", 0, "load factor that triggers a rehash (0 picks the default)")
	flag.Parse()

	opts := diskmap.Options{
		BaseFolderLocation:       *dirFlag,
		InitialPrimaryFileLength: *tableLenFlag,
		LoadRehashThreshold:      *thresholdFlag,
	}
	m, err := diskmap.Open(opts)
	if err != nil {
		panic(err)
	}
	defer m.Close()
	setupCloseHandler(m)

	r := diskmap.Repl(m, opts)
	prompt := config.GetPrompt(*promptFlag)
	r.Run(uuid.New(), prompt, nil, nil)
}
