package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/ChuLiYu/print-batcher/internal/cli"
)

func main() {
	if err := cli.BuildCLI().Execute(); err != nil {
		log.WithError(err).Fatal("printbatch failed")
	}
}
