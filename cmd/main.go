package main

import (
	_ "github.com/ClickHouse/clickhouse-go"
	"github.com/coinsurf-com/affiliate/pkg/server"
	"github.com/jessevdk/go-flags"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	var config server.Config

	parser := flags.NewParser(&config, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, os.Interrupt)

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:      true,
		DisableTimestamp: false,
		FullTimestamp:    true,
	})

	logger.SetLevel(logrus.InfoLevel)
	if config.Debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger.WithField("cold_wallet", config.ColdWallet).Info("Starting affiliate payouts...")
	defer logger.Info("Stopping...")

	err := server.Listen(signals, &config, logger)
	if err != nil {
		logger.Error("failed to listen: " + err.Error())
	}

	signal.Stop(signals)
	close(signals)
}
