// entry point to app :)
package main

import (
	"github.com/ds124wfegd/fleet-insight/config"
	"github.com/ds124wfegd/fleet-insight/internal/appServer"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	viperInstance, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}

	logrus.WithFields(logrus.Fields{
		"app":       cfg.App.Name,
		"version":   cfg.Server.AppVersion,
		"driver":    cfg.Warehouse.Driver,
		"scheduler": cfg.Scheduler.Enabled,
	}).Info("Configuration loaded")
	appServer.NewServer(cfg)
}
