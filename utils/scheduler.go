package utils

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartScheduler runs job on the given cron spec ("@every 10m", "0 3 * * *", ...) and returns
// the running scheduler so the caller can Stop it on shutdown.
func StartScheduler(spec string, job func()) (*cron.Cron, error) {
	logger := cron.PrintfLogger(zap.NewStdLog(Logger.Named("cron")))
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
