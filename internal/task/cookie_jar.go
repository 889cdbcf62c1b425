package task

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const cookieJarTaskName = "cookie_jar_save"

type cookieJarSaver interface {
	Save() error
}

// SaveCookieJar writes jar to its backing file.
func SaveCookieJar(jar cookieJarSaver) Job {
	return func(context.Context) error {
		return jar.Save()
	}
}

// NewCookieJarPersister saves jar every interval and once more on Stop.
func NewCookieJarPersister(jar cookieJarSaver, interval time.Duration, logger *zap.Logger) *Scheduler {
	return NewScheduler(cookieJarTaskName, interval, SaveCookieJar(jar), logger).WithFinalRun()
}
