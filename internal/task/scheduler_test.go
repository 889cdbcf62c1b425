package task

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	cookiejar "github.com/juju/persistent-cookiejar"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	testSchedulerInterval = 10 * time.Millisecond
	testLongInterval      = time.Hour
	testSchedulerTimeout  = 2 * time.Second
)

func TestNewSchedulerDefaultsInterval(testingT *testing.T) {
	scheduler := NewScheduler("job", 0, func(context.Context) error { return nil }, nil)
	require.Equal(testingT, defaultInterval, scheduler.interval)
}

func TestSchedulerRunsOnInterval(testingT *testing.T) {
	var runCount int64
	scheduler := NewScheduler("job", testSchedulerInterval, func(context.Context) error {
		atomic.AddInt64(&runCount, 1)
		return nil
	}, nil)

	scheduler.Start(context.Background())
	testingT.Cleanup(scheduler.Stop)

	require.Eventually(testingT, func() bool {
		return atomic.LoadInt64(&runCount) >= 2
	}, testSchedulerTimeout, testSchedulerInterval)
}

func TestSchedulerRunsOnTrigger(testingT *testing.T) {
	var runCount int64
	scheduler := NewScheduler("job", testLongInterval, func(context.Context) error {
		atomic.AddInt64(&runCount, 1)
		return nil
	}, nil)

	scheduler.Start(context.Background())
	scheduler.Trigger()

	require.Eventually(testingT, func() bool {
		return atomic.LoadInt64(&runCount) == 1
	}, testSchedulerTimeout, testSchedulerInterval)

	scheduler.Stop()
	require.Nil(testingT, scheduler.cancel)
	require.EqualValues(testingT, 1, atomic.LoadInt64(&runCount))
}

func TestSchedulerFinalRunHappensOnStop(testingT *testing.T) {
	var runCount int64
	scheduler := NewScheduler("job", testLongInterval, func(context.Context) error {
		atomic.AddInt64(&runCount, 1)
		return nil
	}, nil).WithFinalRun()

	scheduler.Start(context.Background())
	scheduler.Stop()
	require.EqualValues(testingT, 1, atomic.LoadInt64(&runCount))

	scheduler.Stop()
	require.EqualValues(testingT, 1, atomic.LoadInt64(&runCount))
}

func TestSchedulerLogsJobFailures(testingT *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	scheduler := NewScheduler("flaky", testLongInterval, func(context.Context) error {
		return errors.New("disk full")
	}, zap.New(core)).WithFinalRun()

	scheduler.Start(context.Background())
	scheduler.Stop()

	entries := logs.FilterMessage("task_failed").All()
	require.Len(testingT, entries, 1)
	require.Equal(testingT, "flaky", entries[0].ContextMap()["task"])
}

func TestSchedulerHandlesNilReceiver(testingT *testing.T) {
	var scheduler *Scheduler
	scheduler.Start(context.Background())
	scheduler.Trigger()
	scheduler.Stop()
}

func TestSchedulerSkipsStartWhenJobMissing(testingT *testing.T) {
	scheduler := NewScheduler("job", testSchedulerInterval, nil, nil)
	scheduler.Start(context.Background())
	require.Nil(testingT, scheduler.cancel)
}

func TestSchedulerStartIsIdempotent(testingT *testing.T) {
	scheduler := NewScheduler("job", testLongInterval, func(context.Context) error { return nil }, nil)
	scheduler.Start(context.Background())
	doneAfterStart := scheduler.done
	require.NotNil(testingT, scheduler.cancel)
	scheduler.Start(context.Background())
	require.Equal(testingT, doneAfterStart, scheduler.done)
	scheduler.Stop()
}

func TestCookieJarPersisterWritesJarOnStop(testingT *testing.T) {
	jarPath := filepath.Join(testingT.TempDir(), "cookies.json")
	jar, jarErr := cookiejar.New(&cookiejar.Options{Filename: jarPath})
	require.NoError(testingT, jarErr)

	target, _ := url.Parse("https://lms.example.com/")
	jar.SetCookies(target, []*http.Cookie{{Name: "csrftoken", Value: "persisted", Path: "/", MaxAge: 3600}})

	persister := NewCookieJarPersister(jar, testLongInterval, nil)
	persister.Start(context.Background())
	persister.Stop()

	_, statErr := os.Stat(jarPath)
	require.NoError(testingT, statErr)

	reopened, reopenErr := cookiejar.New(&cookiejar.Options{Filename: jarPath})
	require.NoError(testingT, reopenErr)
	cookies := reopened.Cookies(target)
	require.Len(testingT, cookies, 1)
	require.Equal(testingT, "persisted", cookies[0].Value)
}
