package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lab4/taskapi"
)

func TestSchedulerModule_Lifecycle(t *testing.T) {
	module := NewModule()
	app, err := taskapi.NewApplication(
		taskapi.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		taskapi.WithConfigFeeders(),
		taskapi.WithModules(module),
	)
	require.NoError(t, err)
	require.NoError(t, app.Init())

	assert.True(t, module.config.Enabled)
	assert.Equal(t, 2, module.config.WorkerCount)
	assert.Equal(t, 10*time.Second, module.config.ShutdownTimeout)

	var svc Service
	require.NoError(t, app.GetService(ServiceName, &svc))

	done := make(chan struct{})
	id, err := svc.ScheduleRecurring("probe", "@every 1h", func(context.Context) error {
		close(done)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, app.Start())
	require.NoError(t, svc.RunNow(id))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}

	require.NoError(t, app.Stop())
}

func TestSchedulerModule_Disabled(t *testing.T) {
	module := NewModule()
	app, err := taskapi.NewApplication(
		taskapi.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		taskapi.WithConfigFeeders(),
		taskapi.WithModules(module),
	)
	require.NoError(t, err)
	require.NoError(t, app.Init())
	module.config.Enabled = false

	require.NoError(t, app.Start())
	id, err := module.ScheduleRecurring("idle", "@every 1h", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, module.RunNow(id), ErrSchedulerStopped)
	require.NoError(t, app.Stop())
}

func TestSchedulerConfig_Validate(t *testing.T) {
	assert.ErrorIs(t, (&SchedulerConfig{WorkerCount: 0, QueueSize: 1}).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, (&SchedulerConfig{WorkerCount: 1, QueueSize: 0}).Validate(), ErrInvalidConfig)
	assert.NoError(t, (&SchedulerConfig{WorkerCount: 1, QueueSize: 1}).Validate())
}
