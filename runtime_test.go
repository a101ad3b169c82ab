package taskmail

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/taskmail/model/mail"
	"github.com/viant/taskmail/progress"
	"github.com/viant/taskmail/service/action"
	"github.com/viant/taskmail/service/event"
	"github.com/viant/taskmail/service/executor"
	"github.com/viant/taskmail/service/mailbox"
	"github.com/viant/taskmail/service/processor"
	"golang.org/x/sync/errgroup"
)

// source emulates an input gate feeding the default action.
type source struct {
	mux        sync.Mutex
	records    []int
	closed     bool
	suspension processor.Suspension
	sum        int
}

func (s *source) defaultAction(ctx context.Context, controller processor.Controller) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if len(s.records) == 0 {
		if s.closed {
			controller.AllActionsCompleted()
			return nil
		}
		s.suspension = controller.SuspendDefaultAction()
		return nil
	}
	s.sum += s.records[0]
	s.records = s.records[1:]
	progress.UpdateCtx(ctx, progress.Delta{Records: 1})
	return nil
}

func (s *source) feed(records ...int) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.records = append(s.records, records...)
	s.wakeLocked()
}

func (s *source) close() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.closed = true
	s.wakeLocked()
}

func (s *source) wakeLocked() {
	if s.suspension != nil {
		s.suspension.Resume()
		s.suspension = nil
	}
}

func idle(ctx context.Context, controller processor.Controller) error {
	controller.SuspendDefaultAction()
	return nil
}

func TestNew_RequiresDefaultAction(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, processor.ErrDefaultActionRequired)

	config := DefaultConfig()
	config.Runtime.Discipline = "threaded"
	_, err = New(idle, WithConfig(config))
	assert.Error(t, err)
}

func TestRuntime_ProcessesRecordsAndMail(t *testing.T) {
	src := &source{}
	var (
		mux    sync.Mutex
		events = map[event.Type]int{}
	)
	srv, err := New(src.defaultAction, WithSubtaskName("source-0"), WithEventHandler(func(e *event.Event) {
		mux.Lock()
		events[e.Type]++
		mux.Unlock()
	}))
	require.NoError(t, err)
	rt := srv.Runtime()
	require.NoError(t, rt.Start(context.Background()))
	assert.ErrorIs(t, rt.Start(context.Background()), ErrAlreadyStarted)

	checkpoints := 0
	var group errgroup.Group
	for p := 0; p < 4; p++ {
		group.Go(func() error {
			for i := 1; i <= 25; i++ {
				src.feed(i)
			}
			return nil
		})
	}
	exec := rt.Executor(mail.CheckpointPriority)
	group.Go(func() error {
		for i := 0; i < 10; i++ {
			if err := exec.Execute(mail.Options{}, func() error { checkpoints++; return nil }, "checkpoint %d", i); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, group.Wait())
	src.close()

	require.NoError(t, rt.Wait())
	assert.Equal(t, 4*325, src.sum)
	assert.Equal(t, 10, checkpoints)
	assert.Equal(t, processor.StateStopped, rt.State())

	require.NoError(t, rt.Shutdown(context.Background()))
	snapshot := rt.Progress().Snapshot()
	assert.Equal(t, "source-0", snapshot.Subtask)
	assert.Equal(t, 100, snapshot.ProcessedRecords)
	assert.Equal(t, 0, snapshot.PendingMails)
	assert.Equal(t, snapshot.SubmittedMails, snapshot.ExecutedMails)
	assert.GreaterOrEqual(t, snapshot.ExecutedMails, 11)
	mux.Lock()
	assert.Equal(t, snapshot.ExecutedMails, events[event.TypeExecuted])
	mux.Unlock()
	assert.EqualValues(t, 0, rt.Events().Dropped())
}

func TestRuntime_ShutdownDrainsAdmittedMail(t *testing.T) {
	srv, err := New(idle)
	require.NoError(t, err)
	rt := srv.Runtime()
	require.NoError(t, rt.Start(context.Background()))

	release := make(chan struct{})
	started := make(chan struct{})
	var ran []string
	record := rt.MainExecutor()
	require.NoError(t, record.Execute(mail.Options{}, func() error {
		close(started)
		<-release
		ran = append(ran, "blocking")
		return nil
	}, "blocking"))
	<-started
	require.NoError(t, record.Execute(mail.Options{}, func() error { ran = append(ran, "record"); return nil }, "record"))
	require.NoError(t, rt.Executor(mail.CheckpointPriority).Execute(mail.Options{}, func() error { ran = append(ran, "checkpoint"); return nil }, "checkpoint"))

	shutdown := make(chan error, 1)
	go func() { shutdown <- rt.Shutdown(context.Background()) }()
	require.Eventually(t, func() bool { return rt.State() == processor.StateDraining }, time.Second, time.Millisecond)

	err = record.Execute(mail.Options{}, func() error { return nil }, "late record")
	assert.ErrorIs(t, err, executor.ErrRejected)
	assert.ErrorIs(t, err, mailbox.ErrClosed)
	close(release)

	select {
	case err = <-shutdown:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return")
	}
	assert.Equal(t, []string{"blocking", "checkpoint", "record"}, ran)
	assert.Equal(t, processor.StateStopped, rt.State())
	assert.Equal(t, 1, rt.Progress().Snapshot().RejectedMails)
}

func TestRuntime_ShutdownTimeoutDiscardsMail(t *testing.T) {
	config := DefaultConfig()
	config.Runtime.ShutdownTimeout = 30 * time.Millisecond
	srv, err := New(idle, WithConfig(config))
	require.NoError(t, err)
	rt := srv.Runtime()
	require.NoError(t, rt.Start(context.Background()))

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, rt.MainExecutor().Execute(mail.Options{}, func() error {
		close(started)
		<-release
		return nil
	}, "stuck"))
	<-started
	future, err := rt.Executor(mail.CheckpointPriority).Submit(mail.Options{}, func() error { return nil }, "never runs")
	require.NoError(t, err)

	shutdown := make(chan error, 1)
	go func() { shutdown <- rt.Shutdown(context.Background()) }()
	assert.ErrorIs(t, future.Wait(context.Background()), executor.ErrCancelled)
	close(release)

	select {
	case err = <-shutdown:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return")
	}
	snapshot := rt.Progress().Snapshot()
	assert.Equal(t, 1, snapshot.DiscardedMails)
	assert.Equal(t, 0, snapshot.PendingMails)
}

func TestRuntime_ShutdownTimeoutCancelsDefaultAction(t *testing.T) {
	config := DefaultConfig()
	config.Runtime.ShutdownTimeout = 30 * time.Millisecond
	entered := make(chan struct{})
	var once sync.Once
	srv, err := New(func(ctx context.Context, controller processor.Controller) error {
		once.Do(func() { close(entered) })
		<-ctx.Done()
		return ctx.Err()
	}, WithConfig(config))
	require.NoError(t, err)
	rt := srv.Runtime()
	require.NoError(t, rt.Start(context.Background()))
	<-entered

	shutdown := make(chan error, 1)
	go func() { shutdown <- rt.Shutdown(context.Background()) }()
	select {
	case err = <-shutdown:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return")
	}
	assert.Equal(t, processor.StateStopped, rt.State())
}

func TestRuntime_FailureStopsLoop(t *testing.T) {
	srv, err := New(idle)
	require.NoError(t, err)
	rt := srv.Runtime()
	assert.ErrorIs(t, rt.Wait(), ErrNotStarted)
	require.NoError(t, rt.Start(context.Background()))

	boom := errors.New("state corrupted")
	require.NoError(t, rt.MainExecutor().Execute(mail.Options{}, func() error { return boom }, "process record %d", 7))

	err = rt.Wait()
	var cmdErr *action.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, "process record 7", cmdErr.Description)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, processor.StateStopped, rt.State())
	assert.ErrorIs(t, rt.Shutdown(context.Background()), boom)
}

func TestRuntime_CancelledContext(t *testing.T) {
	srv, err := New(idle)
	require.NoError(t, err)
	rt := srv.Runtime()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, rt.Start(ctx))
	require.Eventually(t, rt.Processor().IsMailboxLoopRunning, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, rt.Wait(), mailbox.ErrInterrupted)
}

func TestRuntime_TimerFiresOnLoop(t *testing.T) {
	srv, err := New(idle)
	require.NoError(t, err)
	rt := srv.Runtime()
	require.NoError(t, rt.Start(context.Background()))

	var fired atomic.Bool
	_, err = rt.Timers().RegisterTimer(time.Now().Add(5*time.Millisecond), func(time.Time) error {
		fired.Store(true)
		rt.Processor().AllActionsCompleted()
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, rt.Wait())
	assert.True(t, fired.Load())
	require.NoError(t, rt.Shutdown(context.Background()))
}

func TestRuntime_SynchronizedDiscipline(t *testing.T) {
	checkpointLock := &sync.Mutex{}
	srv, err := New(idle, WithLocker(checkpointLock))
	require.NoError(t, err)
	rt := srv.Runtime()
	require.NoError(t, rt.Start(context.Background()))

	var ran atomic.Bool
	checkpointLock.Lock()
	require.NoError(t, rt.MainExecutor().Execute(mail.Options{}, func() error { ran.Store(true); return nil }, "guarded"))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load(), "mail waits for the lock held by the legacy source")
	checkpointLock.Unlock()
	require.Eventually(t, ran.Load, time.Second, time.Millisecond)

	require.NoError(t, rt.Shutdown(context.Background()))
}

func TestRuntime_BrokerHandOff(t *testing.T) {
	type barrier struct{ Superstep int }
	headSrv, err := New(func(ctx context.Context, controller processor.Controller) error {
		controller.AllActionsCompleted()
		return nil
	})
	require.NoError(t, err)
	head := headSrv.Runtime()

	var received *barrier
	tailSrv, err := New(func(ctx context.Context, controller processor.Controller) error {
		v, err := head.Broker().Get(ctx, "iteration-1")
		if err != nil {
			return err
		}
		received = v.(*barrier)
		controller.AllActionsCompleted()
		return nil
	}, WithBroker(head.Broker()))
	require.NoError(t, err)
	tail := tailSrv.Runtime()
	assert.Same(t, head.Broker(), tail.Broker())

	require.NoError(t, tail.Start(context.Background()))
	require.NoError(t, head.Start(context.Background()))
	require.NoError(t, head.Broker().Handin("iteration-1", &barrier{Superstep: 4}))

	require.NoError(t, tail.Wait())
	require.NoError(t, head.Wait())
	require.NotNil(t, received)
	assert.Equal(t, 4, received.Superstep)
}
