package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/taskmail"
	"github.com/viant/taskmail/model/mail"
	"golang.org/x/sync/errgroup"
)

type runOptions struct {
	records         int
	producers       int
	checkpointEvery time.Duration
	timerSpec       string
	configURL       string
	synchronized    bool
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}
	command := &cobra.Command{
		Use:   "run",
		Short: "Run a simulated subtask and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubtask(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	flags := command.Flags()
	flags.IntVarP(&opts.records, "records", "n", 10000, "number of records to process")
	flags.IntVarP(&opts.producers, "producers", "p", 4, "number of concurrent record producers")
	flags.DurationVar(&opts.checkpointEvery, "checkpoint-every", 50*time.Millisecond, "checkpoint barrier interval")
	flags.StringVar(&opts.timerSpec, "timer", "", "cron spec of a processing-time timer, e.g. @every 1s")
	flags.StringVarP(&opts.configURL, "config", "c", "", "config URL (file, mem, s3, gs ...)")
	flags.BoolVar(&opts.synchronized, "synchronized", false, "hold a checkpoint lock around every action")
	return command
}

func (o *runOptions) validate() error {
	if o.records < 0 {
		return fmt.Errorf("records must be >= 0")
	}
	if o.producers <= 0 {
		return fmt.Errorf("producers must be > 0")
	}
	if o.checkpointEvery <= 0 {
		return fmt.Errorf("checkpoint-every must be > 0")
	}
	return nil
}

func runSubtask(ctx context.Context, w io.Writer, opts *runOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	config := taskmail.DefaultConfig()
	if opts.configURL != "" {
		var err error
		if config, err = taskmail.LoadConfig(ctx, opts.configURL); err != nil {
			return err
		}
	}
	if opts.synchronized {
		config.Runtime.Discipline = taskmail.DisciplineSynchronized
	}

	p := &pipeline{}
	srv, err := taskmail.New(p.defaultAction, taskmail.WithConfig(config))
	if err != nil {
		return err
	}
	rt := srv.Runtime()
	var timerFirings atomic.Int64
	if opts.timerSpec != "" {
		if _, err = rt.Timers().Schedule(opts.timerSpec, func(time.Time) error {
			timerFirings.Add(1)
			return nil
		}); err != nil {
			return err
		}
	}

	started := time.Now()
	if err = rt.Start(ctx); err != nil {
		return err
	}

	stop := make(chan struct{})
	var checkpointer sync.WaitGroup
	checkpointer.Add(1)
	go func() {
		defer checkpointer.Done()
		barriers := rt.Executor(mail.CheckpointPriority)
		ticker := time.NewTicker(opts.checkpointEvery)
		defer ticker.Stop()
		for id := 1; ; id++ {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := barriers.Execute(mail.Options{}, p.checkpoint, "checkpoint barrier %d", id); err != nil {
					return
				}
			}
		}
	}()

	var producers errgroup.Group
	for i := 0; i < opts.producers; i++ {
		producer := i
		producers.Go(func() error {
			for record := producer + 1; record <= opts.records; record += opts.producers {
				p.feed(record)
			}
			return nil
		})
	}
	_ = producers.Wait()
	p.close()

	loopErr := rt.Wait()
	close(stop)
	checkpointer.Wait()
	shutdownErr := rt.Shutdown(ctx)

	printSummary(w, &summary{
		Subtask:      config.Subtask,
		Elapsed:      time.Since(started),
		Records:      p.processed,
		Expected:     opts.records,
		Sum:          p.sum,
		ExpectedSum:  int64(opts.records) * int64(opts.records+1) / 2,
		Checkpoints:  p.barriers,
		TimerFirings: timerFirings.Load(),
		State:        rt.State().String(),
		Progress:     rt.Progress().Snapshot(),
		Err:          loopErr,
	})
	if loopErr != nil {
		return loopErr
	}
	return shutdownErr
}
