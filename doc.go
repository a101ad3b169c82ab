// Package taskmail provides a cooperative, single-consumer mailbox runtime
// for one subtask.
//
// Every action that touches subtask state (record processing, checkpoint
// barriers, timer callbacks, control messages) is funnelled through a
// priority mailbox and executed on one goroutine. Producers on any
// goroutine submit work through per-priority executors; the processor loop
// alternates between queued mail and the default action.
//
// End-users typically interact with the runtime via the Service façade:
//
//	srv, _ := taskmail.New(defaultAction, taskmail.WithConfig(cfg))
//	rt := srv.Runtime()
//	_ = rt.Start(ctx)
//	_ = rt.Executor(mail.CheckpointPriority).Execute(mail.Options{}, barrier, "checkpoint %d", id)
//	err := rt.Shutdown(ctx)
//
// For more details see the individual sub-packages.
package taskmail
