// Package engine provides the "post a continuation" primitive the storage
// layer runs on.
//
// ARCHITECTURE:
//
// Single-Writer Dispatcher:
// Every asynchronous step of every storage operation (a lookup result, a
// trigger firing, a chained index update) is posted as a Task and run by
// one logical thread of control. This ensures:
// - No task ever observes another task's partial state
// - Trigger callbacks may issue new storage operations safely
// - Execution order is FIFO and therefore reproducible
//
// Two ways to drive the queue:
// 1. Dispatcher.Run(ctx) on a dedicated goroutine (services, blocking facade)
// 2. Dispatcher.Drain() on the caller's goroutine (tests, scenario harness)
//
// Never mix the two on one Dispatcher at the same time.
//
// Logical Clock
// Every executed task advances the Clock, so Steps() reports how much work
// a workload cost without any wall-clock dependency.
package engine
