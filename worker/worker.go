package worker

import (
	"runtime"

	"github.com/getsentry/sentry-go"
)

var workerQueue = make(chan func(), runtime.NumCPU()*16)

func init() {
	for i := 0; i < runtime.NumCPU(); i++ {
		go worker()
	}
}

func worker() {
	for f := range workerQueue {
		run(f)
	}
}

// run calls f, reporting a panic to sentry instead of taking the worker down with it.
func run(f func()) {
	defer sentry.Recover()
	f()
}

// Submit queues f to run on a worker goroutine. To be used by a function that may be CPU or IO intensive,
// such as writing violation records. Submit blocks while every worker is busy and the queue is full.
func Submit(f func()) {
	workerQueue <- f
}
