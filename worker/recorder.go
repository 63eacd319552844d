package worker

import (
	"github.com/oomph-ac/reckon/utils"
	"github.com/oomph-ac/reckon/validator"
	"github.com/sirupsen/logrus"
)

// Recorder hands violation records to a validator.Recorder on a worker goroutine, so that the session
// validating a report never waits on storage.
type Recorder struct {
	next validator.Recorder
	log  logrus.FieldLogger
}

// NewRecorder wraps the recorder passed.
func NewRecorder(next validator.Recorder, log logrus.FieldLogger) *Recorder {
	return &Recorder{next: next, log: utils.LoggerOrNop(log)}
}

// Record queues rec to be recorded. Errors are logged as they happen and never returned.
func (r *Recorder) Record(rec validator.Record) error {
	Submit(func() {
		if err := r.next.Record(rec); err != nil {
			r.log.Errorf("unable to record violation of %s: %v", rec.Player, err)
		}
	})
	return nil
}
