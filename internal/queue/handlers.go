package queue

import (
	"github.com/hibiken/asynq"
)

// NewMux builds the worker-side dispatch table from task type to handler.
func NewMux(handlers map[string]asynq.Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for taskType, h := range handlers {
		mux.Handle(taskType, h)
	}
	return mux
}
