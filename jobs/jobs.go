// Package jobs is the outbound job-queue boundary. The core only ever
// enqueues opaque {class, args} records; processing them belongs to the
// surrounding deployment.
package jobs

import "context"

type Job struct {
	Class string        `json:"class"`
	Args  []interface{} `json:"args"`
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// Discard drops every job. Used when no broker is configured and in
// tests.
type Discard struct{}

func (Discard) Enqueue(context.Context, Job) error {
	return nil
}
