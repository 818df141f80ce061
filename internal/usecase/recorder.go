package usecase

import (
	"time"

	"github.com/iho/masspay/internal/domain"
)

// Recorder receives processing measurements.
type Recorder interface {
	ItemRouted(route RouteKind, success bool, duration time.Duration)
	BatchFinished(status domain.BatchStatus)
	GroupFinished(status domain.BatchStatus)
	RunFailed(kind string)
	ItemsSwept(count int)
	TaskQueued(kind string, depth int)
	TaskRejected(kind string)
}

// NopRecorder discards all measurements.
type NopRecorder struct{}

func (NopRecorder) ItemRouted(RouteKind, bool, time.Duration) {}
func (NopRecorder) BatchFinished(domain.BatchStatus) {}
func (NopRecorder) GroupFinished(domain.BatchStatus) {}
func (NopRecorder) RunFailed(string) {}
func (NopRecorder) ItemsSwept(int) {}
func (NopRecorder) TaskQueued(string, int) {}
func (NopRecorder) TaskRejected(string) {}
