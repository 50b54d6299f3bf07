package raidsim

import (
	"fmt"
	"time"
)

// Severity of an emitted event.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// Event is the structured record the core hands to the external log sink.
// The sink owns ordering, console/file fan-out and durability.
type Event struct {
	Time     time.Time
	Severity Severity
	Category string
	Message  string
}

// Events exposes the array's event stream. Exactly one sink should consume
// it; delivery is fire-and-forget on the core side.
func (a *Array) Events() <-chan Event { return a.events }

// emit never blocks the caller: when the sink lags behind the buffer, the
// oldest pending event is dropped to make room.
func (a *Array) emit(sev Severity, category, format string, args ...interface{}) {
	ev := Event{
		Time:     time.Now(),
		Severity: sev,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
	select {
	case a.events <- ev:
		return
	default:
	}
	select {
	case <-a.events:
	default:
	}
	select {
	case a.events <- ev:
	default:
	}
}

// warnDataLossLocked surfaces the one-time, non-suppressible data-loss
// warning. Callers hold the array guard.
func (a *Array) warnDataLossLocked(cause string) {
	if a.lossWarned {
		return
	}
	a.lossWarned = true
	a.emit(SeverityError, "array", "DATA LOSS: %s", cause)
}

// preview shortens sector content for event messages, the way the drive
// file renders it.
func preview(content []byte) string {
	const width = 8
	if len(content) > width {
		return string(content[:width])
	}
	return string(content)
}
