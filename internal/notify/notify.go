// Package notify carries failure reports out of the analysis core. The core
// never renders or delivers notifications itself; it hands categorized
// events to a Reporter.
package notify

import (
	"log"
	"time"
)

// Severity grades how loudly a failure should surface.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Category names the failing subsystem.
type Category string

const (
	CategoryGateway     Category = "gateway"
	CategoryCodec       Category = "codec"
	CategoryPersistence Category = "persistence"
	CategoryAnalysis    Category = "analysis"
)

// Event is one reported failure.
type Event struct {
	Kind     string // fine-grained kind within the category
	Category Category
	Severity Severity
	Err      error
	At       time.Time
}

// Reporter receives failure events. Implementations must not block.
type Reporter interface {
	Report(e Event)
}

// LogReporter writes events to the process log. The default sink.
type LogReporter struct{}

// Report logs the event.
func (LogReporter) Report(e Event) {
	log.Printf("notify: [%s/%s] %s: %v", e.Category, e.Severity, e.Kind, e.Err)
}

// Discard drops all events. Tests only.
type Discard struct{}

func (Discard) Report(Event) {}
