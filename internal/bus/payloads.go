package bus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tobsch/loxberry-velux/internal/registry"
)

// ErrorRecord is the JSON shape published to {prefix}/errors per spec.md §6.
// CorrelationID lets an operator grep a single ID across this topic and the
// structured log stream.
type ErrorRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	Severity      string    `json:"severity"`
	Component     string    `json:"component"`
	Message       string    `json:"message"`
	Details       string    `json:"details,omitempty"`
	CorrelationID string    `json:"correlationId"`
}

// Severity values used when publishing ErrorRecord.
const (
	SeverityError = "error"
	SeverityWarn  = "warn"
	SeverityInfo  = "info"
)

// NewErrorRecord stamps rec's timestamp with the current time in UTC and
// assigns it a fresh correlation ID.
func NewErrorRecord(severity, component, message, details string) ErrorRecord {
	return ErrorRecord{
		Timestamp:     time.Now().UTC(),
		Severity:      severity,
		Component:     component,
		Message:       message,
		Details:       details,
		CorrelationID: uuid.NewString(),
	}
}

func marshalErrorRecord(rec ErrorRecord) ([]byte, error) {
	return json.Marshal(rec)
}

// sceneJSON mirrors spec.md §6's scene JSON shape.
type sceneJSON struct {
	SceneID      int    `json:"sceneId"`
	Name         string `json:"name"`
	ProductCount int    `json:"productCount"`
}

func marshalScene(s *registry.Scene) ([]byte, error) {
	return json.Marshal(sceneJSON{SceneID: s.SceneID, Name: s.Name, ProductCount: s.ProductCount})
}
