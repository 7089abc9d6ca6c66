package events

import (
	"encoding/json"
	"time"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

// =============================================================================
// REGISTRY EVENTS
// =============================================================================

type ScanCompletedPayload struct {
	Root     string        `json:"root"`
	Skills   []string      `json:"skills"`
	Duration time.Duration `json:"duration"`
}

func (ScanCompletedPayload) EventType() EventType { return EventScanCompleted }

type CacheClearedPayload struct {
	Dropped int `json:"dropped"`
}

func (CacheClearedPayload) EventType() EventType { return EventCacheCleared }

// =============================================================================
// SKILL EXECUTION EVENTS
// =============================================================================

type SkillStartedPayload struct {
	SkillName string         `json:"skill_name"`
	Variant   string         `json:"variant"`
	Input     map[string]any `json:"input,omitempty"`
}

func (SkillStartedPayload) EventType() EventType { return EventSkillStarted }

type SkillCompletedPayload struct {
	SkillName     string  `json:"skill_name"`
	Variant       string  `json:"variant"`
	Success       bool    `json:"success"`
	Output        any     `json:"output,omitempty"`
	Error         string  `json:"error,omitempty"`
	ExecutionTime float64 `json:"execution_time"`
}

func (SkillCompletedPayload) EventType() EventType { return EventSkillCompleted }

// =============================================================================
// BATCH EVENTS
// =============================================================================

type BatchStartedPayload struct {
	Count  int      `json:"count"`
	Skills []string `json:"skills"`
}

func (BatchStartedPayload) EventType() EventType { return EventBatchStarted }

type BatchCompletedPayload struct {
	Count    int           `json:"count"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

func (BatchCompletedPayload) EventType() EventType { return EventBatchCompleted }

// =============================================================================
// SCHEDULER EVENTS
// =============================================================================

type ScheduleTriggerPayload struct {
	Entry     string `json:"entry"`
	SkillName string `json:"skill_name"`
	Cron      string `json:"cron"`
}

func (ScheduleTriggerPayload) EventType() EventType { return EventScheduleTrigger }

// =============================================================================
// TYPED EVENT CONSTRUCTORS
// =============================================================================

func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return Event{
		ID:        generateEventID(),
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func NewTypedEventWithTrace(source EventSource, payload EventPayload, traceID string) Event {
	return Event{
		ID:        generateEventID(),
		TraceID:   traceID,
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// =============================================================================
// TYPED PAYLOAD EXTRACTORS
// =============================================================================

func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}

func GetSkillStartedPayload(e Event) (SkillStartedPayload, bool) {
	return ExtractPayload[SkillStartedPayload](e)
}

func GetSkillCompletedPayload(e Event) (SkillCompletedPayload, bool) {
	return ExtractPayload[SkillCompletedPayload](e)
}

func GetScanCompletedPayload(e Event) (ScanCompletedPayload, bool) {
	return ExtractPayload[ScanCompletedPayload](e)
}
