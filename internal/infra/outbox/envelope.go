package outbox

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	appoutbox "cleanmarket/internal/app/outbox"
)

const (
	specVersion    = "1.0"
	typeSuffix     = ".v1"
	ContentType    = "application/cloudevents+json"
	defaultSource  = "app://cleanmarket"
	headerTrace    = "traceparent"
	headerContType = "content-type"
)

var ErrNotCloudEvent = errors.New("outbox: payload is not a cloud event")

// CloudEvent is the structured-mode envelope every relayed record travels in.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
	TraceParent     string          `json:"traceparent,omitempty"`
}

// EventName strips the version suffix from Type.
func (e CloudEvent) EventName() string {
	return strings.TrimSuffix(e.Type, typeSuffix)
}

// Wrap builds the envelope for rec. The record id doubles as the event id so
// consumers can deduplicate redeliveries.
func Wrap(rec appoutbox.EventRecord, source string) ([]byte, map[string]string, error) {
	if !json.Valid(rec.Payload) {
		return nil, nil, errors.New("outbox: record payload is not valid JSON")
	}
	if source == "" {
		source = defaultSource
	}
	evt := CloudEvent{
		SpecVersion:     specVersion,
		ID:              rec.ID,
		Type:            rec.Name + typeSuffix,
		Source:          source,
		Subject:         rec.Aggregate,
		Time:            rec.OccurredAt.UTC(),
		DataContentType: "application/json",
		Data:            json.RawMessage(rec.Payload),
		TraceParent:     rec.Headers[headerTrace],
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		headerContType: ContentType,
	}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// Unwrap decodes an envelope produced by Wrap.
func Unwrap(payload []byte) (CloudEvent, error) {
	var evt CloudEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return CloudEvent{}, err
	}
	if evt.SpecVersion == "" || evt.ID == "" || evt.Type == "" {
		return CloudEvent{}, ErrNotCloudEvent
	}
	return evt, nil
}
