package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Stream field names.
const (
	fieldID         = "id"
	fieldTask       = "task"
	fieldPayload    = "payload"
	fieldEnqueuedAt = "enqueued_at"
	fieldError      = "error"
)

var errBadMessage = errors.New("malformed task message")

// Message is a task invocation as it travels through the broker.
type Message struct {
	ID         string
	Task       string
	Payload    map[string]any
	EnqueuedAt time.Time
}

func (m Message) values() (map[string]any, error) {
	payload, err := json.Marshal(m.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload for %s: %w", m.Task, err)
	}
	return map[string]any{
		fieldID:         m.ID,
		fieldTask:       m.Task,
		fieldPayload:    string(payload),
		fieldEnqueuedAt: strconv.FormatInt(m.EnqueuedAt.UnixMilli(), 10),
	}, nil
}

func decodeMessage(values map[string]any) (Message, error) {
	id, _ := values[fieldID].(string)
	task, _ := values[fieldTask].(string)
	if id == "" || task == "" {
		return Message{}, fmt.Errorf("%w: missing id or task", errBadMessage)
	}

	m := Message{ID: id, Task: task}

	if raw, _ := values[fieldPayload].(string); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &m.Payload); err != nil {
			return Message{}, fmt.Errorf("%w: payload: %w", errBadMessage, err)
		}
	}
	if raw, _ := values[fieldEnqueuedAt].(string); raw != "" {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			m.EnqueuedAt = time.UnixMilli(ms).UTC()
		}
	}
	return m, nil
}
