package mq

import "time"

type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionDelete
	ActionCnt
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

// Topic names the record collection a message is about.
type Topic string

const (
	TopicAll         Topic = ""
	TopicLoad        Topic = "load"
	TopicRestriction Topic = "restriction"
	TopicOrigin      Topic = "origin"
	TopicDestination Topic = "destination"
	TopicContact     Topic = "contact"
)

// RecordMessage announces that a record was created, updated or deleted,
// so other sessions can re-read the list. It never carries the whole
// record.
type RecordMessage struct {
	Topic        Topic     `json:"topic"`
	Action       Action    `json:"action"`
	ID           string    `json:"id"`
	ProtocolCode string    `json:"protocolCode,omitempty"`
	DriverName   string    `json:"driverName,omitempty"`
	Changes      []string  `json:"changes,omitempty"`
	At           time.Time `json:"at"`
}

func (m RecordMessage) GetTopic() Topic {
	return m.Topic
}
