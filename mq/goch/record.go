package goch

import (
	"cargas/mq/mq"
)

// ChannelRecordMessageQueue is an in-process mq.RecordMessageQueue.
type ChannelRecordMessageQueue struct {
	*fanOutQueueCore[mq.RecordMessage]
	action mq.Action
}

func NewChannelRecordMessageQueue(action mq.Action, bufferSize int) *ChannelRecordMessageQueue {
	return &ChannelRecordMessageQueue{
		fanOutQueueCore: newFanOutQueueCore[mq.RecordMessage](bufferSize),
		action:          action,
	}
}

func (q *ChannelRecordMessageQueue) GetAction() mq.Action {
	return q.action
}

type GoChanRecordMessageQueueWrapper struct {
	RecordMQArray [mq.ActionCnt]*ChannelRecordMessageQueue
}

// NewGoChanRecordMessageQueueWrapper creates one fan-out queue per action.
func NewGoChanRecordMessageQueueWrapper(bufferSize int) *GoChanRecordMessageQueueWrapper {
	wrapper := &GoChanRecordMessageQueueWrapper{}
	for action := mq.ActionCreate; action < mq.ActionCnt; action++ {
		wrapper.RecordMQArray[action] = NewChannelRecordMessageQueue(action, bufferSize)
	}
	return wrapper
}

func (wrapper *GoChanRecordMessageQueueWrapper) GetRecordMessageQueue(action mq.Action) mq.RecordMessageQueue {
	if action < 0 || action >= mq.ActionCnt {
		return nil
	}
	return wrapper.RecordMQArray[action]
}

func (wrapper *GoChanRecordMessageQueueWrapper) Close() {
	for _, q := range wrapper.RecordMQArray {
		if q != nil {
			q.Stop()
		}
	}
}
