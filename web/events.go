package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cargas/mq/mq"
)

const (
	keepAlivePingInterval = 10 * time.Second
	writeWait             = 5 * time.Second
)

// recordEvent is the wire form of mq.RecordMessage with a readable action.
type recordEvent struct {
	Topic        mq.Topic  `json:"topic"`
	Action       string    `json:"action"`
	ID           string    `json:"id"`
	ProtocolCode string    `json:"protocolCode,omitempty"`
	DriverName   string    `json:"driverName,omitempty"`
	Changes      []string  `json:"changes,omitempty"`
	At           time.Time `json:"at"`
}

func toRecordEvent(msg mq.RecordMessage) (recordEvent, bool, error) {
	return recordEvent{
		Topic:        msg.Topic,
		Action:       msg.Action.String(),
		ID:           msg.ID,
		ProtocolCode: msg.ProtocolCode,
		DriverName:   msg.DriverName,
		Changes:      msg.Changes,
		At:           msg.At,
	}, false, nil
}

type eventFeed struct {
	events   mq.RecordMessageQueueWrapper
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func newEventFeed(events mq.RecordMessageQueueWrapper, logger *zap.Logger) *eventFeed {
	return &eventFeed{
		events: events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// allow all origins, same as the CORS config
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// serve streams record events for ?topic= (all topics when empty) until
// the client goes away.
func (f *eventFeed) serve(c *gin.Context) {
	if f.events == nil {
		unavailable(c)
		return
	}
	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream := make(chan recordEvent, 16)
	topic := mq.Topic(c.Query("topic"))
	if err := mq.SubscribeAllActions(ctx, f.events, topic, toRecordEvent, stream); err != nil {
		f.logger.Error("failed to subscribe event feed", zap.Error(err))
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(writeWait))
		return
	}

	// reader: only control frames are expected; a read error means the
	// client left
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(keepAlivePingInterval)
	defer ticker.Stop()
	for {
		select {
		case evt, ok := <-stream:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
