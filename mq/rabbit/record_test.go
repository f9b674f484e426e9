package rabbit

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargas/mq/mq"
)

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "load.create", routingKey(mq.TopicLoad, mq.ActionCreate))
	assert.Equal(t, "restriction.delete", routingKey(mq.TopicRestriction, mq.ActionDelete))
	assert.Equal(t, "*.update", routingKey(mq.TopicAll, mq.ActionUpdate))
}

func TestRabbitPublishSubscribe(t *testing.T) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		t.Skip("RABBITMQ_URL not set")
	}
	conn, err := NewRabbitConnection(url)
	require.NoError(t, err)

	wrapper, err := NewRabbitRecordMessageQueueWrapper(conn, nil)
	require.NoError(t, err)
	defer wrapper.Close()

	updates := wrapper.GetRecordMessageQueue(mq.ActionUpdate)
	id, ch, err := updates.Subscribe(mq.TopicLoad)
	require.NoError(t, err)

	require.NoError(t, mq.Publish(wrapper, mq.RecordMessage{Topic: mq.TopicRestriction, Action: mq.ActionUpdate, ID: "r1"}))
	require.NoError(t, mq.Publish(wrapper, mq.RecordMessage{Topic: mq.TopicLoad, Action: mq.ActionUpdate, ID: "l1", Changes: []string{"driverName"}}))

	select {
	case msg := <-ch:
		assert.Equal(t, "l1", msg.ID)
		assert.Equal(t, []string{"driverName"}, msg.Changes)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for load update")
	}

	require.NoError(t, updates.DeSubscribe(id))
	assert.Error(t, updates.DeSubscribe(id))
}
