package gcppubsub

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargas/mq/mq"
)

// Requires the Pub/Sub emulator:
//
//	gcloud beta emulators pubsub start --project=test-project
const testProjectID = "test-project"

func TestSubscriptionFilter(t *testing.T) {
	assert.Equal(t, `attributes.topic = "load"`, subscriptionFilter(mq.TopicLoad))
	assert.Equal(t, "", subscriptionFilter(mq.TopicAll))
	assert.Equal(t, "cargas-record-update", TopicID(mq.ActionUpdate))
}

func TestPubSubRecordQueue(t *testing.T) {
	if os.Getenv("PUBSUB_EMULATOR_HOST") == "" {
		t.Skip("PUBSUB_EMULATOR_HOST not set")
	}
	wrapper, err := NewGCPRecordMessageQueueWrapper(context.Background(), testProjectID, nil)
	require.NoError(t, err)
	defer wrapper.Close()

	creates := wrapper.GetRecordMessageQueue(mq.ActionCreate)
	id, ch, err := creates.Subscribe(mq.TopicRestriction)
	require.NoError(t, err)
	defer creates.DeSubscribe(id)

	require.NoError(t, mq.Publish(wrapper, mq.RecordMessage{Topic: mq.TopicLoad, Action: mq.ActionCreate, ID: "l1"}))
	require.NoError(t, mq.Publish(wrapper, mq.RecordMessage{Topic: mq.TopicRestriction, Action: mq.ActionCreate, ID: "r1"}))

	select {
	case msg := <-ch:
		assert.Equal(t, "r1", msg.ID)
		assert.Equal(t, mq.TopicRestriction, msg.Topic)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for restriction create")
	}
}

func TestNewWrapperRequiresProject(t *testing.T) {
	_, err := NewGCPRecordMessageQueueWrapper(context.Background(), "", nil)
	assert.Error(t, err)
}
