package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type testEvent struct {
	ReportID string `json:"report_id"`
}

func (testEvent) EventType() string { return "audit.completed" }

func newFakePublisher(t *testing.T, topic string) (*Publisher, *pstest.Server) {
	t.Helper()
	ctx := context.Background()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	require.NoError(t, err)
	_, err = client.CreateTopic(ctx, topic)
	require.NoError(t, err)

	pub := NewWithClient(client, topic)
	t.Cleanup(func() { _ = pub.Close() })
	return pub, srv
}

func TestPublishDefaultTopic(t *testing.T) {
	pub, srv := newFakePublisher(t, "audits")

	id, err := pub.Publish(context.Background(), "", testEvent{ReportID: "r1"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var got testEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	require.Equal(t, "r1", got.ReportID)
	require.Equal(t, "audit.completed", msgs[0].Attributes["event_type"])
}

func TestPublishReusesTopicHandle(t *testing.T) {
	pub, srv := newFakePublisher(t, "audits")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := pub.Publish(ctx, "audits", map[string]int{"n": i})
		require.NoError(t, err)
	}
	require.Len(t, srv.Messages(), 3)
	require.Len(t, pub.topics, 1)
}

func TestPublishErrors(t *testing.T) {
	t.Parallel()

	_, err := (&Publisher{}).Publish(context.Background(), "audits", "x")
	require.Error(t, err)

	pub := NewWithClient(&pubsub.Client{}, "")
	_, err = pub.Publish(context.Background(), "", "x")
	require.ErrorContains(t, err, "topic required")

	_, err = New(context.Background(), "", "audits")
	require.Error(t, err)
}
