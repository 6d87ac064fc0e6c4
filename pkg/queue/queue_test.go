package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yeisme/codevault/pkg/queue"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	payload := queue.CodeRedeemedPayload{FileID: "fl_1", Code: "abc12345", ClaimantEmail: "a@b.c", RemainingCodes: 2}

	msg, err := queue.NewWatermillMessage(queue.TopicCodeRedeemed, payload,
		queue.WithTraceID("trace-1"), queue.WithProducer("codevault"))
	if err != nil {
		t.Fatalf("new message: %v", err)
	}

	if got := msg.Metadata.Get("topic"); got != queue.TopicCodeRedeemed {
		t.Fatalf("metadata topic = %q", got)
	}

	if got := msg.Metadata.Get("trace_id"); got != "trace-1" {
		t.Fatalf("metadata trace_id = %q", got)
	}

	env, err := queue.ParseCodeRedeemed(msg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if env.Header.Topic != queue.TopicCodeRedeemed || env.Header.Version != queue.PayloadVersionV1 {
		t.Fatalf("unexpected header: %+v", env.Header)
	}

	if env.Header.Producer != "codevault" || env.Header.OccurredAt.IsZero() {
		t.Fatalf("unexpected header: %+v", env.Header)
	}

	if env.Payload != payload {
		t.Fatalf("payload = %+v, want %+v", env.Payload, payload)
	}
}

func TestPublishOverGoChannel(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	defer ps.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := ps.Subscribe(ctx, queue.TopicFileUploaded)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	want := queue.FileUploadedPayload{FileID: "fl_2", OwnerID: "usr_1", Name: "a.txt", Type: "text/plain", Size: "3 B", CodeCount: 1}
	if err := queue.PublishFileUploaded(ps, want); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case m := <-msgs:
		env, err := queue.ParseFileUploaded(m)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}

		m.Ack()

		if env.Payload != want {
			t.Fatalf("payload = %+v, want %+v", env.Payload, want)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestAllTopics(t *testing.T) {
	seen := map[string]bool{}
	for _, topic := range queue.AllTopics() {
		if seen[topic] {
			t.Fatalf("duplicate topic %s", topic)
		}

		seen[topic] = true
	}

	if len(seen) != 4 {
		t.Fatalf("expected 4 topics, got %d", len(seen))
	}
}
