package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("export.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindConversationExported, Payload: ConversationPayload{Name: "Alice", Messages: 3}})

	select {
	case evt := <-ch:
		if evt.Kind != KindConversationExported {
			t.Errorf("got kind %q, want %q", evt.Kind, KindConversationExported)
		}
		if evt.Timestamp.IsZero() {
			t.Error("timestamp not filled in")
		}
		p, ok := evt.Payload.(ConversationPayload)
		if !ok || p.Name != "Alice" {
			t.Errorf("payload = %#v", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("merge.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindStageChanged})
	b.Publish(Event{Kind: KindConversationMerged})

	select {
	case evt := <-ch:
		if evt.Kind != KindConversationMerged {
			t.Errorf("got kind %q, want %q", evt.Kind, KindConversationMerged)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("run.", 10)
	unsub()
	unsub()

	b.Publish(Event{Kind: KindStageChanged})

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("received event after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
		t.Fatal("channel not closed after unsubscribe")
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("html.", 1)
	defer unsub()

	b.Publish(Event{Kind: KindPageRendered, Payload: ConversationPayload{Name: "one"}})
	b.Publish(Event{Kind: KindPageRendered, Payload: ConversationPayload{Name: "two"}})

	evt := <-ch
	if evt.Payload.(ConversationPayload).Name != "one" {
		t.Errorf("got %v, want first event", evt.Payload)
	}
}
