package stream

import (
	"testing"

	"github.com/shopspring/decimal"

	"coinwatch/internal/models"
)

func TestBroadcast_DeliversToSubscribers(t *testing.T) {
	h := NewHub(nil, 4)
	ch := h.subscribe()
	defer h.unsubscribe(ch)

	if h.SubscriberCount() != 1 {
		t.Fatalf("subscribers=%d want 1", h.SubscriberCount())
	}

	h.Broadcast(models.PriceSample{AssetID: "bitcoin", Price: decimal.NewFromInt(50000)})

	select {
	case got := <-ch:
		if got.AssetID != "bitcoin" {
			t.Fatalf("asset=%s want bitcoin", got.AssetID)
		}
	default:
		t.Fatalf("no sample delivered")
	}
}

func TestBroadcast_DropsWhenSubscriberFull(t *testing.T) {
	h := NewHub(nil, 1)
	ch := h.subscribe()
	defer h.unsubscribe(ch)

	// Second broadcast must not block even though the buffer is full.
	h.Broadcast(models.PriceSample{Price: decimal.NewFromInt(1)})
	h.Broadcast(models.PriceSample{Price: decimal.NewFromInt(2)})

	got := <-ch
	if got.Price.String() != "1" {
		t.Fatalf("price=%s want 1 (oldest kept, newest dropped)", got.Price.String())
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected second frame: %+v", extra)
	default:
	}
}

func TestUnsubscribe_RemovesChannel(t *testing.T) {
	h := NewHub(nil, 0)
	ch := h.subscribe()
	h.unsubscribe(ch)
	if h.SubscriberCount() != 0 {
		t.Fatalf("subscribers=%d want 0", h.SubscriberCount())
	}
}
