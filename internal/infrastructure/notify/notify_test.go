package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crosspost/backend/internal/domain/publication"
	"github.com/crosspost/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturingSink struct {
	events []Event
	err    error
}

func (s *capturingSink) Notify(_ context.Context, ev Event) error {
	s.events = append(s.events, ev)
	return s.err
}

func TestWebhookSink(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL)

	t.Run("success embed", func(t *testing.T) {
		err := sink.Notify(context.Background(), Event{
			Title:    "Veste en jean",
			Platform: shared.PlatformVinted,
			Outcome:  OutcomePublished,
			URL:      "https://www.vinted.fr/items/1",
		})
		require.NoError(t, err)
		require.Len(t, got.Embeds, 1)
		assert.Equal(t, colorSuccess, got.Embeds[0].Color)
		assert.Equal(t, "https://www.vinted.fr/items/1", got.Embeds[0].URL)
	})

	t.Run("failure embed", func(t *testing.T) {
		err := sink.Notify(context.Background(), Event{
			Title:    "Veste en jean",
			Platform: shared.PlatformLeboncoin,
			Outcome:  OutcomeFailed,
			Detail:   "captcha wall",
		})
		require.NoError(t, err)
		require.Len(t, got.Embeds, 1)
		assert.Equal(t, colorError, got.Embeds[0].Color)
	})

	t.Run("server error surfaces", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer bad.Close()
		err := NewWebhookSink(bad.URL).Notify(context.Background(), Event{Outcome: OutcomePublished})
		assert.Error(t, err)
	})
}

func TestHandlerFanOut(t *testing.T) {
	listingID := uuid.New()
	p, err := publication.NewPublication(listingID, shared.PlatformVinted)
	require.NoError(t, err)
	require.NoError(t, p.Enqueue())
	require.NoError(t, p.BeginAttempt())
	require.NoError(t, p.Publish("https://www.vinted.fr/items/7"))

	var published *publication.PublishedEvent
	for _, ev := range p.GetDomainEvents() {
		if e, ok := ev.(*publication.PublishedEvent); ok {
			published = e
		}
	}
	require.NotNil(t, published)

	a, b := &capturingSink{}, &capturingSink{err: errors.New("smtp down")}
	h := NewHandler(nil, zap.NewNop(), b, a)

	require.NoError(t, h.Handle(context.Background(), published))

	// a failing sink must not block the others
	require.Len(t, a.events, 1)
	assert.Equal(t, OutcomePublished, a.events[0].Outcome)
	assert.Equal(t, "https://www.vinted.fr/items/7", a.events[0].URL)
	assert.Equal(t, listingID, a.events[0].ListingID)
	// without a listing lookup the title falls back to the ID
	assert.Equal(t, listingID.String(), a.events[0].Title)
}

func TestHandlerIgnoresOtherEvents(t *testing.T) {
	h := NewHandler(nil, zap.NewNop())
	ev := shared.NewBaseDomainEvent("listing.created", "Listing", uuid.New())
	assert.NoError(t, h.Handle(context.Background(), &ev))
}
