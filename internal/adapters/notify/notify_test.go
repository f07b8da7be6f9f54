package notify_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/okian/gigradar/internal/adapters/httpclient"
	"github.com/okian/gigradar/internal/adapters/notify"
	"github.com/okian/gigradar/internal/domain/dates"
	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type captured struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func (c *captured) handler(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	c.mu.Lock()
	c.bodies = append(c.bodies, body)
	c.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func matchesFor(n int) []model.MatchResult {
	out := make([]model.MatchResult, n)
	for i := range out {
		out[i] = model.MatchResult{
			Event: model.CatalogEvent{
				Title:      "Show",
				Venue:      "The Earl",
				Date:       dates.Parse("2026-11-20T20:00:00Z"),
				URL:        "https://tickets.example",
				Performers: []string{"A", "B", "C", "D"},
			},
			Artist: "A",
			Score:  0.97,
		}
	}
	return out
}

func TestWebhook(t *testing.T) {
	Convey("Given a webhook endpoint", t, func() {
		c := &captured{}
		srv := httptest.NewServer(http.HandlerFunc(c.handler))
		defer srv.Close()
		hook := notify.NewWebhook(httpclient.New(srv.URL, httpclient.WithInterval(0)))
		ctx := context.Background()

		Convey("When matches are ready", func() {
			So(hook.OnMatchesReady(ctx, "alice", matchesFor(7)), ShouldBeNil)

			Convey("Then one embed with at most five fields is posted", func() {
				So(c.bodies, ShouldHaveLength, 1)
				embeds := c.bodies[0]["embeds"].([]any)
				e := embeds[0].(map[string]any)
				So(e["title"], ShouldEqual, "Event recommendations for alice")
				So(e["fields"], ShouldHaveLength, 5)
				field := e["fields"].([]any)[0].(map[string]any)
				So(field["value"], ShouldContainSubstring, "Matched: A (97%)")
				So(field["value"], ShouldContainSubstring, "Artists: A, B, C +1 more")
				So(field["value"], ShouldContainSubstring, "[Tickets](https://tickets.example)")
				So(e["footer"], ShouldResemble, map[string]any{"text": "+2 more matches"})
			})
		})

		Convey("When there are no matches or batch progress is disabled", func() {
			So(hook.OnMatchesReady(ctx, "bob", nil), ShouldBeNil)
			So(hook.OnBatchComplete(ctx, nil, 1, 2), ShouldBeNil)
			So(c.bodies, ShouldBeEmpty)
		})

		Convey("When batch progress is enabled", func() {
			progress := notify.NewWebhook(httpclient.New(srv.URL, httpclient.WithInterval(0)), notify.WithBatchProgress(true))
			So(progress.OnBatchComplete(ctx, make([]model.CatalogEvent, 4), 2, 3), ShouldBeNil)
			So(c.bodies[0]["content"], ShouldEqual, "Batch 2/3 complete: 4 events found")
		})
	})
}

type failingSink struct{ err error }

func (f failingSink) OnBatchComplete(context.Context, []model.CatalogEvent, int, int) error {
	return f.err
}
func (f failingSink) OnMatchesReady(context.Context, string, []model.MatchResult) error { return f.err }

func TestMulti(t *testing.T) {
	Convey("Given several sinks, some failing", t, func() {
		errA, errB := errors.New("a"), errors.New("b")
		m := notify.Multi{failingSink{errA}, notify.NewLog(logger.NewNop()), failingSink{errB}}

		err := m.OnBatchComplete(context.Background(), nil, 1, 1)
		So(errors.Is(err, errA), ShouldBeTrue)
		So(errors.Is(err, errB), ShouldBeTrue)

		So(notify.Multi{notify.NewLog(nil)}.OnMatchesReady(context.Background(), "x", matchesFor(1)), ShouldBeNil)
	})
}
