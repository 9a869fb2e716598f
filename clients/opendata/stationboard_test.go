package opendata

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkobak/departure-board/types"
)

// Board time base for all tests: departures are offsets from this.
var now = time.Date(2026, 8, 26, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

func stamp(minutes int) string {
	return now.Add(time.Duration(minutes) * time.Minute).Format(stampLayout)
}

func newTestClient(t *testing.T, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(srv.URL, 5*time.Second, log)
	c.now = func() time.Time { return now }
	return c
}

func TestDepartures_FilterSortAndLimit(t *testing.T) {
	body := `{"stationboard":[
		{"category":"T","number":"3","to":"Birsfelden Hard","stop":{"departure":"` + stamp(12) + `","delay":0,"platform":""}},
		{"category":"T","number":"15","to":"Bruderholz","stop":{"departure":"` + stamp(5) + `","delay":3,"platform":""}},
		{"category":"T","number":"3","to":"Burgfelderhof","stop":{"departure":"` + stamp(1) + `","delay":0,"platform":""}},
		{"category":"B","number":"37","to":"Aeschenplatz","stop":{"departure":"` + stamp(6) + `","delay":0,"platform":""}},
		{"category":"T","number":"14","to":"Pratteln","stop":{"departure":"` + stamp(20) + `","delay":0,"platform":"A"}}
	]}`
	c := newTestClient(t, body)

	rows, err := c.Departures(context.Background(), types.StopScreen{Stop: "Basel, Aeschenplatz", Limit: 3})
	if err != nil {
		t.Fatal(err)
	}

	// The 1-minute tram is unreachable and dropped; the rest sort by
	// minutes+delay; the limit keeps three.
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3: %+v", len(rows), rows)
	}
	wantOrder := []string{"37", "15", "3"}
	for i, want := range wantOrder {
		if rows[i].Number != want {
			t.Errorf("row %d: number %s, want %s (rows %+v)", i, rows[i].Number, want, rows)
		}
	}
	if rows[1].Due() != 8 {
		t.Errorf("delayed tram due = %d, want 8", rows[1].Due())
	}
}

func TestDepartures_PrognosisOverridesSchedule(t *testing.T) {
	body := `{"stationboard":[
		{"category":"T","number":"3","to":"Birsfelden Hard","stop":{"departure":"` + stamp(5) + `","delay":0,
		 "prognosis":{"departure":"` + stamp(9) + `"}}}
	]}`
	c := newTestClient(t, body)

	rows, err := c.Departures(context.Background(), types.StopScreen{Stop: "x", Limit: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Minutes != 9 {
		t.Fatalf("prognosis not applied: %+v", rows)
	}
}

func TestDepartures_DestinationFilterIsDiacriticInsensitive(t *testing.T) {
	body := `{"stationboard":[
		{"category":"T","number":"6","to":"Riehen Grenze","stop":{"departure":"` + stamp(5) + `"}},
		{"category":"T","number":"2","to":"Münchenstein","stop":{"departure":"` + stamp(4) + `"}}
	]}`
	c := newTestClient(t, body)

	rows, err := c.Departures(context.Background(),
		types.StopScreen{Stop: "x", Destination: "munchenstein", Limit: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Number != "2" {
		t.Fatalf("destination filter: %+v", rows)
	}
}

func TestDepartures_RequestShape(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = io.WriteString(w, `{"stationboard":[]}`)
	}))
	defer srv.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(srv.URL, 5*time.Second, log)

	_, err := c.Departures(context.Background(), types.StopScreen{
		Stop: "Basel, Aeschenplatz", Transports: []string{"tram", "bus"}, Limit: 4,
	})
	if err != nil {
		t.Fatal(err)
	}

	q := got.URL.Query()
	if q.Get("station") != "Basel, Aeschenplatz" {
		t.Errorf("station = %q", q.Get("station"))
	}
	// Over-fetch: limit + max(10, 2*limit).
	if q.Get("limit") != "14" {
		t.Errorf("limit = %q, want 14", q.Get("limit"))
	}
	if tr := q["transportations[]"]; len(tr) != 2 || tr[0] != "tram" || tr[1] != "bus" {
		t.Errorf("transportations = %v", tr)
	}
}

func TestDepartures_HTTPErrorSurfacesAsFetchFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(srv.URL, 5*time.Second, log)

	_, err := c.Departures(context.Background(), types.StopScreen{Stop: "x", Limit: 4})
	if err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestDepartures_BadJSONSurfacesAsDecodeFailed(t *testing.T) {
	c := newTestClient(t, `{"stationboard": nope`)
	_, err := c.Departures(context.Background(), types.StopScreen{Stop: "x", Limit: 4})
	if err == nil {
		t.Fatal("expected decode error")
	}
}
