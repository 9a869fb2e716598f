// Package opendata fetches departures from the transport.opendata.ch
// stationboard API and reduces them to board rows.
package opendata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/mkobak/departure-board/errcode"
	"github.com/mkobak/departure-board/types"
	"github.com/mkobak/departure-board/x/strx"
)

const DefaultURL = "https://transport.opendata.ch/v1/stationboard"

// Departures closer than this are unreachable anyway; drop them so
// the top row is always a departure one can still catch.
const minWalkMinutes = 3

// The stationboard timestamp format uses a colon-less zone offset.
const stampLayout = "2006-01-02T15:04:05-0700"

type Client struct {
	base string
	hc   *http.Client
	log  *slog.Logger
	now  func() time.Time
}

func New(base string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		base: strx.Coalesce(base, DefaultURL),
		hc:   &http.Client{Timeout: timeout},
		log:  log.With("client", "opendata"),
		now:  time.Now,
	}
}

// ---- wire shapes ----

type boardResponse struct {
	Stationboard []boardEntry `json:"stationboard"`
}

type boardEntry struct {
	Category string    `json:"category"`
	Number   string    `json:"number"`
	To       string    `json:"to"`
	Stop     boardStop `json:"stop"`
}

type boardStop struct {
	Departure string         `json:"departure"`
	Delay     int            `json:"delay"`
	Platform  string         `json:"platform"`
	Prognosis boardPrognosis `json:"prognosis"`
}

type boardPrognosis struct {
	Departure string `json:"departure"`
}

// Departures fetches, filters and sorts the next departures for the
// screen. It over-fetches so that destination filtering and the
// walk-time cutoff still leave enough rows.
func (c *Client) Departures(ctx context.Context, screen types.StopScreen) ([]types.Departure, error) {
	q := url.Values{}
	q.Set("station", screen.Stop)
	q.Set("limit", fmt.Sprint(screen.Limit+fetchBuffer(screen.Limit)))
	for _, tr := range screen.Transports {
		q.Add("transportations[]", tr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &errcode.E{C: errcode.FetchFailed, Op: "opendata.Departures", Err: err}
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &errcode.E{C: errcode.FetchFailed, Op: "opendata.Departures", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &errcode.E{C: errcode.FetchFailed, Op: "opendata.Departures",
			Msg: fmt.Sprintf("stationboard status %d", resp.StatusCode)}
	}

	var body boardResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &errcode.E{C: errcode.DecodeFailed, Op: "opendata.Departures", Err: err}
	}

	return c.reduce(body, screen), nil
}

func (c *Client) reduce(body boardResponse, screen types.StopScreen) []types.Departure {
	now := c.now()
	wantDest := strx.NormalizeKey(screen.Destination)

	rows := make([]types.Departure, 0, len(body.Stationboard))
	for _, e := range body.Stationboard {
		stamp := strx.Coalesce(e.Stop.Prognosis.Departure, e.Stop.Departure)
		dep, ok := parseStamp(stamp)
		if !ok {
			c.log.Debug("unparseable departure time", "stamp", stamp)
			continue
		}
		mins := int(dep.Sub(now) / time.Minute)
		if mins < minWalkMinutes {
			continue
		}
		if wantDest != "" && strx.NormalizeKey(e.To) != wantDest {
			continue
		}
		rows = append(rows, types.Departure{
			Category:    e.Category,
			Number:      e.Number,
			Destination: e.To,
			Minutes:     mins,
			Delay:       e.Stop.Delay,
			Platform:    e.Stop.Platform,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Due() < rows[j].Due() })

	if len(rows) > screen.Limit {
		rows = rows[:screen.Limit]
	}
	return rows
}

func parseStamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(stampLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// fetchBuffer is the extra rows requested beyond the screen limit, to
// survive the walk-time cutoff and destination filtering.
func fetchBuffer(limit int) int {
	if b := limit * 2; b > 10 {
		return b
	}
	return 10
}
