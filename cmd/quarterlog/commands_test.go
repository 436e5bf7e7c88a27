package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/quarterlog/internal/api"
	"github.com/kalambet/quarterlog/internal/config"
	"github.com/kalambet/quarterlog/internal/journal"
	"github.com/kalambet/quarterlog/internal/pattern"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Source string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Source: r.Header.Get("X-Quarterlog-Source"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"plan not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestLogRequest_Posted(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /entries": `{"id":"e-1","timestamp":"2026-03-04T09:15:00Z","text":"wrote tests","type":"WIN","category":"MAKER","feedback":"Logged."}`,
	})

	req, err := buildLogRequest("wrote tests", "WIN", "", "", "", time.Now())
	require.NoError(t, err)
	resp, err := ts.client().post(ctx, "/entries", req)
	require.NoError(t, err)
	var e journal.Entry
	require.NoError(t, decodeJSON(resp, &e))
	assert.Equal(t, journal.OutcomeWin, e.Outcome)
	assert.Equal(t, journal.CategoryMaker, e.Category)

	require.Len(t, ts.requests, 1)
	r := ts.requests[0]
	assert.Equal(t, "cli", r.Source)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.Body), &body))
	assert.Equal(t, "wrote tests", body["text"])
	assert.Equal(t, "WIN", body["type"])
	assert.NotContains(t, body, "timestamp", "no timestamp without --at/--date")
}

func TestBuildLogRequest(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 37, 0, 0, time.UTC)

	tests := []struct {
		name    string
		at      string
		date    string
		want    time.Time
		wantErr bool
	}{
		{name: "at only", at: "09:15", want: time.Date(2026, 3, 4, 9, 15, 0, 0, time.UTC)},
		{name: "date only keeps clock", date: "2026-03-01", want: time.Date(2026, 3, 1, 10, 37, 0, 0, time.UTC)},
		{name: "both", at: "23:45", date: "2026-02-28", want: time.Date(2026, 2, 28, 23, 45, 0, 0, time.UTC)},
		{name: "bad time", at: "25:00", wantErr: true},
		{name: "bad date", date: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := buildLogRequest("x", "", "", tt.at, tt.date, now)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, req.Timestamp)
			assert.True(t, req.Timestamp.Equal(tt.want), "Timestamp = %v, want %v", req.Timestamp, tt.want)
		})
	}

	_, err := buildLogRequest("   ", "", "", "", "", now)
	assert.Error(t, err, "empty text should be rejected")
}

func TestOutcomeFromFlags(t *testing.T) {
	got, err := outcomeFromFlags(false, true, false)
	require.NoError(t, err)
	assert.Equal(t, "LOSS", got)

	got, err = outcomeFromFlags(false, false, false)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = outcomeFromFlags(true, false, true)
	assert.Error(t, err, "--win and --draw together")
}

func TestLogCommand_MissingArgs(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"log"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arg")
}

func TestWindowQuery(t *testing.T) {
	tests := []struct {
		period, date, want string
	}{
		{"", "", ""},
		{"W", "", "period=W"},
		{"3M", "2026-03-04", "date=2026-03-04&period=3M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, windowQuery(tt.period, tt.date), "windowQuery(%q, %q)", tt.period, tt.date)
	}
}

func TestParseWeekdays(t *testing.T) {
	got, err := parseWeekdays("mon, Tuesday,5,sun")
	require.NoError(t, err)
	want := []time.Weekday{time.Monday, time.Tuesday, time.Friday, time.Sunday}
	assert.Equal(t, want, got)

	_, err = parseWeekdays("mon,funday")
	assert.Error(t, err, "unknown weekday")
	_, err = parseWeekdays("7")
	assert.Error(t, err, "weekday 7")
	assert.Equal(t, "Mon,Tue,Fri,Sun", formatWeekdays(want))
	assert.Equal(t, "every day", formatWeekdays(nil))
}

func TestFetchPlan_Missing(t *testing.T) {
	ts := newTestServer(t, map[string]string{})

	p, found, err := fetchPlan(ctx, ts.client(), "2026-03-04")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "2026-03-04", p.DateKey)
}

func TestFetchPlan_Existing(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /plans/2026-03-04": `{"date":"2026-03-04","dragon":"ship it","pillars":[],"constraints":[],"blocks":[{"start_time":"09:00","label":"Deep Work","category":"MAKER"}]}`,
	})

	p, found, err := fetchPlan(ctx, ts.client(), "2026-03-04")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ship it", p.Dragon)
	require.Len(t, p.Blocks, 1)
	assert.Equal(t, journal.TimeOfDay(9*60), p.Blocks[0].Start)
}

func TestStatusCommand_Stopped(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	client := ts.client()
	_, err := client.get(ctx, "/health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reachable")
}

func TestDecodeJSON_ErrorResponse(t *testing.T) {
	ts := newTestServer(t, map[string]string{})

	resp, err := ts.client().get(ctx, "/plans/2026-03-04")
	require.NoError(t, err)
	var v map[string]any
	err = decodeJSON(resp, &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "plan not found")
}

func TestDecodeJSON_NoContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := &apiClient{baseURL: ts.URL, httpClient: ts.Client()}
	resp, err := c.delete(ctx, "/entries/e-1")
	require.NoError(t, err)
	assert.NoError(t, decodeJSON(resp, nil))
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	assert.Equal(t, "test message", colorize(colorGreen, "test message"))

	noColor = false
	assert.Contains(t, colorize(colorGreen, "test message"), "\033[", "colorize with noColor=false should emit ANSI codes")
}

func TestFormatEntry(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = true

	e := journal.Entry{
		Timestamp: time.Date(2026, 3, 4, 9, 15, 0, 0, time.UTC),
		Text:      "wrote tests",
		Outcome:   journal.OutcomeWin,
		Category:  journal.CategoryMaker,
	}
	got := formatEntry(e, time.UTC)
	assert.True(t, strings.HasPrefix(got, "09:15  WIN "), "formatEntry = %q", got)
	assert.True(t, strings.HasSuffix(got, "wrote tests"), "formatEntry = %q", got)
}

func TestBar(t *testing.T) {
	tests := []struct {
		value, width, filled int
	}{
		{0, 10, 0},
		{55, 10, 5},
		{100, 10, 10},
		{130, 10, 10},
	}
	for _, tt := range tests {
		got := bar(tt.value, tt.width)
		assert.Equal(t, tt.filled, strings.Count(got, "█"), "bar(%d, %d) filled", tt.value, tt.width)
		assert.Equal(t, tt.width, strings.Count(got, "█")+strings.Count(got, "░"), "bar(%d, %d) width", tt.value, tt.width)
	}
}

func TestPrintInsights(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = true

	var buf bytes.Buffer
	printInsights(&buf, api.InsightsView{Insights: []pattern.Insight{}, MinEntries: 20, TotalEntries: 12})
	assert.Contains(t, buf.String(), "Log 8 more entries")

	buf.Reset()
	printInsights(&buf, api.InsightsView{Insights: []pattern.Insight{{
		Icon: "⚠️", Headline: "You've hit 4 losses in a row before", Detail: "Take a break.", Severity: pattern.SeverityWarning,
	}}})
	assert.Contains(t, buf.String(), "4 losses in a row")
	assert.Contains(t, buf.String(), "Take a break.")
}

func TestConfigShowAll(t *testing.T) {
	keys := config.ShowAll(config.Config{})
	assert.Len(t, keys, len(config.ValidKeys()))
	for _, k := range keys {
		assert.NotEmpty(t, k.Key)
	}
}

func TestDayCount(t *testing.T) {
	assert.Equal(t, "1 day", dayCount(1))
	assert.Equal(t, "3 days", dayCount(3))
}
