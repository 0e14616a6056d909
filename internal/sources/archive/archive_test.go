package archive

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/logx"
	"trustscan/internal/testutil"
)

func newTestArchive(t *testing.T, handler http.HandlerFunc) (*Archive, *testutil.RecordingServer) {
	t.Helper()
	server := testutil.NewRecordingServer(t, handler)

	c, err := factory(ports.CollectorConfig{
		Timeout: 2 * time.Second,
		Custom:  map[string]interface{}{"base_url": server.URL + "/cdx"},
	}, logx.Nop())
	testutil.AssertNoError(t, err, "factory")

	a := c.(*Archive)
	a.now = func() time.Time { return time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC) }
	return a, server
}

func target(t *testing.T) domain.Target {
	t.Helper()
	tg, err := domain.NewTarget("https://www.example.com/pricing")
	testutil.AssertNoError(t, err, "target")
	return *tg
}

func TestArchive_Collect(t *testing.T) {
	body := `[["timestamp"],["20140101120000"],["20150601000000"],["20230101000000"]]`
	a, server := newTestArchive(t, testutil.StaticHandler(http.StatusOK, "application/json", body))

	ev, err := a.Collect(context.Background(), target(t), nil)
	testutil.AssertNoError(t, err, "collect")

	data := ev.(*domain.ArchiveData)
	testutil.AssertTrue(t, data.Found, "found")
	testutil.AssertEqual(t, *data.SnapshotCount, 3, "snapshot count")
	testutil.AssertEqual(t, data.FirstSnapshot, "2014-01-01T12:00:00Z", "first snapshot")
	testutil.AssertEqual(t, *data.OldestSnapshotAgeDays, 3661, "age in days")

	q, _ := url.ParseQuery(server.Requests()[0].Query)
	testutil.AssertEqual(t, q.Get("url"), "www.example.com", "queries the hostname")
	testutil.AssertEqual(t, q.Get("matchType"), "prefix", "prefix match")
	testutil.AssertEqual(t, q.Get("limit"), "1000", "limit")
}

func TestArchive_NoSnapshots(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty array", `[]`},
		{"header only", `[["timestamp"]]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestArchive(t, testutil.StaticHandler(http.StatusOK, "application/json", tt.body))

			ev, err := a.Collect(context.Background(), target(t), nil)
			testutil.AssertNoError(t, err, "collect")

			data := ev.(*domain.ArchiveData)
			testutil.AssertFalse(t, data.Found, "not found")
			testutil.AssertTrue(t, data.SnapshotCount == nil, "unknown count")
		})
	}
}

func TestArchive_ServerError(t *testing.T) {
	a, _ := newTestArchive(t, testutil.StaticHandler(http.StatusServiceUnavailable, "", ""))

	ev, err := a.Collect(context.Background(), target(t), nil)
	testutil.AssertError(t, err, "503")
	testutil.AssertNil(t, ev, "no evidence")
}

func TestParseTimestamp(t *testing.T) {
	ts, err := parseTimestamp("20200315")
	testutil.AssertNoError(t, err, "short timestamp")
	testutil.AssertEqual(t, ts.Format(time.RFC3339), "2020-03-15T00:00:00Z", "padded")

	_, err = parseTimestamp("2020")
	testutil.AssertError(t, err, "too short")
}
