package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/bozoleague/propline/internal/adapters/catalog"
	"github.com/bozoleague/propline/internal/adapters/http/api"
	"github.com/bozoleague/propline/internal/adapters/oracle"
	service "github.com/bozoleague/propline/internal/app"
	"github.com/bozoleague/propline/internal/domain/model"
)

var testCycle = model.Cycle{Season: 2025, Week: 14}

func newTestServer(t *testing.T) (*httptest.Server, *oracle.RecordedOracle) {
	t.Helper()
	ctx := context.Background()

	lines := catalog.NewMemoryCatalog()
	lines.Add(
		model.Line{SourceID: "l-allen-py", Subject: "Josh Allen", Category: "passing yards", Threshold: 250.5, Price: -110, Cycle: testCycle},
		model.Line{SourceID: "l-chiefs-ml", Subject: "Chiefs", Category: "moneyline", Price: -180, Cycle: testCycle},
	)
	settled := oracle.NewRecordedOracle()

	svc := service.New(
		service.WithCatalog(lines),
		service.WithOracle(settled),
		service.WithWorkerCount(2),
		service.WithOracleRate(1000, 100),
	)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("starting service: %v", err)
	}
	t.Cleanup(func() { svc.Stop(context.Background()) })

	if err := svc.AddMember(ctx, "league-1", "alice"); err != nil {
		t.Fatalf("adding member: %v", err)
	}

	mux := http.NewServeMux()
	api.NewServer(svc, svc, 100).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, settled
}

func postJSON(url string, body any) (*http.Response, map[string]any) {
	raw, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	So(err, ShouldBeNil)
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func getJSON(url string, out any) *http.Response {
	resp, err := http.Get(url)
	So(err, ShouldBeNil)
	defer resp.Body.Close()
	_ = json.NewDecoder(resp.Body).Decode(out)
	return resp
}

func TestBetsEndpoint(t *testing.T) {
	Convey("Given a running API", t, func() {
		srv, _ := newTestServer(t)

		betBody := map[string]any{
			"member_id": "alice",
			"cohort_id": "league-1",
			"cycle":     "2025-w14",
			"text":      "Josh Allen passing yards",
			"direction": "over",
			"category":  "RISK",
		}

		Convey("Then a submission is accepted with a matched line", func() {
			resp, body := postJSON(srv.URL+"/bets", betBody)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			So(body["status"], ShouldEqual, "accepted")

			bet := body["bet"].(map[string]any)
			So(bet["line_id"], ShouldEqual, "l-allen-py")
			So(bet["price"], ShouldEqual, -110)
			So(bet["status"], ShouldEqual, "PENDING")

			Convey("And resubmitting reports a duplicate", func() {
				resp, body := postJSON(srv.URL+"/bets", betBody)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["duplicate"], ShouldEqual, true)
			})

			Convey("And the bet is readable by id", func() {
				var fetched map[string]any
				resp := getJSON(srv.URL+"/bets/"+bet["id"].(string), &fetched)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(fetched["raw_text"], ShouldEqual, "Josh Allen passing yards")
			})
		})

		Convey("Then a non-member submission is rejected, not stored", func() {
			bad := map[string]any{
				"member_id": "mallory",
				"cohort_id": "league-1",
				"cycle":     "2025-w14",
				"text":      "Chiefs Moneyline",
			}
			resp, body := postJSON(srv.URL+"/bets", bad)
			So(resp.StatusCode, ShouldEqual, http.StatusUnprocessableEntity)
			So(body["reason"], ShouldEqual, "not_member")
		})

		Convey("Then malformed requests get 400", func() {
			for _, bad := range []map[string]any{
				{"cohort_id": "league-1", "cycle": "2025-w14", "text": "x"},
				{"member_id": "alice", "cohort_id": "league-1", "cycle": "bogus", "text": "x"},
				{"member_id": "alice", "cohort_id": "league-1", "cycle": "2025-w14", "text": "x", "direction": "sideways"},
			} {
				resp, _ := postJSON(srv.URL+"/bets", bad)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("Then an unknown bet id is a 404", func() {
			var out map[string]any
			resp := getJSON(srv.URL+"/bets/nope", &out)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestMatchEndpoint(t *testing.T) {
	Convey("Given a running API", t, func() {
		srv, _ := newTestServer(t)

		Convey("Then a preview returns the matched line", func() {
			var out map[string]any
			resp := getJSON(srv.URL+"/match?cycle=2025-w14&text=Chiefs+Moneyline", &out)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(out["found"], ShouldEqual, true)
			So(out["line_id"], ShouldEqual, "l-chiefs-ml")
		})

		Convey("Then a missing cycle is a 400", func() {
			var out map[string]any
			resp := getJSON(srv.URL+"/match?text=whatever", &out)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestResolveFlow(t *testing.T) {
	Convey("Given a submitted bet and a recorded outcome", t, func() {
		srv, _ := newTestServer(t)

		_, body := postJSON(srv.URL+"/bets", map[string]any{
			"member_id": "alice",
			"cohort_id": "league-1",
			"cycle":     "2025-w14",
			"text":      "Josh Allen passing yards",
			"direction": "over",
			"category":  "RISK",
		})
		betID := body["bet"].(map[string]any)["id"].(string)

		resp, _ := postJSON(srv.URL+"/outcomes", map[string]any{
			"line_id":     "l-allen-py",
			"outcome":     "under",
			"observed_at": time.Now().Format(time.RFC3339),
		})
		So(resp.StatusCode, ShouldEqual, http.StatusAccepted)

		Convey("Then a forced pass resolves it", func() {
			resp, report := postJSON(srv.URL+"/resolve", map[string]any{"cycle": "2025-w14", "force": true})
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(report["resolved"], ShouldEqual, 1)

			var bet map[string]any
			getJSON(srv.URL+"/bets/"+betID, &bet)
			So(bet["status"], ShouldEqual, "MISS")

			Convey("And standings and worst-miss reflect it", func() {
				var entries []map[string]any
				resp := getJSON(srv.URL+"/standings?cohort=league-1&sort=misses", &entries)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(len(entries), ShouldEqual, 1)
				So(entries[0]["misses"], ShouldEqual, 1)

				var worst map[string]any
				resp = getJSON(srv.URL+"/worst-miss?cycle=2025-w14", &worst)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(worst["id"], ShouldEqual, betID)
			})
		})

		Convey("Then an empty cycle has no worst miss", func() {
			var out map[string]any
			resp := getJSON(srv.URL+"/worst-miss?cycle=2025-w1", &out)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}
