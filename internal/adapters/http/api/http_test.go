package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/stepflow/stepflow/internal/adapters/http/api"
	service "github.com/stepflow/stepflow/internal/app"
	"github.com/stepflow/stepflow/internal/domain/model"
	"github.com/stepflow/stepflow/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func newTestMux() *http.ServeMux {
	mux := http.NewServeMux()
	svc := service.New(service.WithVersion("1.2.3"))
	api.NewServer(svc).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlePredict(t *testing.T) {
	Convey("Given the registered routes", t, func() {
		mux := newTestMux()

		Convey("When a valid motion is posted", func() {
			body := `{
				"frames": [
					{"timestamp": 0.0, "keypoints": [{"x": 0.1, "y": 0.2, "confidence": 0.9}]},
					{"timestamp": 0.033, "keypoints": [{"x": 0.15, "y": 0.2, "confidence": 0.9}]},
					{"timestamp": 0.066, "keypoints": [{"x": 0.2, "y": 0.2, "confidence": 0.9}]}
				],
				"audio_bpm": 120
			}`
			rec := do(mux, http.MethodPost, "/predict", body)

			Convey("Then the full assessment is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")

				var result model.PredictionResult
				So(json.Unmarshal(rec.Body.Bytes(), &result), ShouldBeNil)
				So(result.PredictionID, ShouldNotBeBlank)
				So(result.OverallScore, ShouldBeBetweenOrEqual, 0, 100)
				So(result.TimingMetrics.SyncScore, ShouldBeBetweenOrEqual, 0, 1)
				So(result.MovementMetrics.FormScore, ShouldAlmostEqual, 0.9, 1e-9)
				So(result.ProcessingTimeMS, ShouldBeGreaterThanOrEqualTo, 0)
			})
		})

		Convey("When a degenerate but valid motion is posted", func() {
			rec := do(mux, http.MethodPost, "/predict", `{"frames": []}`)

			Convey("Then it is analyzed with neutral defaults, not rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var result model.PredictionResult
				So(json.Unmarshal(rec.Body.Bytes(), &result), ShouldBeNil)
				So(result.OverallScore, ShouldAlmostEqual, 84.5, 1e-9)
			})
		})

		Convey("When the frames field is absent", func() {
			rec := do(mux, http.MethodPost, "/predict", `{}`)

			Convey("Then the request is a structured 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)

				var resp struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Code, ShouldEqual, "bad_request")
				So(resp.Message, ShouldContainSubstring, "frames")
			})
		})

		Convey("When the body is not JSON", func() {
			rec := do(mux, http.MethodPost, "/predict", "not json")

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the method is not POST", func() {
			rec := do(mux, http.MethodGet, "/predict", "")

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHandleRoot(t *testing.T) {
	Convey("Given the registered routes", t, func() {
		mux := newTestMux()

		Convey("When the root is fetched", func() {
			rec := do(mux, http.MethodGet, "/", "")

			Convey("Then service identity and liveness are reported", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var resp struct {
					Service string `json:"service"`
					Version string `json:"version"`
					Status  string `json:"status"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Service, ShouldEqual, "StepFlow AI")
				So(resp.Version, ShouldEqual, "1.2.3")
				So(resp.Status, ShouldEqual, "running")
			})
		})

		Convey("When an unknown path is fetched", func() {
			So(do(mux, http.MethodGet, "/nope", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the root is posted to", func() {
			So(do(mux, http.MethodPost, "/", "{}").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHandleStats(t *testing.T) {
	Convey("Given a service that has analyzed one motion", t, func() {
		mux := newTestMux()
		So(do(mux, http.MethodPost, "/predict", `{"frames": []}`).Code, ShouldEqual, http.StatusOK)

		Convey("When stats are fetched", func() {
			rec := do(mux, http.MethodGet, "/stats", "")

			Convey("Then the counters are exposed as JSON", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var stats map[string]interface{}
				So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
				So(stats["version"], ShouldEqual, "1.2.3")
				So(stats["predictions"], ShouldEqual, 1)
				So(stats, ShouldContainKey, "averageScore")
			})
		})

		Convey("When stats are posted to", func() {
			So(do(mux, http.MethodPost, "/stats", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHandleHealth(t *testing.T) {
	Convey("Given the registered routes", t, func() {
		mux := newTestMux()

		Convey("When the health endpoint is scraped", func() {
			rec := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then the metric exposition is served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "stepflow_engine_")
			})
		})
	})
}
