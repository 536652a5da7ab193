package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/askdesk/internal/adapters/http/api"
	"github.com/okian/askdesk/internal/adapters/repository"
	service "github.com/okian/askdesk/internal/app"
	"github.com/okian/askdesk/internal/domain/analytics"
	"github.com/okian/askdesk/internal/domain/autocomplete"
	"github.com/okian/askdesk/internal/domain/matching"
	"github.com/okian/askdesk/internal/domain/model"
	"github.com/okian/askdesk/internal/seed"
	"github.com/okian/askdesk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const testToken = "s3cret"

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// brokenDeps fails every store-backed call.
type brokenDeps struct{}

var errBroken = errors.New("database is locked")

func (brokenDeps) Ask(context.Context, string) (matching.Outcome, error) {
	return matching.Outcome{}, fmt.Errorf("%w: %w", service.ErrStoreUnavailable, errBroken)
}
func (brokenDeps) ListEntries(context.Context, string) ([]model.Entry, error) { return nil, errBroken }
func (brokenDeps) Categories(context.Context) ([]string, error)               { return nil, errBroken }
func (brokenDeps) Suggest(context.Context, string, int) []autocomplete.Completion {
	return nil
}
func (brokenDeps) CreateEntry(context.Context, model.EntryInput) (model.Entry, error) {
	return model.Entry{}, errBroken
}
func (brokenDeps) UpdateEntry(context.Context, int64, model.EntryInput) (model.Entry, error) {
	return model.Entry{}, errBroken
}
func (brokenDeps) DeleteEntry(context.Context, int64) error { return errBroken }
func (brokenDeps) Analytics(context.Context) (analytics.Summary, error) {
	return analytics.Summary{}, errBroken
}
func (brokenDeps) GetStats() map[string]interface{} { return map[string]interface{}{} }

func newMux(deps api.Dependencies, stats api.StatsProvider, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, stats, opts...).Register(context.Background(), mux)
	return mux
}

func newSeededMux(t *testing.T, opts ...api.Option) (*http.ServeMux, *service.Service) {
	t.Helper()
	svc := service.New(repository.NewMemoryStore(), service.WithSeed(seed.Default()))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return newMux(svc, svc, opts...), svc
}

func do(mux http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func adminHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testToken}
}

func decode(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

func TestAsk(t *testing.T) {
	Convey("Given a server over the seeded knowledge base", t, func() {
		mux, _ := newSeededMux(t)

		Convey("When asking a question that matches", func() {
			rec := do(mux, http.MethodPost, "/api/ask", `{"question":"What is the tuition fee?"}`, nil)

			Convey("Then the answer is returned with an unclamped confidence", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")

				var body map[string]any
				So(decode(rec, &body), ShouldBeNil)
				So(body["found"], ShouldEqual, true)
				So(body["question"], ShouldEqual, "What are the tuition fees?")
				So(body["category"], ShouldEqual, "Fees")
				So(body["confidence"], ShouldEqual, 135.0)
				So(body["answer"], ShouldContainSubstring, "Tuition fees vary by program")
				So(body, ShouldContainKey, "suggestions")
				So(body, ShouldNotContainKey, "message")
			})
		})

		Convey("When asking a question nothing matches", func() {
			rec := do(mux, http.MethodPost, "/api/ask", `{"question":"weekend buses"}`, nil)

			Convey("Then the no-match message carries five suggestions", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body api.AskResponse
				So(decode(rec, &body), ShouldBeNil)
				So(body.Found, ShouldBeFalse)
				So(body.Message, ShouldEqual, matching.NoMatchMessage)
				So(body.Suggestions, ShouldHaveLength, 5)
				So(body.Confidence, ShouldBeNil)
			})
		})

		Convey("When the question is blank", func() {
			rec := do(mux, http.MethodPost, "/api/ask", `{"question":"   "}`, nil)

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				var body map[string]string
				So(decode(rec, &body), ShouldBeNil)
				So(body["code"], ShouldEqual, "bad_request")
				So(body["message"], ShouldContainSubstring, "question is required")
			})
		})

		Convey("When the body is not JSON", func() {
			rec := do(mux, http.MethodPost, "/api/ask", `question=hi`, nil)

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the question is too long", func() {
			long := strings.Repeat("a", 2000)
			rec := do(mux, http.MethodPost, "/api/ask", `{"question":"`+long+`"}`, nil)

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When using the wrong method", func() {
			rec := do(mux, http.MethodGet, "/api/ask", "", nil)

			Convey("Then the route does not accept it", func() {
				So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})

	Convey("Given a server over an empty knowledge base", t, func() {
		svc := service.New(repository.NewMemoryStore())
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc, svc)

		Convey("When asking anything", func() {
			rec := do(mux, http.MethodPost, "/api/ask", `{"question":"tuition"}`, nil)

			Convey("Then the empty message is returned without suggestions", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body map[string]any
				So(decode(rec, &body), ShouldBeNil)
				So(body["found"], ShouldEqual, false)
				So(body["message"], ShouldEqual, matching.EmptyMessage)
				So(body, ShouldNotContainKey, "suggestions")
			})
		})
	})

	Convey("Given a server over a single entry", t, func() {
		store := repository.NewMemoryStore()
		_, err := store.CreateEntry(context.Background(), model.EntryInput{
			Question: "What are the tuition fees?",
			Answer:   "A",
			Keywords: []string{"fees", "tuition"},
		})
		So(err, ShouldBeNil)
		svc := service.New(store)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc, svc)

		Convey("When the question matches with no runner-up", func() {
			rec := do(mux, http.MethodPost, "/api/ask", `{"question":"tuition fees"}`, nil)

			Convey("Then suggestions is present as an empty list", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body map[string]any
				So(decode(rec, &body), ShouldBeNil)
				So(body["found"], ShouldEqual, true)
				So(body, ShouldContainKey, "suggestions")
				So(body["suggestions"], ShouldResemble, []any{})
			})
		})
	})

	Convey("Given a server whose store is failing", t, func() {
		mux := newMux(brokenDeps{}, brokenDeps{})

		Convey("When asking a question", func() {
			rec := do(mux, http.MethodPost, "/api/ask", `{"question":"tuition"}`, nil)

			Convey("Then a generic internal error is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				So(rec.Body.String(), ShouldNotContainSubstring, "database is locked")
			})
		})

		Convey("When listing entries", func() {
			rec := do(mux, http.MethodGet, "/api/faqs", "", nil)

			Convey("Then a generic internal error is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestPublicEntries(t *testing.T) {
	Convey("Given a server over the seeded knowledge base", t, func() {
		mux, _ := newSeededMux(t)

		Convey("When listing entries by category", func() {
			rec := do(mux, http.MethodGet, "/api/faqs?category=Admissions", "", nil)

			Convey("Then only that category is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var entries []model.Entry
				So(decode(rec, &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				for _, e := range entries {
					So(e.Category, ShouldEqual, "Admissions")
				}
			})
		})

		Convey("When listing categories", func() {
			rec := do(mux, http.MethodGet, "/api/categories", "", nil)

			Convey("Then each distinct category appears once", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var cats []string
				So(decode(rec, &cats), ShouldBeNil)
				So(cats, ShouldHaveLength, 4)
				So(cats, ShouldContain, "Fees")
			})
		})

		Convey("When completing a prefix", func() {
			rec := do(mux, http.MethodGet, "/api/suggest?prefix=tuit&limit=3", "", nil)

			Convey("Then the matching question is suggested", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var out []autocomplete.Completion
				So(decode(rec, &out), ShouldBeNil)
				So(out, ShouldHaveLength, 1)
				So(out[0].Question, ShouldEqual, "What are the tuition fees?")
			})
		})

		Convey("When the limit is not a number", func() {
			rec := do(mux, http.MethodGet, "/api/suggest?prefix=what&limit=lots", "", nil)

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When nothing completes the prefix", func() {
			rec := do(mux, http.MethodGet, "/api/suggest?prefix=zzz", "", nil)

			Convey("Then an empty list is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(rec.Body.String()), ShouldEqual, "[]")
			})
		})
	})
}

func TestAdmin(t *testing.T) {
	Convey("Given a server with an admin token", t, func() {
		mux, svc := newSeededMux(t, api.WithAdminToken(testToken))

		Convey("When calling an admin route without credentials", func() {
			rec := do(mux, http.MethodGet, "/api/admin/faqs", "", nil)

			Convey("Then the request is unauthorized", func() {
				So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When calling an admin route with the wrong token", func() {
			rec := do(mux, http.MethodGet, "/api/admin/faqs", "", map[string]string{"Authorization": "Bearer nope"})

			Convey("Then the request is unauthorized", func() {
				So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When creating an entry with comma-separated keywords", func() {
			body := `{"question":"Is there parking?","answer":"Yes, lot B.","keywords":"parking, car ,lot","category":"Campus"}`
			rec := do(mux, http.MethodPost, "/api/admin/faqs", body, adminHeader())

			Convey("Then it is stored and becomes answerable", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				var created map[string]any
				So(decode(rec, &created), ShouldBeNil)
				So(created["message"], ShouldEqual, api.MsgEntryCreated)
				id := int64(created["id"].(float64))

				e, err := svc.Entry(context.Background(), id)
				So(err, ShouldBeNil)
				So(e.Keywords, ShouldResemble, []string{"parking", "car", "lot"})

				ask := do(mux, http.MethodPost, "/api/ask", `{"question":"parking lot"}`, nil)
				var out api.AskResponse
				So(decode(ask, &out), ShouldBeNil)
				So(out.Found, ShouldBeTrue)
				So(out.Question, ShouldEqual, "Is there parking?")

				Convey("And it can be updated", func() {
					upd := `{"question":"Is there parking on campus?","answer":"Yes.","keywords":["parking"],"category":"Campus"}`
					rec := do(mux, http.MethodPut, fmt.Sprintf("/api/admin/faqs/%d", id), upd, adminHeader())
					So(rec.Code, ShouldEqual, http.StatusOK)

					e, err := svc.Entry(context.Background(), id)
					So(err, ShouldBeNil)
					So(e.Question, ShouldEqual, "Is there parking on campus?")
				})

				Convey("And it can be deleted", func() {
					rec := do(mux, http.MethodDelete, fmt.Sprintf("/api/admin/faqs/%d", id), "", adminHeader())
					So(rec.Code, ShouldEqual, http.StatusOK)

					again := do(mux, http.MethodDelete, fmt.Sprintf("/api/admin/faqs/%d", id), "", adminHeader())
					So(again.Code, ShouldEqual, http.StatusNotFound)
				})
			})
		})

		Convey("When creating an entry without an answer", func() {
			rec := do(mux, http.MethodPost, "/api/admin/faqs", `{"question":"Q?"}`, adminHeader())

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When updating an unknown entry", func() {
			upd := `{"question":"Q?","answer":"A.","keywords":[],"category":"General"}`
			rec := do(mux, http.MethodPut, "/api/admin/faqs/9999", upd, adminHeader())

			Convey("Then it is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the id is not a number", func() {
			rec := do(mux, http.MethodDelete, "/api/admin/faqs/abc", "", adminHeader())

			Convey("Then the request is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When reading analytics", func() {
			_ = do(mux, http.MethodPost, "/api/ask", `{"question":"What is the tuition fee?"}`, nil)
			rec := do(mux, http.MethodGet, "/api/admin/analytics", "", adminHeader())

			Convey("Then the summary is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var sum map[string]any
				So(decode(rec, &sum), ShouldBeNil)
				So(sum, ShouldContainKey, "totalInteractions")
				So(sum, ShouldContainKey, "matchRatePercent")
				So(sum, ShouldContainKey, "topEntries")
			})
		})
	})

	Convey("Given a server without an admin token", t, func() {
		mux, _ := newSeededMux(t)

		Convey("When presenting any bearer token", func() {
			rec := do(mux, http.MethodGet, "/api/admin/analytics", "", map[string]string{"Authorization": "Bearer "})

			Convey("Then every admin route is closed", func() {
				So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given a server over the seeded knowledge base", t, func() {
		mux, _ := newSeededMux(t)

		Convey("When scraping /healthz", func() {
			rec := do(mux, http.MethodGet, "/healthz", "", nil)

			Convey("Then Prometheus metrics are served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "askdesk_faq_entries_total")
			})
		})

		Convey("When reading /stats", func() {
			rec := do(mux, http.MethodGet, "/stats", "", nil)

			Convey("Then service statistics are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var stats map[string]any
				So(decode(rec, &stats), ShouldBeNil)
				So(stats["started"], ShouldEqual, true)
				So(stats["entries"], ShouldEqual, 5.0)
			})
		})

		Convey("When a request carries an X-Request-ID", func() {
			rec := do(mux, http.MethodGet, "/api/categories", "", map[string]string{api.RequestIDHeader: "abc-123"})

			Convey("Then it is echoed back", func() {
				So(rec.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
			})
		})

		Convey("When a request has no X-Request-ID", func() {
			rec := do(mux, http.MethodGet, "/api/categories", "", nil)

			Convey("Then one is generated", func() {
				So(rec.Header().Get(api.RequestIDHeader), ShouldHaveLength, 36)
			})
		})
	})
}
