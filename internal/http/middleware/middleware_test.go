package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	apierrors "github.com/pribylovaa/wishlist-service/internal/errors"
	"github.com/pribylovaa/wishlist-service/internal/metrics"
	"github.com/pribylovaa/wishlist-service/internal/models"
	"github.com/pribylovaa/wishlist-service/internal/pkg/log"
	"github.com/pribylovaa/wishlist-service/internal/service"
)

// capHandler — тестовый slog.Handler, который:
//   - аккумулирует базовые attrs, приходящие через Logger.With(...);
//   - собирает attrs последней записи в map[string]any;
//   - ничего не пишет наружу.
type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)

	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}

	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.count++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out

	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) > 0 {
		h.base = append(h.base, attrs...)
	}

	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func makeReq(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}).String()
	return req
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) apierrors.ErrorResponse {
	t.Helper()

	var env apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))

	return env
}

func TestChain_Order(t *testing.T) {
	order := []string{}

	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+"-begin")
				next.ServeHTTP(w, r)
				order = append(order, name+"-end")
			})
		}
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	Chain(final, mk("m1"), mk("m2")).ServeHTTP(rr, makeReq("/chain"))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	var seenHeader, seenCtx string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHeader = r.Header.Get(HeaderRequestID)
		seenCtx = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	Chain(h, RequestID()).ServeHTTP(rr, makeReq("/rid"))

	respID := rr.Header().Get(HeaderRequestID)
	require.Len(t, respID, 32)
	require.NotContains(t, respID, "-")
	require.Equal(t, respID, seenHeader)
	require.Equal(t, respID, seenCtx)
}

func TestRequestID_UseExisting(t *testing.T) {
	const given = "abc123-existing-id"
	var seenCtx string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenCtx = RequestIDFrom(r.Context())
	})

	rr := httptest.NewRecorder()
	req := makeReq("/rid2")
	req.Header.Set(HeaderRequestID, given)
	Chain(h, RequestID()).ServeHTTP(rr, req)

	require.Equal(t, given, rr.Header().Get(HeaderRequestID))
	require.Equal(t, given, seenCtx)
}

func TestRequestID_ReplacesOversized(t *testing.T) {
	rr := httptest.NewRecorder()
	req := makeReq("/rid3")
	req.Header.Set(HeaderRequestID, strings.Repeat("x", maxRequestIDLen+1))

	Chain(http.NotFoundHandler(), RequestID()).ServeHTTP(rr, req)

	require.Len(t, rr.Header().Get(HeaderRequestID), 32)
}

func TestRequestIDFrom_Empty(t *testing.T) {
	require.Empty(t, RequestIDFrom(context.Background()))
}

func TestTimeout_SetsDeadline(t *testing.T) {
	var hasDeadline bool
	var left time.Duration

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dl, ok := r.Context().Deadline()
		hasDeadline = ok
		if ok {
			left = time.Until(dl)
		}
	})

	rr := httptest.NewRecorder()
	Chain(h, Timeout(50*time.Millisecond)).ServeHTTP(rr, makeReq("/timeout"))

	require.True(t, hasDeadline)
	require.Greater(t, left, time.Duration(0))
}

func TestTimeout_ZeroIsNoop(t *testing.T) {
	var hasDeadline bool

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	})

	rr := httptest.NewRecorder()
	Chain(h, Timeout(0)).ServeHTTP(rr, makeReq("/timeout0"))

	require.False(t, hasDeadline)
}

func TestTimeout_DoesNotOverrideExistingDeadline(t *testing.T) {
	var childDL time.Time

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		childDL, _ = r.Context().Deadline()
	})

	parent, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	rr := httptest.NewRecorder()
	Chain(h, Timeout(time.Second)).ServeHTTP(rr, makeReq("/timeout2").WithContext(parent))

	parentDL, _ := parent.Deadline()
	require.WithinDuration(t, parentDL, childDL, time.Millisecond)
}

func TestRecover_ConvertsPanicTo500(t *testing.T) {
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom: secret detail")
	})

	capH := &capHandler{}
	req := makeReq("/panic")
	req = req.WithContext(log.Into(req.Context(), slog.New(capH)))

	rr := httptest.NewRecorder()
	Chain(panicHandler, Recover()).ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.NotContains(t, rr.Body.String(), "secret detail")

	env := decodeEnvelope(t, rr)
	require.Equal(t, "internal", env.Error.Code)

	require.Equal(t, "panic", capH.lastMsg)
	require.Equal(t, slog.LevelError, capH.lastLvl)
}

func TestLogging_WritesRecord_WithStatusDurBytesAndRequestID(t *testing.T) {
	h := &capHandler{}

	const rid = "rid-456"
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	})

	// RequestID до Logging, чтобы id попал в attrs лога.
	handler := Chain(final, RequestID(), Logging(slog.New(h)))

	rr := httptest.NewRecorder()
	req := makeReq("/log")
	req.Header.Set(HeaderRequestID, rid)
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, h.count)
	require.Equal(t, "http", h.lastMsg)
	require.Equal(t, slog.LevelInfo, h.lastLvl)

	method, _ := h.attrs["method"].(string)
	path, _ := h.attrs["path"].(string)
	status, _ := h.attrs["status"].(int64)
	bytes, _ := h.attrs["bytes"].(int64)
	ridAttr, _ := h.attrs["request_id"].(string)

	require.Equal(t, http.MethodGet, method)
	require.Equal(t, "/log", path)
	require.EqualValues(t, http.StatusOK, status)
	require.EqualValues(t, 10, bytes)
	require.Equal(t, rid, ridAttr)

	_, hasDur := h.attrs["dur"]
	require.True(t, hasDur)
}

func TestLogging_ServerErrorLoggedAsError(t *testing.T) {
	h := &capHandler{}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	rr := httptest.NewRecorder()
	Chain(final, Logging(slog.New(h))).ServeHTTP(rr, makeReq("/fail"))

	require.Equal(t, slog.LevelError, h.lastLvl)
}

func TestStatusWriter_CountsBytes_AndDefaultStatus200(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := newStatusWriter(rr)

	require.Equal(t, http.StatusOK, sw.Status())

	_, _ = sw.Write([]byte("abcd"))
	sw.WriteHeader(http.StatusTeapot)

	require.Equal(t, http.StatusOK, sw.Status())
	require.Equal(t, 4, sw.count)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/wishlists/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, makeReq("/wishlists/65e0a0c9fd2f000000000001"))
	require.Equal(t, http.StatusAccepted, rr.Code)

	families, err := reg.Gather()
	require.NoError(t, err)

	var route, status string
	for _, f := range families {
		if f.GetName() != "wishlist_http_requests_total" {
			continue
		}

		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				switch lp.GetName() {
				case "route":
					route = lp.GetValue()
				case "status":
					status = lp.GetValue()
				}
			}
		}
	}

	require.Equal(t, "/wishlists/{id}", route)
	require.Equal(t, "202", status)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	called := false
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	rr := httptest.NewRecorder()
	Chain(h, Metrics(nil)).ServeHTTP(rr, makeReq("/x"))

	require.True(t, called)
}

type stubResolver struct {
	gotToken string
	session  *models.Session
	err      error
}

func (s *stubResolver) ResolveSession(_ context.Context, token string) (*models.Session, error) {
	s.gotToken = token
	return s.session, s.err
}

func TestSession_CookieAndBearer(t *testing.T) {
	tcs := []struct {
		name   string
		setup  func(r *http.Request)
		wantTk string
	}{
		{
			name:   "cookie",
			setup:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: "ck"}) },
			wantTk: "ck",
		},
		{
			name:   "bearer",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer br") },
			wantTk: "br",
		},
		{
			name: "cookie wins",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "token", Value: "ck"})
				r.Header.Set("Authorization", "Bearer br")
			},
			wantTk: "ck",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			res := &stubResolver{session: &models.Session{UserID: "u1", Name: "Alice"}}

			var got *models.Session
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = SessionFrom(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})

			req := makeReq("/s")
			tc.setup(req)

			rr := httptest.NewRecorder()
			Chain(h, Session(res, "token")).ServeHTTP(rr, req)

			require.Equal(t, http.StatusNoContent, rr.Code)
			require.Equal(t, tc.wantTk, res.gotToken)
			require.NotNil(t, got)
			require.Equal(t, "u1", got.UserID)
		})
	}
}

func TestSession_MissingToken_401(t *testing.T) {
	res := &stubResolver{}
	called := false
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := makeReq("/s")
	req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")

	rr := httptest.NewRecorder()
	Chain(h, Session(res, "token")).ServeHTTP(rr, req)

	require.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Empty(t, res.gotToken)
	require.Equal(t, "unauthenticated", decodeEnvelope(t, rr).Error.Code)
}

func TestSession_ResolverErrors(t *testing.T) {
	tcs := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"rejected", service.ErrUnauthenticated, http.StatusUnauthorized},
		{"internal", service.ErrInternal, http.StatusInternalServerError},
		{"canceled", context.Canceled, apierrors.StatusClientClosedRequest},
		{"opaque", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			res := &stubResolver{err: tc.err}
			called := false
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

			req := makeReq("/s")
			req.Header.Set("Authorization", "Bearer t")

			rr := httptest.NewRecorder()
			Chain(h, Session(res, "token")).ServeHTTP(rr, req)

			require.False(t, called)
			require.Equal(t, tc.wantStatus, rr.Code)
		})
	}
}

func TestSessionFrom_Absent(t *testing.T) {
	_, ok := SessionFrom(context.Background())
	require.False(t, ok)
}
