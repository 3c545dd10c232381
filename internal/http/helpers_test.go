package handlers_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"bikeshop/internal/config"
	"bikeshop/internal/http/handlers"
	"bikeshop/internal/mail"
	"bikeshop/internal/repos"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const demoPassword = "Passw0rd!"

type fakeSender struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (f *fakeSender) Send(_ context.Context, m mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeSender) last() (mail.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return mail.Message{}, false
	}
	return f.sent[len(f.sent)-1], true
}

type testEnv struct {
	app    *fiber.App
	db     *sqlx.DB
	sender *fakeSender
	cfg    config.Config
}

// newEnv builds the app on a freshly seeded in-memory database. Limiters are off
// unless tweak turns them on.
func newEnv(t *testing.T, tweak ...func(*config.Config)) *testEnv {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repos.SeedDemo(context.Background(), db))

	cfg := config.Config{
		DBDSN:       ":memory:",
		MediaDir:    t.TempDir(),
		JWTSecret:   "test-secret",
		JWTTTL:      time.Hour,
		CORSOrigins: "*",
		Commerce:    config.DefaultCommerce(),
	}
	for _, fn := range tweak {
		fn(&cfg)
	}
	sender := &fakeSender{}
	return &testEnv{app: handlers.NewApp(cfg, db, sender), db: db, sender: sender, cfg: cfg}
}

type envelope struct {
	Status     bool            `json:"status"`
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func (e envelope) into(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, dst))
}

func (e envelope) errors(t *testing.T) map[string][]string {
	t.Helper()
	var d struct {
		Errors map[string][]string `json:"errors"`
	}
	e.into(t, &d)
	return d.Errors
}

type reqOpt func(*http.Request)

func withToken(tok string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func withCookies(cs []*http.Cookie) reqOpt {
	return func(r *http.Request) {
		for _, c := range cs {
			r.AddCookie(c)
		}
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...reqOpt) (*http.Response, envelope) {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var env envelope
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	return e.loginWith(t, email, demoPassword)
}

func (e *testEnv) loginWith(t *testing.T, email, password string) string {
	t.Helper()
	resp, env := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	var d struct {
		Token string `json:"token"`
	}
	env.into(t, &d)
	require.NotEmpty(t, d.Token)
	return d.Token
}

func (e *testEnv) productID(t *testing.T, slug string) int64 {
	t.Helper()
	p, err := repos.NewProductRepo(e.db).BySlug(context.Background(), slug)
	require.NoError(t, err)
	return p.ID
}

func (e *testEnv) variantID(t *testing.T, sku string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, e.db.Get(&id, `SELECT id FROM product_variants WHERE sku = ?`, sku))
	return id
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

// ---- log capture ----

type lockedBuf struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func (l *lockedBuf) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

type logLine struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID int64          `json:"user_id"`
	Status int            `json:"status"`
	Fields map[string]any `json:"fields"`
}

func captureLogs(t *testing.T) *lockedBuf {
	t.Helper()
	buf := &lockedBuf{}
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return buf
}

func findLog(buf *lockedBuf, action string) (logLine, bool) {
	sc := bufio.NewScanner(strings.NewReader(buf.String()))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var l logLine
		if json.Unmarshal([]byte(line), &l) == nil && l.Action == action {
			return l, true
		}
	}
	return logLine{}, false
}
