package log

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// UserIDKey is the fiber Locals key the auth middleware stores the caller's id under.
const UserIDKey = "user_id"

// StartedKey holds the request start time; entries carry latency when it is set.
const StartedKey = "started"

const (
	LevelInfo  = "info"
	LevelAudit = "audit"
	LevelWarn  = "warn"
	LevelError = "error"
)

const redacted = "[redacted]"

// field names whose values never reach the log
var secretKeys = []string{"password", "token", "secret", "authorization"}

type entry struct {
	TS        string         `json:"ts"`
	Level     string         `json:"level"`
	ReqID     string         `json:"req_id,omitempty"`
	IP        string         `json:"ip,omitempty"`
	Method    string         `json:"method,omitempty"`
	Path      string         `json:"path,omitempty"`
	UserID    int64          `json:"user_id,omitempty"`
	Action    string         `json:"action,omitempty"`
	Status    int            `json:"status,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

func scrub(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		lk := strings.ToLower(k)
		for _, s := range secretKeys {
			if strings.Contains(lk, s) {
				v = redacted
				break
			}
		}
		out[k] = v
	}
	return out
}

func write(level string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	e := entry{TS: time.Now().UTC().Format(time.RFC3339), Level: level, Action: action, Fields: scrub(fields)}
	if c != nil {
		e.IP = c.IP()
		e.Method = c.Method()
		e.Path = c.Path()
		e.Status = c.Response().StatusCode()
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			e.ReqID = rid
		}
		if uid, ok := c.Locals(UserIDKey).(int64); ok {
			e.UserID = uid
		}
		if start, ok := c.Locals(StartedKey).(time.Time); ok {
			e.LatencyMs = time.Since(start).Milliseconds()
		}
	}
	if err != nil {
		e.Err = err.Error()
	}
	b, _ := json.Marshal(e)
	log.Println(string(b))
}

func Info(c *fiber.Ctx, action string, fields map[string]any) { write(LevelInfo, c, action, nil, fields) }
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(LevelAudit, c, action, nil, fields)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(LevelWarn, c, action, nil, fields)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(LevelError, c, action, err, fields)
}

// Event logs outside a request, e.g. from the mailer or the seeder.
func Event(level, action string, err error, fields map[string]any) {
	write(level, nil, action, err, fields)
}
