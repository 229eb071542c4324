// Package syncer pushes a serialized tracker document to a user-configured
// webhook. A push is one JSON POST; if that request never reaches the server
// a single text/plain POST follows. Nothing is retried beyond that and the
// local document is never touched.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/m72elite/m72/internal/utils"
	"github.com/m72elite/m72/pkg/storage"
	"github.com/m72elite/m72/pkg/whttp"
	"github.com/tidwall/gjson"
)

// TokenHeader carries the configured sync token.
const TokenHeader = "X-Sync-Token"

var (
	ErrNotConfigured = errors.New("sync url is not configured")
	ErrRejected      = errors.New("webhook rejected the push")
)

type Mode string

const (
	ModeJSON   Mode = "json"
	ModeSimple Mode = "simple"
)

func (m Mode) contentType() string {
	if m == ModeSimple {
		return "text/plain;charset=utf-8"
	}
	return "application/json"
}

type Target struct {
	URL   string
	Token string
}

// Attempt is the outcome of one POST.
type Attempt struct {
	Mode       Mode
	At         time.Time
	StatusCode int
	OK         bool
	Detail     string
	// Transport is true when no response was received.
	Transport bool
}

type Result struct {
	OK       bool
	Bytes    int
	Attempts []Attempt
}

// Last returns the final attempt.
func (r Result) Last() Attempt {
	if len(r.Attempts) == 0 {
		return Attempt{}
	}
	return r.Attempts[len(r.Attempts)-1]
}

// Events converts the attempts of r into sync log rows.
func (r Result) Events(url string) []storage.SyncEvent {
	out := make([]storage.SyncEvent, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		out = append(out, storage.SyncEvent{
			OccurredAt: a.At,
			URL:        url,
			Mode:       string(a.Mode),
			StatusCode: a.StatusCode,
			OK:         a.OK,
			Detail:     a.Detail,
			Bytes:      r.Bytes,
		})
	}
	return out
}

type Syncer struct {
	client *retryablehttp.Client
	now    func() time.Time
}

func New(client *retryablehttp.Client) *Syncer {
	return &Syncer{client: client, now: time.Now}
}

// Push sends payload to target. The returned error is nil only when the
// webhook accepted the push.
func (s *Syncer) Push(ctx context.Context, target Target, payload []byte) (Result, error) {
	res := Result{Bytes: len(payload)}
	if strings.TrimSpace(target.URL) == "" {
		return res, ErrNotConfigured
	}

	first, err := s.attempt(ctx, ModeJSON, target, payload)
	res.Attempts = append(res.Attempts, first)
	if first.Transport && ctx.Err() == nil {
		utils.Log.Debugf("JSON push to %s failed (%v), trying simple mode", target.URL, err)
		var second Attempt
		second, err = s.attempt(ctx, ModeSimple, target, payload)
		res.Attempts = append(res.Attempts, second)
	}

	res.OK = res.Last().OK
	if res.OK {
		utils.Log.Infof("Pushed %d bytes to %s (%s mode)", res.Bytes, target.URL, res.Last().Mode)
		return res, nil
	}
	utils.Log.Warnf("Sync to %s failed: %s", target.URL, res.Last().Detail)
	return res, err
}

func (s *Syncer) attempt(ctx context.Context, mode Mode, target Target, payload []byte) (Attempt, error) {
	a := Attempt{Mode: mode, At: s.now()}
	headers := []whttp.WHTTPHeader{{Name: "Content-Type", Value: mode.contentType()}}
	if target.Token != "" {
		headers = append(headers, whttp.WHTTPHeader{Name: TokenHeader, Value: target.Token})
	}

	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method:  "POST",
		URL:     target.URL,
		Headers: headers,
		Body:    payload,
	}, s.client)
	if err != nil {
		a.Transport = true
		a.Detail = err.Error()
		return a, err
	}

	a.StatusCode = res.StatusCode
	if err := verdict(res); err != nil {
		a.Detail = err.Error()
		return a, err
	}
	a.OK = true
	return a, nil
}

// verdict decides whether a response means the webhook accepted the push.
func verdict(res *whttp.WHTTPRes) error {
	if res.StatusCode < 200 || res.StatusCode > 299 {
		reason := res.HTTPTitle
		if reason == "" {
			reason = snippet(res.BodyString)
		}
		return fmt.Errorf("%w: HTTP %d %s", ErrRejected, res.StatusCode, reason)
	}

	body := strings.TrimSpace(res.BodyString)
	if body == "" || !gjson.Valid(body) {
		return nil
	}
	parsed := gjson.Parse(body)
	if !parsed.IsObject() {
		return nil
	}
	ok := parsed.Get("ok")
	status := parsed.Get("status")
	if (ok.Exists() && ok.Type == gjson.False) || strings.EqualFold(status.String(), "error") {
		msg := parsed.Get("error").String()
		if msg == "" {
			msg = parsed.Get("message").String()
		}
		return fmt.Errorf("%w: %s", ErrRejected, strings.TrimSpace(msg))
	}
	return nil
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
