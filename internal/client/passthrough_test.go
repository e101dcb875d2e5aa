package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/yteam/internal/proto"
)

const chatStream = `data: {"id":"1","object":"chat.completion.chunk","created":0,"model":"m","choices":[{"index":0,"delta":{"role":"assistant","content":"ok"},"finish_reason":null}]}

data: {"id":"1","object":"chat.completion.chunk","created":0,"model":"m","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}

data: [DONE]

`

func TestCompleteSendsExtraParameters(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			bodies <- body
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, chatStream)
	}))
	t.Cleanup(srv.Close)

	p := kimi()
	p.Model = "m"
	p.BaseURL = srv.URL + "/v1"
	p.Extra = map[string]any{
		"seed":              42,
		"frequency_penalty": 0.5,
		"response_format":   map[string]any{"type": "text"},
		"model":             "not-this-one",
	}
	c, err := New(context.Background(), p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	out, err := c.Complete(context.Background(), []proto.Message{{Role: proto.RoleUser, Content: "hi"}}, nil)
	require.NoError(t, err)
	require.Equal(t, "ok", out)

	body := <-bodies
	require.Equal(t, "m", body["model"])
	require.InDelta(t, 42, body["seed"], 0)
	require.InDelta(t, 0.5, body["frequency_penalty"], 0)
	require.Equal(t, map[string]any{"type": "text"}, body["response_format"])
	require.Equal(t, true, body["stream"])
}

type captureTransport struct {
	body string
	size int64
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		bts, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		c.body = string(bts)
	}
	c.size = req.ContentLength
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func TestPassthroughTransport(t *testing.T) {
	send := func(t *testing.T, contentType, body string) *captureTransport {
		t.Helper()
		capture := &captureTransport{}
		tr, err := newPassthroughTransport(capture, map[string]any{"seed": 7, "model": "other"})
		require.NoError(t, err)
		req, err := http.NewRequest(http.MethodPost, "http://example.com/v1/chat/completions", strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", contentType)
		resp, err := tr.RoundTrip(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		return capture
	}

	t.Run("merges into json bodies", func(t *testing.T) {
		capture := send(t, "application/json; charset=utf-8", `{"model":"m"}`)
		require.JSONEq(t, `{"model":"m","seed":7}`, capture.body)
		require.Equal(t, int64(len(capture.body)), capture.size)
	})

	t.Run("leaves other bodies alone", func(t *testing.T) {
		capture := send(t, "text/plain", `{"model":"m"}`)
		require.Equal(t, `{"model":"m"}`, capture.body)
	})

	t.Run("leaves non-object json alone", func(t *testing.T) {
		capture := send(t, "application/json", `[1,2]`)
		require.Equal(t, `[1,2]`, capture.body)
	})

	t.Run("rejects values json cannot encode", func(t *testing.T) {
		_, err := newPassthroughTransport(nil, map[string]any{"bad": func() {}})
		require.ErrorContains(t, err, "bad")
	})
}

func TestWithPassthroughKeepsClient(t *testing.T) {
	base := &http.Client{Timeout: 42}
	hc, err := withPassthrough(base, map[string]any{"seed": 1})
	require.NoError(t, err)
	require.NotSame(t, base, hc)
	require.Nil(t, base.Transport)
	require.Equal(t, base.Timeout, hc.Timeout)
	require.IsType(t, &passthroughTransport{}, hc.Transport)
	require.Equal(t, http.DefaultTransport, hc.Transport.(*passthroughTransport).base)
}
