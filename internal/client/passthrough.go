package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// passthroughTransport adds the unrecognised extras of a profile to every
// JSON request body as top-level fields. Fields already set by the provider
// win, so an extra can never replace the model, messages or stream flag.
type passthroughTransport struct {
	base  http.RoundTripper
	extra map[string]json.RawMessage
}

func newPassthroughTransport(base http.RoundTripper, extra map[string]any) (*passthroughTransport, error) {
	if base == nil {
		base = http.DefaultTransport
	}
	raw := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		bts, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%s: cannot be sent as JSON: %w", k, err)
		}
		raw[k] = bts
	}
	return &passthroughTransport{base: base, extra: raw}, nil
}

func (t *passthroughTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body == nil || req.Body == http.NoBody || !isJSON(req.Header.Get("Content-Type")) {
		return t.base.RoundTrip(req)
	}

	bts, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bts, &fields); err == nil && fields != nil {
		for k, v := range t.extra {
			if _, ok := fields[k]; !ok {
				fields[k] = v
			}
		}
		if merged, err := json.Marshal(fields); err == nil {
			bts = merged
		}
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(bts))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(bts)), nil
	}
	out.ContentLength = int64(len(bts))
	return t.base.RoundTrip(out)
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

// withPassthrough returns a copy of hc whose requests carry extra.
func withPassthrough(hc *http.Client, extra map[string]any) (*http.Client, error) {
	if hc == nil {
		hc = &http.Client{}
	}
	tr, err := newPassthroughTransport(hc.Transport, extra)
	if err != nil {
		return nil, err
	}
	wrapped := *hc
	wrapped.Transport = tr
	return &wrapped, nil
}
