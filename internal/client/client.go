// Package client builds LLM transport clients from model profiles.
//
// Construction only validates and wires a fantasy provider; nothing touches
// the network until Complete is called.
package client

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"charm.land/fantasy"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dotcommander/yteam/internal/config"
	"github.com/dotcommander/yteam/internal/errs"
	"github.com/dotcommander/yteam/internal/proto"
)

// ErrClosed is returned by Complete after Close.
var ErrClosed = errors.New("client is closed")

type streamFunc func(ctx context.Context, call fantasy.Call) (iter.Seq[fantasy.StreamPart], error)

// Client sends prompts to one model.
type Client struct {
	id      string
	api     string
	model   string
	params  Params
	limiter *rate.Limiter
	log     *zap.Logger

	provider fantasy.Provider
	stream   streamFunc

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    atomic.Bool
}

type options struct {
	httpClient *http.Client
	proxy      string
	timeout    time.Duration
	log        *zap.Logger
}

// Option configures New.
type Option func(*options)

// WithHTTPClient sets the HTTP client handed to the provider.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithProxy routes requests through an HTTP proxy. Ignored when
// WithHTTPClient is also given.
func WithProxy(proxy string) Option {
	return func(o *options) { o.proxy = proxy }
}

// WithTimeout sets the default per-request timeout. A timeout extra in the
// profile takes precedence.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// New validates p and builds a client for it.
//
// Every validation failure wraps errs.ErrTransportInit. ctx bounds the
// api_key_cmd execution only.
func New(ctx context.Context, p config.Profile, opts ...Option) (*Client, error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	fail := func(format string, a ...any) error {
		return errs.Wrapf(
			fmt.Errorf("%w: %s: %s", errs.ErrTransportInit, p.ID, fmt.Sprintf(format, a...)),
			"Could not set up model %s.", p.ID,
		)
	}

	api := normalizeAPI(p.Provider)
	if strings.TrimSpace(p.Model) == "" {
		return nil, fail("model is required")
	}

	baseURL, err := resolveBaseURL(api, p.BaseURL)
	if err != nil {
		return nil, fail("%s", err)
	}

	key, err := resolveKey(ctx, p)
	if err != nil {
		return nil, fail("%s", err)
	}
	if key == "" && keyRequired(api) {
		return nil, fail("no API key: set api_key, api_key_env or api_key_cmd")
	}

	params, err := ParseParams(p.Extra)
	if err != nil {
		return nil, fail("%s", err)
	}
	if params.Timeout == 0 {
		params.Timeout = o.timeout
	}

	hc := o.httpClient
	if hc == nil && o.proxy != "" {
		hc, err = ProxyHTTPClient(o.proxy)
		if err != nil {
			return nil, fail("%s", err)
		}
	}
	if len(params.Passthrough) > 0 {
		// Bedrock signs the body before it reaches the transport.
		if api == apiBedrock {
			return nil, fail("extra parameters %s are not supported by bedrock",
				strings.Join(params.PassthroughNames(), ", "))
		}
		hc, err = withPassthrough(hc, params.Passthrough)
		if err != nil {
			return nil, fail("%s", err)
		}
		o.log.Debug("forwarding extra request fields",
			zap.String("model", p.ID), zap.Strings("params", params.PassthroughNames()))
	}

	provider, err := newProvider(providerConfig{
		Name:       p.ID,
		API:        api,
		BaseURL:    baseURL,
		APIKey:     key,
		HTTPClient: hc,
	})
	if err != nil {
		return nil, fail("%s", err)
	}

	c := &Client{
		id:       p.ID,
		api:      api,
		model:    p.Model,
		params:   params,
		log:      o.log.With(zap.String("model", p.ID)),
		provider: provider,
	}
	if params.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(params.RequestsPerMinute)), 1)
	}
	c.stream = c.providerStream
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.log.Debug("client ready", zap.String("api", api), zap.String("upstream", p.Model))
	return c, nil
}

// ID is the profile identifier the client was built from.
func (c *Client) ID() string { return c.id }

// Model is the upstream model name.
func (c *Client) Model() string { return c.model }

// Complete sends msgs and returns the full reply. onDelta, if not nil,
// receives text as it streams in.
//
// Every failure wraps errs.ErrRequestFailure.
func (c *Client) Complete(ctx context.Context, msgs []proto.Message, onDelta func(string)) (string, error) {
	if c.closed.Load() {
		return "", c.failure(ErrClosed)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	if c.params.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, c.params.Timeout)
		defer cancelTimeout()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", c.failure(err)
		}
	}

	start := time.Now()
	seq, err := c.stream(ctx, c.buildCall(msgs))
	if err != nil {
		return "", c.failure(err)
	}

	var sb strings.Builder
	var streamErr error
	for part := range seq {
		switch part.Type {
		case fantasy.StreamPartTypeTextDelta:
			sb.WriteString(part.Delta)
			if onDelta != nil && part.Delta != "" {
				onDelta(part.Delta)
			}
		case fantasy.StreamPartTypeError:
			streamErr = part.Error
		}
		if streamErr != nil {
			break
		}
	}
	if streamErr == nil {
		streamErr = ctx.Err()
	}
	if c.closed.Load() && streamErr != nil {
		streamErr = ErrClosed
	}
	if streamErr != nil {
		return "", c.failure(streamErr)
	}

	c.log.Debug("reply received",
		zap.Int("chars", sb.Len()),
		zap.Duration("took", time.Since(start)))
	return sb.String(), nil
}

// Close releases the client. It is safe to call more than once, and
// cancels requests still in flight.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()
		c.log.Debug("client closed")
	})
	return nil
}

func (c *Client) providerStream(ctx context.Context, call fantasy.Call) (iter.Seq[fantasy.StreamPart], error) {
	model, err := c.provider.LanguageModel(ctx, c.model)
	if err != nil {
		return nil, fmt.Errorf("fantasy language model: %w", err)
	}
	seq, err := model.Stream(ctx, call)
	if err != nil {
		return nil, fmt.Errorf("fantasy stream: %w", err)
	}
	return iter.Seq[fantasy.StreamPart](seq), nil
}

func (c *Client) buildCall(msgs []proto.Message) fantasy.Call {
	call := fantasy.Call{
		Prompt:          toFantasyPrompt(msgs),
		MaxOutputTokens: c.params.MaxTokens,
		Temperature:     c.params.Temperature,
		TopP:            c.params.TopP,
		TopK:            c.params.TopK,
		ProviderOptions: fantasy.ProviderOptions{},
	}
	applyProviderOptions(&call, c.api, c.params)
	return call
}

func (c *Client) failure(err error) error {
	return errs.Wrap(
		fmt.Errorf("%w: %s: %w", errs.ErrRequestFailure, c.id, err),
		reasonFor(err, c.id),
	)
}
