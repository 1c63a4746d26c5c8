// Package http serves the http: and https: schemes.
//
// Fetches run on their own goroutine through a resty client layered over
// go-retryablehttp, behind a token-bucket limiter and a circuit breaker.
// The response is queued for the next poll; failed fetches are logged and
// never completed.
//
// HTML documents are decoded to UTF-8 and annotated with their title and
// detected charset. A fragment of the form #xpath=<expr> is evaluated
// locally and replaces the payload with the text of the matching nodes.
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/microcosm-cc/bluemonday"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/module"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/executive/internal/schemes"
)

// MaxBody is the default cap on the size of a fetched document.
const MaxBody = 16 << 20

// ErrStatus is returned for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

// Config holds client settings.
type Config struct {
	Timeout          time.Duration
	Retries          int
	RPS              float64
	Sanitize         bool
	UserAgent        string
	BreakerThreshold uint32
	BreakerCooldown  time.Duration
	MaxBody          int
}

// DefaultConfig returns conservative client settings.
func DefaultConfig() Config {
	return Config{
		Timeout:          10 * time.Second,
		RPS:              10,
		UserAgent:        "executive/1.0",
		BreakerThreshold: 5,
		BreakerCooldown:  30 * time.Second,
		MaxBody:          MaxBody,
	}
}

// Scheme is the http: module.
type Scheme struct {
	*schemes.Base
	client    *resty.Client
	limiter   *rate.Limiter
	breaker   *resilience.Breaker
	sanitizer *bluemonday.Policy
	logger    *logging.Logger
	inflight  sync.WaitGroup
}

// New creates the module.
func New(cfg Config, logger *logging.Logger) *Scheme {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = MaxBody
	}
	logger = logger.Named("http")

	retry := retryablehttp.NewClient()
	retry.RetryMax = cfg.Retries
	retry.RetryWaitMin = 100 * time.Millisecond
	retry.RetryWaitMax = 2 * time.Second
	retry.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retry.Logger = nil

	client := resty.NewWithClient(retry.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetResponseBodyLimit(cfg.MaxBody).
		SetHeader("User-Agent", cfg.UserAgent)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), max(1, int(cfg.RPS)))
	}

	s := &Scheme{
		Base:    schemes.NewBase("http", "http", "https"),
		client:  client,
		limiter: limiter,
		logger:  logger,
	}
	s.breaker = resilience.New("http", resilience.Settings{
		Threshold: cfg.BreakerThreshold,
		Cooldown:  cfg.BreakerCooldown,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Info("breaker state changed", zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	if cfg.Sanitize {
		s.sanitizer = bluemonday.UGCPolicy()
	}
	return s
}

// Fetch starts the download and returns immediately.
func (s *Scheme) Fetch(ctx context.Context, u resource.URL, deliver module.Deliver) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		resp, err := s.Get(ctx, u)
		if err != nil {
			s.logger.Warn("fetch failed", zap.String("url", u.String()), zap.Error(err))
			return
		}
		s.Complete(deliver, resp)
	}()
}

// Wait blocks until every started fetch has finished.
func (s *Scheme) Wait() {
	s.inflight.Wait()
}

// Breaker exposes the circuit breaker state.
func (s *Scheme) Breaker() *resilience.Breaker {
	return s.breaker
}

// Get downloads u synchronously.
func (s *Scheme) Get(ctx context.Context, u resource.URL) (resource.Response, error) {
	target, err := url.Parse(u.String())
	if err != nil {
		return resource.Response{}, fmt.Errorf("parse %s: %w", u, err)
	}
	fragment, _ := url.ParseQuery(target.Fragment)
	target.Fragment = ""

	if err := s.limiter.Wait(ctx); err != nil {
		return resource.Response{}, err
	}
	if err := s.breaker.Allow(); err != nil {
		return resource.Response{}, err
	}

	raw, err := s.client.R().SetContext(ctx).Get(target.String())
	if errors.Is(err, resty.ErrResponseBodyTooLarge) {
		s.breaker.Record(true)
		return resource.Response{}, fmt.Errorf("%s: %w", target, err)
	}
	s.breaker.Record(err == nil && raw.StatusCode() < 500)
	if err != nil {
		return resource.Response{}, err
	}
	if raw.IsError() {
		return resource.Response{}, fmt.Errorf("%s: %w %d", target, ErrStatus, raw.StatusCode())
	}

	body := raw.Body()
	contentType := raw.Header().Get("Content-Type")
	if contentType == "" {
		contentType = mimetype.Detect(body).String()
	}
	resp := resource.Response{
		URL:  u,
		Data: body,
		MIME: contentType,
		Meta: map[string]string{
			"status": strconv.Itoa(raw.StatusCode()),
		},
	}

	if strings.Contains(contentType, "html") {
		if err := s.annotateHTML(&resp, contentType, fragment.Get("xpath")); err != nil {
			return resource.Response{}, err
		}
	}
	return resp, nil
}

func (s *Scheme) annotateHTML(resp *resource.Response, contentType, xpath string) error {
	if cs := detectCharset(resp.Data); cs != "" {
		resp.Meta["charset"] = cs
	}

	reader, err := charset.NewReader(bytes.NewReader(resp.Data), contentType)
	if err == nil {
		if utf8, err := io.ReadAll(reader); err == nil {
			resp.Data = utf8
		}
	}

	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Data)); err == nil {
		if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
			resp.Meta["title"] = title
		}
	}

	if xpath != "" {
		root, err := htmlquery.Parse(bytes.NewReader(resp.Data))
		if err != nil {
			return fmt.Errorf("parse html: %w", err)
		}
		nodes, err := htmlquery.QueryAll(root, xpath)
		if err != nil {
			return fmt.Errorf("xpath %q: %w", xpath, err)
		}
		texts := make([]string, 0, len(nodes))
		for _, node := range nodes {
			texts = append(texts, strings.TrimSpace(htmlquery.InnerText(node)))
		}
		resp.Data = []byte(strings.Join(texts, "\n"))
		resp.MIME = "text/plain; charset=utf-8"
		resp.Meta["matches"] = strconv.Itoa(len(nodes))
		return nil
	}

	if s.sanitizer != nil {
		resp.Data = s.sanitizer.SanitizeBytes(resp.Data)
		resp.Meta["sanitized"] = "true"
	}
	return nil
}

func detectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return ""
	}
	return strings.ToLower(result.Charset)
}
