package stock

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	_ "image/gif"
	_ "image/png"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"composer/internal/domain"
)

// promoteMaxEdge bounds the long edge of a promoted stock image before it is
// handed to the generation pipeline as a base or template.
const promoteMaxEdge = 1600

// Aggregator fans a search out to every configured provider and joins the
// fulfilled responses. A provider that errors contributes nothing and never
// fails the aggregate call on its own; the call errors only when no provider
// is configured or when every dispatched provider fails.
type Aggregator struct {
	providers  []Provider
	httpClient *http.Client
	cache      *gocache.Cache
	logger     zerolog.Logger
	perPage    int
}

// AggregatorOptions configures the aggregator.
type AggregatorOptions struct {
	Providers  []Provider
	HTTPClient *http.Client
	CacheTTL   time.Duration
	PerPage    int
	Logger     zerolog.Logger
}

func NewAggregator(opts AggregatorOptions) *Aggregator {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = 12
	}
	return &Aggregator{
		providers:  opts.Providers,
		httpClient: client,
		cache:      gocache.New(ttl, 2*ttl),
		logger:     opts.Logger,
		perPage:    perPage,
	}
}

// Configured reports whether at least one provider has a credential.
func (a *Aggregator) Configured() bool {
	for _, p := range a.providers {
		if p.Configured() {
			return true
		}
	}
	return false
}

// Search dispatches the query to every configured provider concurrently and
// returns the shuffled union of the fulfilled responses. The shuffle happens
// once, after the join, so no single provider dominates the grid.
func (a *Aggregator) Search(ctx context.Context, q Query) ([]Result, error) {
	var configured []Provider
	for _, p := range a.providers {
		if p.Configured() {
			configured = append(configured, p)
		}
	}
	if len(configured) == 0 {
		return nil, domain.ErrNoProvidersConfigured
	}
	if q.PerPage <= 0 {
		q.PerPage = a.perPage
	}

	// One result and one error slot per provider; workers always return nil
	// so a single failing provider cannot short-circuit the join.
	perProvider := make([][]Result, len(configured))
	errs := make([]error, len(configured))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range configured {
		i, p := i, p
		g.Go(func() error {
			results, err := p.Search(gctx, q)
			if err != nil {
				a.logger.Warn().Err(err).Str("provider", p.Name()).Msg("stock: provider search failed")
				errs[i] = err
				return nil
			}
			perProvider[i] = results
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(configured) {
		return nil, domain.ErrAllProvidersFailed
	}

	var merged []Result
	for _, results := range perProvider {
		merged = append(merged, results...)
	}
	rand.Shuffle(len(merged), func(i, j int) {
		merged[i], merged[j] = merged[j], merged[i]
	})
	return merged, nil
}

// Promote downloads a chosen stock image, downscales it when oversized, and
// returns it as a base64 data URL ready to be used as a generation input.
// Conversions are cached by URL.
func (a *Aggregator) Promote(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("image url is required")
	}
	if cached, ok := a.cache.Get(rawURL); ok {
		if dataURL, ok := cached.(string); ok {
			return dataURL, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("download image status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	data, mime, err = shrinkIfOversized(data, mime)
	if err != nil {
		return "", err
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
	a.cache.SetDefault(rawURL, dataURL)
	return dataURL, nil
}

// shrinkIfOversized re-encodes images whose long edge exceeds promoteMaxEdge.
// Undecodable payloads pass through untouched; the generation provider is the
// authority on what it accepts.
func shrinkIfOversized(data []byte, mime string) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, mime, nil
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	long := w
	if h > long {
		long = h
	}
	if long <= promoteMaxEdge {
		return data, mime, nil
	}

	scale := float64(promoteMaxEdge) / float64(long)
	dw, dh := int(float64(w)*scale), int(float64(h)*scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	scaled := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 90}); err != nil {
		return nil, "", fmt.Errorf("encode promoted image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
