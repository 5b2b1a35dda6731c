package stock

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const unsplashProviderName = "unsplash"

// UnsplashProvider searches the Unsplash photo API.
type UnsplashProvider struct {
	accessKey  string
	baseURL    string
	httpClient *http.Client
}

func NewUnsplashProvider(accessKey string, httpClient *http.Client) *UnsplashProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &UnsplashProvider{
		accessKey:  strings.TrimSpace(accessKey),
		baseURL:    "https://api.unsplash.com",
		httpClient: httpClient,
	}
}

func (p *UnsplashProvider) Name() string { return unsplashProviderName }

func (p *UnsplashProvider) Configured() bool { return p.accessKey != "" }

type unsplashPhoto struct {
	ID             string `json:"id"`
	AltDescription string `json:"alt_description"`
	User           struct {
		Name string `json:"name"`
	} `json:"user"`
	URLs struct {
		Small   string `json:"small"`
		Regular string `json:"regular"`
		Full    string `json:"full"`
	} `json:"urls"`
}

type unsplashSearchResponse struct {
	Results []unsplashPhoto `json:"results"`
}

func (p *UnsplashProvider) Search(ctx context.Context, q Query) ([]Result, error) {
	params := url.Values{}
	params.Set("query", q.Term)
	params.Set("per_page", fmt.Sprint(clampPerPage(q.PerPage)))
	if q.Orientation != "" {
		params.Set("orientation", q.Orientation)
	}
	if q.Color != "" {
		params.Set("color", q.Color)
	}
	if lang := baseLanguage(q.Locale); lang != "" {
		params.Set("lang", lang)
	}

	var decoded unsplashSearchResponse
	endpoint := p.baseURL + "/search/photos?" + params.Encode()
	headers := map[string]string{"Authorization": "Client-ID " + p.accessKey}
	if err := getJSON(ctx, p.httpClient, endpoint, headers, &decoded); err != nil {
		return nil, fmt.Errorf("unsplash: %w", err)
	}

	results := make([]Result, 0, len(decoded.Results))
	for _, photo := range decoded.Results {
		full := photo.URLs.Regular
		if full == "" {
			full = photo.URLs.Full
		}
		results = append(results, Result{
			ID:          namespaceID(unsplashProviderName, photo.ID),
			AltText:     photo.AltDescription,
			Attribution: photo.User.Name,
			ThumbURL:    photo.URLs.Small,
			FullURL:     full,
			Provider:    unsplashProviderName,
		})
	}
	return results, nil
}

var _ Provider = (*UnsplashProvider)(nil)
