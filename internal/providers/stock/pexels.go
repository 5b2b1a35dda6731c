package stock

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const pexelsProviderName = "pexels"

// PexelsProvider searches the Pexels photo API.
type PexelsProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewPexelsProvider(apiKey string, httpClient *http.Client) *PexelsProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &PexelsProvider{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    "https://api.pexels.com/v1",
		httpClient: httpClient,
	}
}

func (p *PexelsProvider) Name() string { return pexelsProviderName }

func (p *PexelsProvider) Configured() bool { return p.apiKey != "" }

type pexelsPhoto struct {
	ID           int64  `json:"id"`
	Alt          string `json:"alt"`
	Photographer string `json:"photographer"`
	Src          struct {
		Medium   string `json:"medium"`
		Large2X  string `json:"large2x"`
		Original string `json:"original"`
	} `json:"src"`
}

type pexelsSearchResponse struct {
	Photos []pexelsPhoto `json:"photos"`
}

func (p *PexelsProvider) Search(ctx context.Context, q Query) ([]Result, error) {
	params := url.Values{}
	params.Set("query", q.Term)
	params.Set("per_page", fmt.Sprint(clampPerPage(q.PerPage)))
	if q.Orientation != "" {
		params.Set("orientation", q.Orientation)
	}
	if q.Color != "" {
		params.Set("color", q.Color)
	}
	if q.Locale != "" {
		params.Set("locale", q.Locale)
	}

	var decoded pexelsSearchResponse
	endpoint := p.baseURL + "/search?" + params.Encode()
	headers := map[string]string{"Authorization": p.apiKey}
	if err := getJSON(ctx, p.httpClient, endpoint, headers, &decoded); err != nil {
		return nil, fmt.Errorf("pexels: %w", err)
	}

	results := make([]Result, 0, len(decoded.Photos))
	for _, photo := range decoded.Photos {
		full := photo.Src.Large2X
		if full == "" {
			full = photo.Src.Original
		}
		results = append(results, Result{
			ID:          namespaceID(pexelsProviderName, photo.ID),
			AltText:     photo.Alt,
			Attribution: photo.Photographer,
			ThumbURL:    photo.Src.Medium,
			FullURL:     full,
			Provider:    pexelsProviderName,
		})
	}
	return results, nil
}

var _ Provider = (*PexelsProvider)(nil)
