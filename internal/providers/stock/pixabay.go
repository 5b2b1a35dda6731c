package stock

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const pixabayProviderName = "pixabay"

// PixabayProvider searches the Pixabay image API. Pixabay's orientation
// vocabulary differs from the other providers, so the shared landscape /
// portrait terms are translated before dispatch.
type PixabayProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewPixabayProvider(apiKey string, httpClient *http.Client) *PixabayProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &PixabayProvider{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    "https://pixabay.com/api/",
		httpClient: httpClient,
	}
}

func (p *PixabayProvider) Name() string { return pixabayProviderName }

func (p *PixabayProvider) Configured() bool { return p.apiKey != "" }

type pixabayHit struct {
	ID            int64  `json:"id"`
	Tags          string `json:"tags"`
	User          string `json:"user"`
	PreviewURL    string `json:"previewURL"`
	WebformatURL  string `json:"webformatURL"`
	LargeImageURL string `json:"largeImageURL"`
}

type pixabaySearchResponse struct {
	Hits []pixabayHit `json:"hits"`
}

func (p *PixabayProvider) Search(ctx context.Context, q Query) ([]Result, error) {
	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("q", q.Term)
	params.Set("image_type", "photo")
	params.Set("per_page", fmt.Sprint(clampPerPage(q.PerPage)))
	if orientation := pixabayOrientation(q.Orientation); orientation != "" {
		params.Set("orientation", orientation)
	}
	if q.Color != "" {
		params.Set("colors", q.Color)
	}
	if lang := baseLanguage(q.Locale); lang != "" {
		params.Set("lang", lang)
	}

	var decoded pixabaySearchResponse
	endpoint := p.baseURL + "?" + params.Encode()
	if err := getJSON(ctx, p.httpClient, endpoint, nil, &decoded); err != nil {
		return nil, fmt.Errorf("pixabay: %w", err)
	}

	results := make([]Result, 0, len(decoded.Hits))
	for _, hit := range decoded.Hits {
		full := hit.LargeImageURL
		if full == "" {
			full = hit.WebformatURL
		}
		results = append(results, Result{
			ID:          namespaceID(pixabayProviderName, hit.ID),
			AltText:     hit.Tags,
			Attribution: hit.User,
			ThumbURL:    hit.PreviewURL,
			FullURL:     full,
			Provider:    pixabayProviderName,
		})
	}
	return results, nil
}

func pixabayOrientation(orientation string) string {
	switch strings.ToLower(strings.TrimSpace(orientation)) {
	case "landscape":
		return "horizontal"
	case "portrait":
		return "vertical"
	default:
		return ""
	}
}

var _ Provider = (*PixabayProvider)(nil)
