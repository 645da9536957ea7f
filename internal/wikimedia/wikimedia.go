// Package wikimedia finds genus pictures on Wikimedia Commons.
package wikimedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Image is a Commons file suitable for display.
type Image struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	PageURL      string `json:"pageUrl"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

// Client talks to the MediaWiki action API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// UserAgent is required by the Wikimedia API etiquette.
	UserAgent string
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:   baseURL,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
		UserAgent: "cactilog/1.0 (plant collection tracker)",
	}
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type imageInfoResponse struct {
	Query struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			ImageInfo []struct {
				URL            string `json:"url"`
				ThumbURL       string `json:"thumburl"`
				DescriptionURL string `json:"descriptionurl"`
				Width          int    `json:"width"`
				Height         int    `json:"height"`
				Mime           string `json:"mime"`
			} `json:"imageinfo"`
		} `json:"pages"`
	} `json:"query"`
}

// SearchGenus returns up to limit images whose file title mentions genus.
// The first request finds candidate files, the second resolves their URLs.
func (c *Client) SearchGenus(ctx context.Context, genus string, limit int) ([]Image, error) {
	genus = strings.TrimSpace(genus)
	if genus == "" {
		return []Image{}, nil
	}
	if limit <= 0 {
		limit = 8
	}

	var sr searchResponse
	err := c.get(ctx, url.Values{
		"action":      {"query"},
		"list":        {"search"},
		"srsearch":    {genus},
		"srnamespace": {"6"},
		"srlimit":     {fmt.Sprint(limit * 3)},
	}, &sr)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(genus)
	var titles []string
	for _, s := range sr.Query.Search {
		if strings.Contains(strings.ToLower(s.Title), needle) {
			titles = append(titles, s.Title)
		}
		if len(titles) == limit {
			break
		}
	}
	if len(titles) == 0 {
		return []Image{}, nil
	}

	var ir imageInfoResponse
	err = c.get(ctx, url.Values{
		"action":     {"query"},
		"prop":       {"imageinfo"},
		"iiprop":     {"url|size|mime"},
		"iiurlwidth": {"400"},
		"titles":     {strings.Join(titles, "|")},
	}, &ir)
	if err != nil {
		return nil, err
	}

	order := make(map[string]int, len(titles))
	for i, t := range titles {
		order[t] = i
	}
	out := []Image{}
	for _, p := range ir.Query.Pages {
		if len(p.ImageInfo) == 0 || !strings.HasPrefix(p.ImageInfo[0].Mime, "image/") {
			continue
		}
		ii := p.ImageInfo[0]
		out = append(out, Image{
			Title:        p.Title,
			URL:          ii.URL,
			ThumbnailURL: ii.ThumbURL,
			PageURL:      ii.DescriptionURL,
			Width:        ii.Width,
			Height:       ii.Height,
		})
	}
	// pages come back keyed by page id; keep the search ranking
	sort.Slice(out, func(i, j int) bool { return order[out[i].Title] < order[out[j].Title] })
	return out, nil
}

func (c *Client) get(ctx context.Context, q url.Values, dst any) error {
	q.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("wikimedia: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wikimedia: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("wikimedia: decode: %w", err)
	}
	return nil
}
