package lookup

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
)

var yearPattern = regexp.MustCompile(`\b(1[0-9]{3}|20[0-9]{2})\b`)

type OpenLibrary struct {
	baseURL string
	http    httpClient
}

func NewOpenLibrary(baseURL, userAgent string, timeout time.Duration) *OpenLibrary {
	return &OpenLibrary{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClient(timeout, userAgent),
	}
}

type olBook struct {
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle"`
	PublishDate   string `json:"publish_date"`
	NumberOfPages int    `json:"number_of_pages"`
	Authors       []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Notes     interface{} `json:"notes"`
	Languages []struct {
		Key string `json:"key"`
	} `json:"languages"`
}

// LookupISBN asks the books API for one bibkey. An empty answer is
// ErrLookupNotFound.
func (o *OpenLibrary) LookupISBN(ctx context.Context, isbn string) (*domain.BookMetadata, error) {
	isbn = domain.NormalizeISBN(isbn)
	if isbn == "" {
		return nil, domain.ErrLookupNotFound
	}
	key := "ISBN:" + isbn
	q := url.Values{}
	q.Set("bibkeys", key)
	q.Set("format", "json")
	q.Set("jscmd", "data")

	var resp map[string]olBook
	if err := o.http.getJSON(ctx, o.baseURL+"/api/books?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	b, ok := resp[key]
	if !ok || strings.TrimSpace(b.Title) == "" {
		return nil, domain.ErrLookupNotFound
	}

	md := &domain.BookMetadata{
		Title:     strings.TrimSpace(b.Title),
		PageCount: b.NumberOfPages,
	}
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
	}
	md.Author = strings.Join(names, ", ")
	if m := yearPattern.FindString(b.PublishDate); m != "" {
		md.PublishedYear, _ = strconv.Atoi(m)
	}
	if len(b.Languages) > 0 {
		md.Language = strings.TrimPrefix(b.Languages[0].Key, "/languages/")
	}
	switch n := b.Notes.(type) {
	case string:
		md.Description = n
	case map[string]interface{}:
		if v, ok := n["value"].(string); ok {
			md.Description = v
		}
	}
	if md.Description == "" {
		md.Description = strings.TrimSpace(b.Subtitle)
	}
	return md, nil
}
