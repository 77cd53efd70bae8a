package lookup

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
)

type Nominatim struct {
	baseURL string
	http    httpClient
}

func NewNominatim(baseURL, userAgent string, timeout time.Duration) *Nominatim {
	return &Nominatim{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClient(timeout, userAgent),
	}
}

type nominatimReverse struct {
	Error   string `json:"error"`
	Address struct {
		HouseNumber  string `json:"house_number"`
		Road         string `json:"road"`
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		State        string `json:"state"`
		Postcode     string `json:"postcode"`
	} `json:"address"`
}

// Reverse resolves coordinates into a street address.
func (n *Nominatim) Reverse(ctx context.Context, p domain.GeoPoint) (*domain.Location, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(p.Lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(p.Lng, 'f', 6, 64))
	q.Set("addressdetails", "1")

	var resp nominatimReverse
	if err := n.http.getJSON(ctx, n.baseURL+"/reverse?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, domain.ErrLookupNotFound
	}

	a := resp.Address
	loc := &domain.Location{
		Street:     strings.TrimSpace(strings.Join(nonEmpty(a.HouseNumber, a.Road), " ")),
		City:       firstNonEmpty(a.City, a.Town, a.Village, a.Municipality),
		State:      a.State,
		PostalCode: a.Postcode,
	}
	if loc.Street == "" && loc.City == "" && loc.State == "" && loc.PostalCode == "" {
		return nil, domain.ErrLookupNotFound
	}
	return loc, nil
}

func nonEmpty(vals ...string) []string {
	out := vals[:0:0]
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
