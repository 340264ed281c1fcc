// Package models defines the storefront data models as the backend serves them.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	// PlaceholderCardImage is shown in grid cards for products without a thumbnail.
	PlaceholderCardImage = "https://placehold.co/300x400?text=No+Image"
	// PlaceholderDetailImage is shown in the detail view for products without a thumbnail.
	PlaceholderDetailImage = "https://placehold.co/400x500"
)

// ID is a product identifier. The backend sends image_id either as a JSON
// string or as a number; both decode to the same textual form.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("image_id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Price is an optional amount. The backend sends it as a number or a
// numeric string; anything else decodes as absent.
type Price struct {
	Amount float64
	Valid  bool
}

// UnmarshalJSON accepts a number, a numeric string, or null.
func (p *Price) UnmarshalJSON(b []byte) error {
	*p = Price{}
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimPrefix(strings.TrimSpace(s), "$")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*p = Price{Amount: f, Valid: true}
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	*p = Price{Amount: f, Valid: f > 0}
	return nil
}

// MarshalJSON writes the amount, or null when absent.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Amount)
}

// String formats the price for display.
func (p Price) String() string {
	if !p.Valid {
		return "Price on request"
	}
	return fmt.Sprintf("$%.2f", p.Amount)
}

// Product is a catalog entry. It is read-only from the storefront's side.
type Product struct {
	ImageID            ID     `json:"image_id"`
	Title              string `json:"title,omitempty"`
	ProductDisplayName string `json:"product_display_name,omitempty"`
	Brand              string `json:"brand,omitempty"`
	ArticleType        string `json:"article_type,omitempty"`
	Color              string `json:"color,omitempty"`
	BaseColour         string `json:"base_colour,omitempty"`
	Gender             string `json:"gender,omitempty"`
	Price              Price  `json:"price"`
	ThumbnailURL       string `json:"thumbnail_url,omitempty"`
	Snippet            string `json:"snippet,omitempty"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// DisplayTitle is the card and detail heading.
func (p Product) DisplayTitle() string {
	return firstNonEmpty(p.Title, p.ProductDisplayName, "Fashion Item")
}

func (p Product) DisplayBrand() string {
	return firstNonEmpty(p.Brand, "Unbranded")
}

func (p Product) DisplayColor() string {
	return firstNonEmpty(p.Color, p.BaseColour, "N/A")
}

func (p Product) DisplayGender() string {
	return firstNonEmpty(p.Gender, "Unisex")
}

func (p Product) DisplayCategory() string {
	return firstNonEmpty(p.ArticleType, "Fashion")
}

// AltText is the image alt attribute in grid cards.
func (p Product) AltText() string {
	return firstNonEmpty(p.ArticleType, "Product")
}

// ImageURL is the proxied image path, or the card placeholder when the
// backend has no thumbnail for this product.
func (p Product) ImageURL() string {
	if p.ThumbnailURL == "" {
		return PlaceholderCardImage
	}
	return "/images/" + string(p.ImageID) + ".jpg"
}

// DetailImageURL is ImageURL with the larger detail placeholder.
func (p Product) DetailImageURL() string {
	if p.ThumbnailURL == "" {
		return PlaceholderDetailImage
	}
	return p.ImageURL()
}

// Description is the detail view blurb.
func (p Product) Description() string {
	lead := firstNonEmpty(p.Snippet, p.ProductDisplayName)
	return fmt.Sprintf("%s. %s in %s. Perfect for your collection.",
		lead, p.DisplayCategory(), p.DisplayColor())
}
