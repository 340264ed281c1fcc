package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Category is one named group of products, in backend order.
type Category struct {
	Name     string
	Products []Product
}

// Catalog is the by-category listing. The backend returns a JSON object
// keyed by category name; key order is kept as received.
type Catalog struct {
	Categories []Category
}

// UnmarshalJSON decodes the object token by token so that category order
// survives decoding.
func (c *Catalog) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		c.Categories = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("catalog: expected object, got %v", tok)
	}

	cats := make([]Category, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("catalog: unexpected key %v", keyTok)
		}
		var products []Product
		if err := dec.Decode(&products); err != nil {
			return fmt.Errorf("catalog: category %q: %w", name, err)
		}
		cats = append(cats, Category{Name: name, Products: products})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	c.Categories = cats
	return nil
}

// MarshalJSON writes the catalog back as an ordered object.
func (c Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range c.Categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cat.Name)
		if err != nil {
			return nil, err
		}
		products := cat.Products
		if products == nil {
			products = []Product{}
		}
		val, err := json.Marshal(products)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Flatten returns all products across categories, in category order.
// Duplicates are kept.
func (c *Catalog) Flatten() []Product {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Products)
	}
	out := make([]Product, 0, n)
	for _, cat := range c.Categories {
		out = append(out, cat.Products...)
	}
	return out
}
