package storefront

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/vesaa/dressify/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// CategoryStyle is the icon and accent color shown in a category header.
type CategoryStyle struct {
	Icon  string
	Color string
}

var defaultCategoryStyle = CategoryStyle{Icon: "🛍️", Color: "#64748b"}

var categoryStyles = map[string]CategoryStyle{
	"Shirts":       {Icon: "👔", Color: "#6366f1"},
	"Tshirts":      {Icon: "👕", Color: "#ec4899"},
	"Jeans":        {Icon: "👖", Color: "#3b82f6"},
	"Kurtas":       {Icon: "👘", Color: "#f59e0b"},
	"Watches":      {Icon: "⌚", Color: "#14b8a6"},
	"Casual Shoes": {Icon: "👟", Color: "#8b5cf6"},
	"Sports Shoes": {Icon: "🏃", Color: "#10b981"},
	"Flip Flops":   {Icon: "🩴", Color: "#f97316"},
	"Sandals":      {Icon: "👡", Color: "#e11d48"},
	"Heels":        {Icon: "👠", Color: "#be185d"},
	"Tops":         {Icon: "👚", Color: "#db2777"},
	"Dresses":      {Icon: "👗", Color: "#c026d3"},
	"Handbags":     {Icon: "👜", Color: "#7c3aed"},
	"Sunglasses":   {Icon: "🕶️", Color: "#0ea5e9"},
}

// StyleFor returns the header style for a category name.
func StyleFor(category string) CategoryStyle {
	if s, ok := categoryStyles[category]; ok {
		return s
	}
	return defaultCategoryStyle
}

type sectionData struct {
	Name     string
	Style    CategoryStyle
	Products []models.Product
}

// Renderer turns storefront state into HTML fragments.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing storefront templates: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

// Sections renders one section per category, one card per product.
func (r *Renderer) Sections(cats []models.Category) (template.HTML, error) {
	data := make([]sectionData, 0, len(cats))
	for _, c := range cats {
		data = append(data, sectionData{Name: c.Name, Style: StyleFor(c.Name), Products: c.Products})
	}
	return r.fragment("sections", data)
}

// Detail renders the product detail panel.
func (r *Renderer) Detail(p *models.Product) (template.HTML, error) {
	return r.fragment("detail", p)
}

// Page writes the whole storefront document for a snapshot.
func (r *Renderer) Page(w io.Writer, s Snapshot) error {
	if err := r.tmpl.ExecuteTemplate(w, "page", s); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}

func (r *Renderer) fragment(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	// Output of html/template is already escaped.
	return template.HTML(buf.String()), nil
}
