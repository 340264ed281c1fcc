// Package loader renders the embeddable widget script served at /embed.js.
package loader

import (
	"bytes"
	"fmt"
	"net"
	"net/url"
	"strings"
	"text/template"

	"github.com/vesaa/dressify/webui"
)

const (
	// DefaultContainerID is the element id the script checks before mounting.
	DefaultContainerID = "fashion-ai-chatbot-embed"
	// CloseMessage is the postMessage payload that closes the widget.
	CloseMessage = "close-chat"
)

// Options configures the rendered script.
type Options struct {
	// WidgetURL is loaded in the iframe; its origin is the only one allowed
	// to close the widget.
	WidgetURL    string
	ContainerID  string
	CloseMessage string
}

// Loader holds a rendered embed script.
type Loader struct {
	opts   Options
	origin string
	script []byte
}

type scriptData struct {
	WidgetURL    string
	Origin       string
	ContainerID  string
	CloseMessage string
}

// New validates opts and renders the script once.
func New(opts Options) (*Loader, error) {
	if opts.ContainerID == "" {
		opts.ContainerID = DefaultContainerID
	}
	if opts.CloseMessage == "" {
		opts.CloseMessage = CloseMessage
	}
	opts.WidgetURL = strings.TrimRight(opts.WidgetURL, "/")

	origin, err := Origin(opts.WidgetURL)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.ParseFS(webui.FS, "loader/embed.js.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing embed template: %w", err)
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, scriptData{
		WidgetURL:    opts.WidgetURL,
		Origin:       origin,
		ContainerID:  opts.ContainerID,
		CloseMessage: opts.CloseMessage,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering embed script: %w", err)
	}

	return &Loader{opts: opts, origin: origin, script: buf.Bytes()}, nil
}

// Script returns the rendered JavaScript.
func (l *Loader) Script() []byte {
	return l.script
}

// Origin is the exact origin the script accepts close requests from.
func (l *Loader) Origin() string {
	return l.origin
}

// ContainerID is the id of the mounted container element.
func (l *Loader) ContainerID() string {
	return l.opts.ContainerID
}

// Origin computes the serialized origin of rawURL the way browsers report
// MessageEvent.origin: lower-case scheme and host, default port omitted,
// no path.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("widget url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("widget url %q: scheme must be http or https", rawURL)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("widget url %q: missing host", rawURL)
	}
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return scheme + "://" + host, nil
}
