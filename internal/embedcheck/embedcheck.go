// Package embedcheck loads the widget loader into a third-party page in a
// headless Chrome and reports how it behaved.
package embedcheck

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"

	"github.com/vesaa/dressify/internal/loader"
)

// ErrNoChrome is returned when no Chrome binary can be located.
var ErrNoChrome = errors.New("no chrome binary found")

// Options configures a check run.
type Options struct {
	// ServerURL is the edge server whose /embed.js is loaded.
	ServerURL   string
	ChromePath  string
	ContainerID string
	Timeout     time.Duration
}

// Report is what the browser observed.
type Report struct {
	// Containers counts widget containers after the script was included twice.
	Containers int
	// OpenAfterClick is the widget state after one click on the button.
	OpenAfterClick bool
	// OpenAfterForeignClose is the state after the host page (not the widget
	// origin) posted the close message.
	OpenAfterForeignClose bool
	// ClosedAfterSecondClick is the state after clicking the button again.
	ClosedAfterSecondClick bool
	// ClosedAfterWidgetClose is the state after the widget page itself,
	// reopened, posted the close message from the widget origin.
	ClosedAfterWidgetClose bool
}

// Problems lists every expectation the report violates.
func (r *Report) Problems() []string {
	var out []string
	if r.Containers != 1 {
		out = append(out, fmt.Sprintf("expected 1 widget container, found %d", r.Containers))
	}
	if !r.OpenAfterClick {
		out = append(out, "widget did not open on click")
	}
	if !r.OpenAfterForeignClose {
		out = append(out, "widget closed on a message from a foreign origin")
	}
	if !r.ClosedAfterSecondClick {
		out = append(out, "widget did not close on second click")
	}
	if !r.ClosedAfterWidgetClose {
		out = append(out, "widget did not close on a message from its own origin")
	}
	return out
}

// OK reports whether there are no problems.
func (r *Report) OK() bool {
	return len(r.Problems()) == 0
}

var chromeNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
}

// FindChrome returns the first Chrome binary on PATH.
func FindChrome() (string, error) {
	for _, name := range chromeNames {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", ErrNoChrome
}

var hostPage = template.Must(template.New("host").Parse(`<!DOCTYPE html>
<html><head><title>host page</title></head>
<body>
<h1>Third-party page</h1>
<script src="{{.}}/embed.js"></script>
<script src="{{.}}/embed.js"></script>
</body></html>`))

// Run serves a host page on a loopback port (a different origin from the
// edge server), includes the loader twice, and exercises the widget.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.ContainerID == "" {
		opts.ContainerID = loader.DefaultContainerID
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	opts.ServerURL = strings.TrimRight(opts.ServerURL, "/")
	if opts.ChromePath == "" {
		p, err := FindChrome()
		if err != nil {
			return nil, err
		}
		opts.ChromePath = p
	}

	hostURL, stop, err := serveHostPage(opts.ServerURL)
	if err != nil {
		return nil, err
	}
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(opts.ChromePath),
		chromedp.NoSandbox, // Required for running in Docker/containers
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	sel := "#" + opts.ContainerID
	isOpen := fmt.Sprintf(`document.querySelector(%q).classList.contains('open')`, sel+" .fab-iframe-container")

	var (
		rep    Report
		html   string
		frames []*cdp.Node
	)
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(hostURL),
		chromedp.WaitReady(sel+" .fab-chat-icon", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Click(sel+" .fab-chat-icon", chromedp.ByQuery),
		chromedp.Evaluate(isOpen, &rep.OpenAfterClick),
		chromedp.Evaluate(`window.postMessage('`+loader.CloseMessage+`', '*')`, nil),
		chromedp.Sleep(250*time.Millisecond),
		chromedp.Evaluate(isOpen, &rep.OpenAfterForeignClose),
		chromedp.Click(sel+" .fab-chat-icon", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var open bool
			if err := chromedp.Evaluate(isOpen, &open).Do(ctx); err != nil {
				return err
			}
			rep.ClosedAfterSecondClick = !open
			return nil
		}),
		chromedp.Click(sel+" .fab-chat-icon", chromedp.ByQuery),
		chromedp.Nodes(sel+" iframe", &frames, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if len(frames) == 0 {
				return errors.New("widget iframe not found")
			}
			closeBtn := `[data-action="close-widget"]`
			if err := chromedp.WaitVisible(closeBtn, chromedp.ByQuery, chromedp.FromNode(frames[0])).Do(ctx); err != nil {
				return err
			}
			return chromedp.Click(closeBtn, chromedp.ByQuery, chromedp.FromNode(frames[0])).Do(ctx)
		}),
		chromedp.Sleep(250*time.Millisecond),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var open bool
			if err := chromedp.Evaluate(isOpen, &open).Do(ctx); err != nil {
				return err
			}
			rep.ClosedAfterWidgetClose = !open
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("driving browser: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing page snapshot: %w", err)
	}
	rep.Containers = doc.Find(sel).Length()

	log.WithFields(log.Fields{
		"containers":               rep.Containers,
		"open_after_click":         rep.OpenAfterClick,
		"open_after_foreign_close": rep.OpenAfterForeignClose,
		"closed_after_widget":      rep.ClosedAfterWidgetClose,
	}).Debug("embed check finished")
	return &rep, nil
}

// serveHostPage starts the third-party page on an ephemeral loopback port.
func serveHostPage(serverURL string) (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("listening for host page: %w", err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := hostPage.Execute(w, template.URL(serverURL)); err != nil {
			log.WithError(err).Warn("rendering host page")
		}
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return "http://" + ln.Addr().String() + "/", stop, nil
}
