package webui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesaa/dressify/internal/loader"
	"github.com/vesaa/dressify/webui"
)

func TestStorefrontCanCloseWidget(t *testing.T) {
	page, err := webui.FS.ReadFile("web/index.html")
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	require.NoError(t, err)

	btn := doc.Find(`button[data-action="close-widget"]`)
	assert.Equal(t, 1, btn.Length())
	assert.True(t, btn.HasClass("hidden"), "shown only when framed")

	js, err := webui.FS.ReadFile("web/app.js")
	require.NoError(t, err)
	assert.Contains(t, string(js), "var CLOSE_MESSAGE = '"+loader.CloseMessage+"';")
	assert.Contains(t, string(js), "window.parent.postMessage(CLOSE_MESSAGE, '*')")
	assert.Contains(t, string(js), "case 'close-widget':")
}

func TestShowProductChecksTransitionBeforeRendering(t *testing.T) {
	raw, err := webui.FS.ReadFile("web/app.js")
	require.NoError(t, err)
	js := string(raw)

	start := strings.Index(js, "function showProduct(state, id) {")
	require.NotEqual(t, -1, start)
	end := strings.Index(js[start:], "\n    }\n")
	require.NotEqual(t, -1, end)
	body := js[start : start+end]

	render := strings.Index(body, "renderDetail(product)")
	require.NotEqual(t, -1, render)
	assert.Less(t, strings.Index(body, "if (state.transition) return"), strings.Index(body, "fetchJSON("))
	assert.Greater(t, strings.LastIndex(body[:render], "if (state.transition) return"), strings.Index(body, "lookup.then("))
	assert.Equal(t, 2, strings.Count(body, "if (state.transition) return"), "checked on entry and again after the lookup")
}
