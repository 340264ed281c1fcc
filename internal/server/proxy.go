package server

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// BackendUnavailable is the error text returned with 502 when the backend
// cannot be reached.
const BackendUnavailable = "Backend unavailable"

// newBackendProxy forwards requests to target, keeping the request path and
// query, and rewriting Host to the backend's.
func newBackendProxy(target *url.URL, logger *log.Entry) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.WithError(err).WithFields(log.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			}).Error("proxy error")
			writeBackendUnavailable(w)
		},
	}
}

func writeBackendUnavailable(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusBadGateway)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": BackendUnavailable})
}

// handleProxy hands the request to the reverse proxy.
func (s *Server) handleProxy(c *gin.Context) {
	if id := c.GetString(requestIDKey); id != "" {
		c.Request.Header.Set(requestIDHeader, id)
	}
	s.proxy.ServeHTTP(c.Writer, c.Request)
}
