package utils

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/groceazy/backend/services/common/logger"
	"github.com/groceazy/backend/services/common/middleware"
	"go.uber.org/zap"
)

// Identity headers the downstream services trust. Client-supplied copies are
// always dropped.
var identityHeaders = map[string]string{
	"X-User-Id":    middleware.UserIDKey,
	"X-User-Role":  middleware.RoleKey,
	"X-User-Email": middleware.EmailKey,
}

var hopByHopHeaders = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// Forwarder proxies requests to a backend service, keeping the request path.
type Forwarder struct {
	client *http.Client
	log    *zap.Logger
}

func NewForwarder(timeout time.Duration, log *zap.Logger) *Forwarder {
	return &Forwarder{client: &http.Client{Timeout: timeout}, log: log}
}

// To returns a handler forwarding to targetBase + the original path and query.
func (f *Forwarder) To(targetBase string) gin.HandlerFunc {
	targetBase = strings.TrimRight(targetBase, "/")
	return func(c *gin.Context) {
		f.forward(c, targetBase)
	}
}

func (f *Forwarder) forward(c *gin.Context, targetBase string) {
	targetURL := targetBase + c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		targetURL += "?" + c.Request.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, c.Request.Body)
	if err != nil {
		f.log.Error("Failed to create forward request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create request"})
		return
	}
	req.ContentLength = c.Request.ContentLength

	dropped := connectionHeaders(c.Request.Header)
	for k, v := range c.Request.Header {
		if _, ok := identityHeaders[http.CanonicalHeaderKey(k)]; ok {
			continue
		}
		if lowerKey := strings.ToLower(k); hopByHopHeaders[lowerKey] || dropped[lowerKey] {
			continue
		}
		req.Header[k] = v
	}
	for header, key := range identityHeaders {
		if v := c.GetString(key); v != "" {
			req.Header.Set(header, v)
		}
	}
	if rid := c.GetString(logger.RequestIDKey); rid != "" {
		req.Header.Set(logger.RequestIDHeader, rid)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Error("Failed to forward request", zap.String("url", targetURL), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "service unreachable"})
		return
	}
	defer resp.Body.Close()

	dropped = connectionHeaders(resp.Header)
	for k, v := range resp.Header {
		lowerKey := strings.ToLower(k)
		// CORS is answered by the gateway itself.
		if strings.HasPrefix(lowerKey, "access-control-") || hopByHopHeaders[lowerKey] || dropped[lowerKey] {
			continue
		}
		// Multi-value headers such as Set-Cookie must stay separate lines.
		c.Writer.Header()[k] = append([]string(nil), v...)
	}

	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		f.log.Warn("Failed to copy response body", zap.Error(err))
	}
}

// connectionHeaders returns the extra per-hop headers named by Connection.
func connectionHeaders(h http.Header) map[string]bool {
	named := map[string]bool{}
	for _, v := range h.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				named[strings.ToLower(name)] = true
			}
		}
	}
	return named
}
