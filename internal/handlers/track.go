package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/utm-receiver/internal/logging"
	"github.com/PratikDhanave/utm-receiver/internal/models"
	"github.com/PratikDhanave/utm-receiver/internal/pages"
	"github.com/PratikDhanave/utm-receiver/internal/requestid"
)

// UTMPrefix selects which query keys are recorded.
const UTMPrefix = "utm_"

// ClickAppender persists one tracking record. *store.PostgresStore implements it.
type ClickAppender interface {
	AppendClick(ctx context.Context, in models.NewClick) (models.Click, error)
}

// UTMParams returns the utm_ pairs of a raw query string in the order they
// appear. Decoding follows url.ParseQuery: pairs that fail to unescape or
// contain ';' are skipped. For a repeated key the first value wins, the same
// value c.Query would return.
func UTMParams(rawQuery string) models.Params {
	var out models.Params
	seen := map[string]bool{}

	for rawQuery != "" {
		var pair string
		pair, rawQuery, _ = strings.Cut(rawQuery, "&")
		if pair == "" || strings.Contains(pair, ";") {
			continue
		}

		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			continue
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			continue
		}

		if !strings.HasPrefix(key, UTMPrefix) || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, models.Param{Key: key, Value: value})
	}
	return out
}

// clientAddress returns the peer address as stored in the inet column, or nil
// when Gin cannot determine one. IPv6 zones are dropped since inet rejects them.
func clientAddress(c *gin.Context) *string {
	addr, err := netip.ParseAddr(c.ClientIP())
	if err != nil {
		return nil
	}
	s := addr.WithZone("").Unmap().String()
	return &s
}

// requestLogger tags handler logs with the request id.
func requestLogger(c *gin.Context) *slog.Logger {
	return logging.Component("track").With("request_id", requestid.ID(c))
}

// ErrorPage writes the generic 500 page. Used for storage failures here and
// for panics by the router's recovery middleware.
func ErrorPage(c *gin.Context) {
	c.Data(http.StatusInternalServerError, pages.ContentType, pages.Error())
}

// RegisterTrackRoutes registers the tracking endpoint.
//
// GET /track?utm_source=...&utm_campaign=...
// - Records every utm_* query parameter plus client ip, user agent and referrer
// - Durable: the success page is rendered only after the insert completes
// - Any failure yields the same generic 500 page
func RegisterTrackRoutes(r gin.IRoutes, st ClickAppender) {
	r.GET("/track", func(c *gin.Context) {
		log := requestLogger(c)

		params := UTMParams(c.Request.URL.RawQuery)
		in := models.NewClick{
			Params:        params.Map(),
			ClientAddress: clientAddress(c),
			UserAgent:     c.GetHeader("User-Agent"),
			Referrer:      c.GetHeader("Referer"),
		}

		log.Info("UTM tracking request", "ip", c.ClientIP(), "params", in.Params)
		log.Debug("about to insert",
			"params", in.Params,
			"ip", c.ClientIP(),
			"user_agent", in.UserAgent,
			"referrer", in.Referrer,
		)

		click, err := st.AppendClick(c.Request.Context(), in)
		if err != nil {
			log.Error("database insert failed", logging.ErrorAttrs(err)...)
			ErrorPage(c)
			return
		}
		log.Info("UTM click logged to database", "id", click.ID)

		page, err := pages.Success(params)
		if err != nil {
			log.Error("unexpected error in /track", logging.ErrorAttrs(err)...)
			ErrorPage(c)
			return
		}

		c.Data(http.StatusOK, pages.ContentType, page)
	})
}
