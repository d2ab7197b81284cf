package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/cfscrape/models"
)

// TokenExchanger trades an OAuth authorization code for an access token.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// GitHubCallback returns a handler for GET /auth/github/callback.
//
// GitHub redirects here with ?code=...&state=<extension id>. The code is
// exchanged once and the browser is sent on to the extension's
// chromiumapp.org redirect URL with the token attached. Only extensions in
// extensionIDs may receive a token; the first one is used when state is
// empty.
func GitHubCallback(tokens TokenExchanger, extensionIDs []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(extensionIDs))
	for _, id := range extensionIDs {
		if id != "" {
			allowed[id] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		var req models.OAuthCallbackRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "missing authorization code",
				Code:  models.ErrCodeInvalidInput,
			})
			return
		}

		extID := req.State
		if extID == "" && len(extensionIDs) > 0 {
			extID = extensionIDs[0]
		}
		if _, ok := allowed[extID]; !ok {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "unknown extension",
				Code:  models.ErrCodeInvalidInput,
			})
			return
		}

		token, err := tokens.Exchange(c.Request.Context(), req.Code)
		if err != nil {
			respondError(c, models.NewScrapeError(
				models.ErrCodeOAuthExchange,
				"failed to exchange authorization code",
				err,
			))
			return
		}

		c.Redirect(http.StatusFound, ExtensionRedirectURL(extID, token))
	}
}

// ExtensionRedirectURL builds https://<id>.chromiumapp.org/?token=<token>.
func ExtensionRedirectURL(extensionID, token string) string {
	u := url.URL{
		Scheme:   "https",
		Host:     extensionID + ".chromiumapp.org",
		Path:     "/",
		RawQuery: url.Values{"token": {token}}.Encode(),
	}
	return u.String()
}
