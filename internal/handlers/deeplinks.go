package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"community-service/internal/deeplink"
	"community-service/internal/logger"
)

type DeepLinkHandler struct {
	router *deeplink.Router
}

// NewDeepLinkHandler resolves links of every type except auth, which only the app can act on.
func NewDeepLinkHandler(scheme string) *DeepLinkHandler {
	router := deeplink.NewRouter(scheme)
	logResolved := func(l deeplink.Link) {
		logger.Debug("deep link resolved", "type", l.Type, "id", l.ID)
	}
	for _, t := range []deeplink.LinkType{deeplink.TypeGroup, deeplink.TypeEvent, deeplink.TypeReferral, deeplink.TypeNotifications} {
		router.Handle(t, logResolved)
	}
	return &DeepLinkHandler{router: router}
}

func (h *DeepLinkHandler) Resolve(c *gin.Context) {
	raw := c.Query("url")
	if !h.router.Dispatch(raw) {
		c.JSON(nethttp.StatusNotFound, gin.H{"error": "unrecognised link"})
		return
	}
	link, _ := h.router.Resolve(raw)
	c.JSON(nethttp.StatusOK, link)
}
