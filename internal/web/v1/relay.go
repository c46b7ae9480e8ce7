package v1

import (
	"net/http"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/gin-gonic/gin"

	logicv1 "github.com/duynhne/bookreview-service/internal/logic/v1"
	"github.com/duynhne/bookreview-service/middleware"
)

// relayTarget names a public read route and the message used when relaying it fails.
type relayTarget struct {
	message string
	path    func(*gin.Context) string
}

var (
	relayCatalog = relayTarget{
		message: "Error fetching books",
		path:    func(*gin.Context) string { return logicv1.CatalogPath() },
	}
	relayBook = relayTarget{
		message: "Error fetching book",
		path:    func(c *gin.Context) string { return logicv1.BookPath(c.Param("isbn")) },
	}
	relayAuthor = relayTarget{
		message: "Error fetching books by author",
		path:    func(c *gin.Context) string { return logicv1.AuthorPath(c.Param("author")) },
	}
	relayTitle = relayTarget{
		message: "Error fetching books by title",
		path:    func(c *gin.Context) string { return logicv1.TitlePath(c.Param("title")) },
	}
)

func (h *Handler) registerRelayRoutes(rg gin.IRouter) {
	rg.GET("/books/async", h.relayBlocking(relayCatalog))
	rg.GET("/books/promise", h.relayCallback(relayCatalog))

	rg.GET("/axios/isbn/:isbn/async", h.relayBlocking(relayBook))
	rg.GET("/axios/isbn/:isbn/promise", h.relayCallback(relayBook))

	rg.GET("/axios/author/:author/async", h.relayBlocking(relayAuthor))
	rg.GET("/axios/author/:author/promise", h.relayCallback(relayAuthor))

	rg.GET("/axios/title/:title/async", h.relayBlocking(relayTitle))
	rg.GET("/axios/title/:title/promise", h.relayCallback(relayTitle))
}

// relayBlocking suspends on the self-call and then writes the outcome.
func (h *Handler) relayBlocking(t relayTarget) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := startSpan(c, "http.relay.async")
		defer span.End()

		res, err := h.relay.Fetch(ctx, t.path(c))
		if err != nil {
			span.RecordError(err)
			writeRelayError(c, "async", t.message, err)
			return
		}
		writeRelayed(c, "async", res)
	}
}

// relayCallback expresses the same self-call as a Then/Catch continuation
// chain; the handler only waits for the chain to settle.
func (h *Handler) relayCallback(t relayTarget) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := startSpan(c, "http.relay.promise")
		defer span.End()

		p := h.relay.FetchAsync(ctx, t.path(c)).
			Then(func(res *logicv1.Relayed) {
				writeRelayed(c, "promise", res)
			}).
			Catch(func(err error) {
				span.RecordError(err)
				writeRelayError(c, "promise", t.message, err)
			})
		<-p.Done()
	}
}

func writeRelayed(c *gin.Context, variant string, res *logicv1.Relayed) {
	middleware.RecordSelfCall(variant, "ok")
	c.IndentedJSON(http.StatusOK, res.Body)
}

func writeRelayError(c *gin.Context, variant, message string, err error) {
	middleware.RecordSelfCall(variant, "upstream_error")
	pkgzerolog.FromContext(c.Request.Context()).Warn().
		Err(err).
		Str("variant", variant).
		Msg("Self-call failed")

	c.JSON(logicv1.ErrorStatus(err), gin.H{
		"message": message,
		"error":   logicv1.ErrorDetail(err),
	})
}
