package content

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/crmkit/portal-api/pkg/response"
)

// GinHandlers contains HTTP handlers for articles and banners
type GinHandlers struct {
	articles *ArticleStore
	banners  *BannerStore
}

// NewGinHandlers creates a new set of HTTP handlers for the content stores
func NewGinHandlers(articles *ArticleStore, banners *BannerStore) *GinHandlers {
	return &GinHandlers{articles: articles, banners: banners}
}

func handleContent(c *gin.Context, data interface{}, err error) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "Resource not found")
		return
	}
	response.Handle(c, data, err)
}

func (h *GinHandlers) ListArticlesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.articles.List())
	}
}

func (h *GinHandlers) CreateArticleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in ArticleInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		a, err := h.articles.Create(in)
		handleContent(c, a, err)
	}
}

func (h *GinHandlers) UpdateArticleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in ArticleInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		a, err := h.articles.Update(c.Param("id"), in)
		handleContent(c, a, err)
	}
}

func (h *GinHandlers) DeleteArticleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		err := h.articles.Delete(id)
		handleContent(c, gin.H{"deleted": id}, err)
	}
}

func (h *GinHandlers) ListBannersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.banners.List())
	}
}

func (h *GinHandlers) CreateBannerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in BannerInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		b, err := h.banners.Create(in)
		handleContent(c, b, err)
	}
}

func (h *GinHandlers) UpdateBannerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in BannerInput
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		b, err := h.banners.Update(c.Param("id"), in)
		handleContent(c, b, err)
	}
}

func (h *GinHandlers) DeleteBannerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		err := h.banners.Delete(id)
		handleContent(c, gin.H{"deleted": id}, err)
	}
}
