package controllers

import (
	"context"

	"github.com/km-arc/gomvc/app/models"
	"github.com/km-arc/gomvc/framework/config"
	"github.com/km-arc/gomvc/framework/database"
	gohttp "github.com/km-arc/gomvc/framework/http"
)

// HomeController renders the landing page.
type HomeController struct {
	view  *gohttp.View
	posts *database.Repository[models.Post]
	cfg   *config.Config
}

func NewHomeController(view *gohttp.View, posts *database.Repository[models.Post], cfg *config.Config) *HomeController {
	return &HomeController{view: view, posts: posts, cfg: cfg}
}

// Index lists the five latest published posts.
func (c *HomeController) Index(ctx context.Context) (*gohttp.Response, error) {
	var latest []models.Post
	err := c.posts.DB(ctx).
		Where("published = ?", true).
		Order("id DESC").
		Limit(5).
		Find(&latest).Error
	if err != nil {
		return nil, err
	}
	return c.view.RenderLayout("layout", "home", map[string]any{
		"App":   c.cfg.App.Name,
		"Posts": latest,
	})
}
