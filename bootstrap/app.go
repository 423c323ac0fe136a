// Package bootstrap assembles the sample application: its classes, bindings,
// commands, schedule and code-defined routes. HTTP routes for controllers live
// in routes/web.yaml.
package bootstrap

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/km-arc/gomvc/app/commands"
	"github.com/km-arc/gomvc/app/controllers"
	"github.com/km-arc/gomvc/app/models"
	"github.com/km-arc/gomvc/framework/app"
	"github.com/km-arc/gomvc/framework/container"
	"github.com/km-arc/gomvc/framework/database"
	gohttp "github.com/km-arc/gomvc/framework/http"
	"github.com/km-arc/gomvc/framework/routing"
)

// New returns the application, not yet booted.
func New(opts ...app.Option) *app.Application {
	a := app.New(opts...)

	a.Singleton(container.KeyOf[*database.Repository[models.Post]](), func(c *container.Container) any {
		return database.NewRepository[models.Post](container.MustGet[*gorm.DB](c, "gorm"))
	})
	a.Migrate(&models.Post{})

	classes := a.Classes()
	classes.MustRegister("HomeController", controllers.NewHomeController)
	classes.MustRegister("PostController", controllers.NewPostController)
	classes.MustRegister("PrunePostsCommand", commands.NewPrunePosts)

	a.Command("posts:prune", "PrunePostsCommand", "Delete stale draft posts")
	a.Schedule("0 0 3 * * *", "posts:prune", "--days=30")

	a.Routes(func(r *routing.Router) {
		r.Get("/health", func() *gohttp.Response {
			return gohttp.JSON(http.StatusOK, map[string]string{"status": "ok"})
		}).Name("health")
	})
	return a
}
