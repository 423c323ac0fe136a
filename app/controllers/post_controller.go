// Package controllers holds the HTTP controllers. Each is a resolver class:
// its constructor arguments come from the request container.
package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/km-arc/gomvc/app/models"
	"github.com/km-arc/gomvc/framework/database"
	gohttp "github.com/km-arc/gomvc/framework/http"
	"github.com/km-arc/gomvc/framework/http/validation"
)

const postsPerPage = 15

var postRules = validation.Rules{
	"title": "required|min:3|max:120",
	"body":  "required",
}

type postInput struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

func (in postInput) validate() (validation.Errors, error) {
	return validation.Validate(map[string]string{"title": in.Title, "body": in.Body}, postRules)
}

// PostController is the JSON resource for posts.
type PostController struct {
	posts *database.Repository[models.Post]
	req   *gohttp.Request
	log   *slog.Logger
}

func NewPostController(posts *database.Repository[models.Post], req *gohttp.Request, log *slog.Logger) *PostController {
	return &PostController{posts: posts, req: req, log: log}
}

func (c *PostController) Index(ctx context.Context) (*gohttp.Response, error) {
	page, _ := strconv.Atoi(c.req.Query("page", "1"))
	result, err := c.posts.Paginate(ctx, page, postsPerPage)
	if err != nil {
		return nil, err
	}
	return gohttp.JSON(http.StatusOK, map[string]any{
		"data":      result.Items,
		"page":      result.Page,
		"per_page":  result.PerPage,
		"total":     result.Total,
		"last_page": result.LastPage(),
	}), nil
}

func (c *PostController) Store(ctx context.Context) (*gohttp.Response, error) {
	in, invalid, err := c.input()
	if err != nil || invalid != nil {
		return invalid, err
	}
	post := models.Post{Title: in.Title, Body: in.Body, Published: in.Published}
	if err := c.posts.Create(ctx, &post); err != nil {
		return nil, err
	}
	c.log.Info("post created", slog.Uint64("id", uint64(post.ID)))
	return gohttp.Created(post), nil
}

func (c *PostController) Show(ctx context.Context, id uint) (*gohttp.Response, error) {
	post, err := c.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return gohttp.Success(post), nil
}

func (c *PostController) Update(ctx context.Context, id uint) (*gohttp.Response, error) {
	post, err := c.find(ctx, id)
	if err != nil {
		return nil, err
	}
	in, invalid, err := c.input()
	if err != nil || invalid != nil {
		return invalid, err
	}
	post.Title, post.Body, post.Published = in.Title, in.Body, in.Published
	if err := c.posts.Save(ctx, post); err != nil {
		return nil, err
	}
	return gohttp.Success(post), nil
}

func (c *PostController) Destroy(ctx context.Context, id uint) (*gohttp.Response, error) {
	if err := c.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, gohttp.Abort(http.StatusNotFound, "Post not found.")
		}
		return nil, err
	}
	c.log.Info("post deleted", slog.Uint64("id", uint64(id)))
	return gohttp.NoContent(), nil
}

func (c *PostController) find(ctx context.Context, id uint) (*models.Post, error) {
	post, err := c.posts.Find(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, gohttp.Abort(http.StatusNotFound, "Post not found.")
	}
	return post, err
}

// input binds and validates the body. A non-nil response is the 4xx to
// return as is.
func (c *PostController) input() (postInput, *gohttp.Response, error) {
	var in postInput
	if err := c.req.Bind(&in); err != nil {
		return in, gohttp.Error(http.StatusBadRequest, err.Error()), nil
	}
	errs, err := in.validate()
	if err != nil {
		return in, nil, err
	}
	if errs.Any() {
		return in, gohttp.Unprocessable(errs), nil
	}
	return in, nil, nil
}
