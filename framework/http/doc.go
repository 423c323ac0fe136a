// Package http provides the request wrapper, response values and view
// renderer used by route handlers.
//
// # Request
//
//	var payload struct {
//	    Title string `json:"title"`
//	}
//	if err := req.Bind(&payload); err != nil { ... }
//
//	page  := req.Query("page", "1")
//	title := req.Input("title")
//	id    := req.RouteParam("id")   // captured by the matched route
//	token := req.BearerToken()
//
// # Response
//
// Handlers return a *Response; the front controller writes it.
//
//	gohttp.JSON(200, data)           // raw JSON with status
//	gohttp.Success(data)             // 200 {"data": ...}
//	gohttp.Created(data)             // 201 {"data": ...}
//	gohttp.NoContent()               // 204
//	gohttp.Error(400, "bad input")   // {"message": "bad input"}
//	gohttp.NotFound()                // 404 {"message": "Not found."}
//	gohttp.Unprocessable(errs)       // 422 {"errors": {"field": ["msg"]}}
//	gohttp.Redirect(302, "/dashboard")
//
// # View
//
//	view := gohttp.NewView("./views", ".html")
//	res, err := view.Render("home", map[string]any{"Title": "Home"})
//	res, err  = view.RenderLayout("layouts/app", "posts/index", data)
package http
