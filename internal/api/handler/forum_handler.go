package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ait-forum/forum-api/internal/api/metrics"
	"github.com/ait-forum/forum-api/internal/core/authz"
	"github.com/ait-forum/forum-api/internal/core/domain"
	"github.com/ait-forum/forum-api/internal/core/ports"
)

const dateLayout = "2006-01-02"

// ForumHandler handles HTTP requests for posts, tags and comments.
type ForumHandler struct {
	posts ports.PostService
}

func NewForumHandler(posts ports.PostService) *ForumHandler {
	return &ForumHandler{posts: posts}
}

// Create adds a new post authored by the :author path parameter.
//
// @Summary      Create a post
// @Tags         forum
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        author  path      string          true  "Author login"
// @Param        body    body      newPostRequest  true  "Post details"
// @Success      201     {object}  postResponse
// @Failure      403     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Router       /forum/post/{author} [post]
func (h *ForumHandler) Create(c echo.Context) error {
	var req newPostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	post, err := h.posts.CreatePost(c.Request().Context(), c.Param("author"), ports.NewPostInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		return err
	}

	metrics.PostsCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, toPostResponse(post))
}

// Get returns a post by id.
//
// @Summary      Get a post
// @Tags         forum
// @Produce      json
// @Param        id  path      string  true  "Post id"
// @Success      200 {object}  postResponse
// @Failure      404 {object}  errorResponse
// @Router       /forum/post/{id} [get]
func (h *ForumHandler) Get(c echo.Context) error {
	post, err := h.posts.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponse(post))
}

// Update applies a partial update of title and content.
//
// @Summary      Update a post
// @Tags         forum
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        id    path      string             true  "Post id"
// @Param        body  body      updatePostRequest  true  "Fields to update"
// @Success      200   {object}  postResponse
// @Failure      404   {object}  errorResponse
// @Router       /forum/post/{id} [patch]
func (h *ForumHandler) Update(c echo.Context) error {
	var req updatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	post, err := h.posts.UpdatePost(c.Request().Context(), c.Param("id"), ports.UpdatePostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponse(post))
}

// Delete removes a post. The ownership rule cannot be evaluated from the
// path alone, so the post is fetched first and the policy checked against
// its author before anything is mutated.
//
// @Summary      Delete a post
// @Tags         forum
// @Produce      json
// @Security     BasicAuth
// @Param        id  path      string  true  "Post id"
// @Success      200 {object}  postResponse
// @Failure      403 {object}  errorResponse
// @Failure      404 {object}  errorResponse
// @Router       /forum/post/{id} [delete]
func (h *ForumHandler) Delete(c echo.Context) error {
	post, err := h.posts.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	login, _ := c.Get("login").(string)
	roles, _ := c.Get("roles").(domain.RoleSet)
	decision := authz.Authorize(login, roles, authz.ActionDeletePost, post.Author)
	metrics.AuthzDecisionsTotal.WithLabelValues(string(authz.ActionDeletePost), decision.String()).Inc()
	if decision != authz.Allow {
		return domain.ErrForbidden
	}

	deleted, err := h.posts.DeletePost(c.Request().Context(), post.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponse(deleted))
}

// AddComment appends a comment authored by the :author path parameter.
//
// @Summary      Comment on a post
// @Tags         forum
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        id      path      string             true  "Post id"
// @Param        author  path      string             true  "Comment author login"
// @Param        body    body      newCommentRequest  true  "Comment"
// @Success      200     {object}  postResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /forum/post/{id}/comment/{author} [post]
func (h *ForumHandler) AddComment(c echo.Context) error {
	var req newCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	post, err := h.posts.AddComment(c.Request().Context(), c.Param("id"), c.Param("author"), req.Message)
	if err != nil {
		return err
	}

	metrics.CommentsAddedTotal.Inc()
	return c.JSON(http.StatusOK, toPostResponse(post))
}

// AddLike increments a comment's like counter.
//
// @Summary      Like a comment
// @Tags         forum
// @Security     BasicAuth
// @Param        id   path  string  true  "Post id"
// @Param        cid  path  string  true  "Comment id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /forum/post/{id}/comment/{cid}/like [patch]
func (h *ForumHandler) AddLike(c echo.Context) error {
	if err := h.posts.AddLike(c.Request().Context(), c.Param("id"), c.Param("cid")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ByAuthor lists posts by author, matched case-insensitively.
//
// @Summary      List posts by author
// @Tags         forum
// @Produce      json
// @Param        author  path      string  true  "Author login"
// @Success      200     {array}   postResponse
// @Router       /forum/posts/author/{author} [get]
func (h *ForumHandler) ByAuthor(c echo.Context) error {
	posts, err := h.posts.FindByAuthor(c.Request().Context(), c.Param("author"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponses(posts))
}

// ByTags lists posts carrying any of the comma-separated tag names.
//
// @Summary      List posts by tags
// @Tags         forum
// @Produce      json
// @Param        values  query     string  true  "Comma-separated tag names"
// @Success      200     {array}   postResponse
// @Router       /forum/posts/tags [get]
func (h *ForumHandler) ByTags(c echo.Context) error {
	values := c.QueryParam("values")
	if values == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing values query parameter")
	}

	posts, err := h.posts.FindByTags(c.Request().Context(), strings.Split(values, ","))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponses(posts))
}

// ByPeriod lists posts created between dateFrom and dateTo, both inclusive.
//
// @Summary      List posts by creation period
// @Tags         forum
// @Produce      json
// @Param        dateFrom  query     string  true  "Start date (YYYY-MM-DD)"
// @Param        dateTo    query     string  true  "End date (YYYY-MM-DD)"
// @Success      200       {array}   postResponse
// @Failure      400       {object}  errorResponse
// @Router       /forum/posts/period [get]
func (h *ForumHandler) ByPeriod(c echo.Context) error {
	from, err := time.Parse(dateLayout, c.QueryParam("dateFrom"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid dateFrom, expected YYYY-MM-DD")
	}
	to, err := time.Parse(dateLayout, c.QueryParam("dateTo"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid dateTo, expected YYYY-MM-DD")
	}
	if to.Before(from) {
		return echo.NewHTTPError(http.StatusBadRequest, "dateTo precedes dateFrom")
	}

	posts, err := h.posts.FindByPeriod(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponses(posts))
}
