package controllers

import (
	"net/http"

	"teamboard/app/dashboard"
	"teamboard/app/models"
	"teamboard/app/services"
	"teamboard/app/session"
)

// PostController serves the discussion board.
type PostController struct {
	posts   *services.PostService
	dash    *dashboard.Dashboard
	guard   *dashboard.Guard
	session *session.Controller
}

// NewPostController creates a new PostController
func NewPostController(posts *services.PostService, dash *dashboard.Dashboard, guard *dashboard.Guard, s *session.Controller) *PostController {
	return &PostController{posts: posts, dash: dash, guard: guard, session: s}
}

type postDetail struct {
	models.Post
	Fields []models.Field `json:"fields"`
	Mine   bool           `json:"mine"`
}

func (pc *PostController) detail(p models.Post) postDetail {
	return postDetail{Post: p, Fields: p.Fields(), Mine: p.WrittenBy(pc.session.User())}
}

// Index refreshes and returns the board.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	sendView(w, pc.dash.RefreshPosts(r.Context()))
}

// Mine returns the posts whose author is the signed-in user's display name.
func (pc *PostController) Mine(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.posts.ListByAuthor(r.Context(), pc.session.User())
	if err != nil {
		fail(w, err, posts)
		return
	}
	sendJSON(w, http.StatusOK, posts)
}

// Create adds a post. Any views value in the body is ignored.
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	var in models.PostInput
	if err := decode(r, &in); err != nil {
		sendError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if in.Author == "" {
		in.Author = pc.session.User().DisplayName()
	}
	if err := in.Validate(); err != nil {
		fail(w, err, nil)
		return
	}

	var post *models.Post
	err := pc.guard.Do("add-post", func() error {
		var err error
		post, err = pc.posts.Add(r.Context(), in)
		return err
	})
	if err != nil {
		fail(w, err, nil)
		return
	}
	pc.dash.RefreshPosts(r.Context())
	sendJSON(w, http.StatusCreated, pc.detail(*post))
}

// Show opens a post. Opening it counts a view, so repeated GETs of the same
// post each add one.
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	if post, ok := pc.countView(w, r); ok {
		sendJSON(w, http.StatusOK, pc.detail(*post))
	}
}

// View counts a view and returns only the new count.
func (pc *PostController) View(w http.ResponseWriter, r *http.Request) {
	if post, ok := pc.countView(w, r); ok {
		sendJSON(w, http.StatusOK, map[string]int64{"id": post.ID, "views": post.Views})
	}
}

func (pc *PostController) countView(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	id, err := pathID(r)
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error(), nil)
		return nil, false
	}
	post, err := pc.posts.IncrementViews(r.Context(), id)
	if err != nil {
		fail(w, err, nil)
		return nil, false
	}
	return post, true
}
