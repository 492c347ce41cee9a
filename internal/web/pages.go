// Package web serves the human-facing pages: the game list, per-game
// leaderboards with run submission, login and the moderation queue.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"speedrun/backend/internal/auth"
	"speedrun/backend/internal/handler"
	"speedrun/backend/internal/models"
	"speedrun/backend/internal/service"
	"speedrun/backend/internal/upload"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var funcs = template.FuncMap{
	"runtime": models.FormatRunTime,
	"join":    strings.Join,
}

// Pages renders the site on top of the same services as the JSON API.
type Pages struct {
	games     *service.GameService
	records   *service.RecordService
	auth      *service.AuthService
	uploads   *upload.Store
	tokenTTL  time.Duration
	secure    bool
	templates map[string]*template.Template
}

// Config carries what the pages need besides services.
type Config struct {
	TokenTTL     time.Duration
	SecureCookie bool
}

func New(games *service.GameService, records *service.RecordService, authSvc *service.AuthService,
	uploads *upload.Store, cfg Config) (*Pages, error) {
	p := &Pages{
		games:     games,
		records:   records,
		auth:      authSvc,
		uploads:   uploads,
		tokenTTL:  cfg.TokenTTL,
		secure:    cfg.SecureCookie,
		templates: map[string]*template.Template{},
	}
	for _, page := range []string{"home", "game", "login", "moderation"} {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, err
		}
		p.templates[page] = t
	}
	return p, nil
}

// Register mounts the pages and their static assets on r.
func (p *Pages) Register(r gin.IRouter, mw *auth.Middleware) {
	static, _ := fs.Sub(staticFS, "static")
	r.StaticFS("/static", http.FS(static))

	r.GET("/", mw.Optional(), p.home)
	r.GET("/games/:slug", mw.Optional(), p.game)
	r.POST("/games/:slug/records", mw.Optional(), p.submit)
	r.GET("/login", mw.Optional(), p.loginForm)
	r.POST("/login", p.login)
	r.POST("/logout", p.logout)

	mod := r.Group("/moderation", mw.Optional(), adminPage)
	mod.GET("", p.queue)
	mod.POST("/records/:id/approve", p.approve)
	mod.POST("/records/:id/reject", p.reject)
}

// adminPage sends anonymous visitors to the login page and non-admins home.
func adminPage(c *gin.Context) {
	if _, ok := auth.UserID(c); !ok {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}
	if !auth.IsAdmin(c) {
		c.Redirect(http.StatusSeeOther, "/")
		c.Abort()
		return
	}
	c.Next()
}

type viewer struct {
	ID    uint
	Admin bool
}

func (p *Pages) render(c *gin.Context, status int, page string, data gin.H) {
	if id, ok := auth.UserID(c); ok {
		data["Viewer"] = &viewer{ID: id, Admin: auth.IsAdmin(c)}
	}
	session := sessions.Default(c)
	if flashes := session.Flashes(); len(flashes) > 0 {
		messages := make([]string, 0, len(flashes))
		for _, f := range flashes {
			if s, ok := f.(string); ok {
				messages = append(messages, s)
			}
		}
		data["Flashes"] = messages
		if err := session.Save(); err != nil {
			log.Printf("web: save session: %v", err)
		}
	}
	c.Render(status, render.HTML{Template: p.templates[page], Name: "layout", Data: data})
}

func flash(c *gin.Context, msg string) {
	session := sessions.Default(c)
	session.AddFlash(msg)
	if err := session.Save(); err != nil {
		log.Printf("web: save session: %v", err)
	}
}

func (p *Pages) serverError(c *gin.Context, err error) {
	log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.String(http.StatusInternalServerError, "internal server error")
}

func (p *Pages) home(c *gin.Context) {
	games, err := p.games.List(c.Request.Context())
	if err != nil {
		p.serverError(c, err)
		return
	}
	p.render(c, http.StatusOK, "home", gin.H{"Title": "Games", "Games": games})
}

// submission echoes the submitted form back after a failure.
type submission struct {
	Time     string
	VideoURL string
	Notes    string
}

func queryID(c *gin.Context, name string) uint {
	id, _ := strconv.ParseUint(c.Query(name), 10, 32)
	return uint(id)
}

// game renders a leaderboard of approved runs. formErr and form are set
// when a submission is being re-rendered.
func (p *Pages) renderGame(c *gin.Context, status int, formErr string, form submission) {
	ctx := c.Request.Context()
	game, err := p.games.GetBySlug(ctx, c.Param("slug"))
	if errors.Is(err, service.ErrNotFound) {
		c.String(http.StatusNotFound, "game not found")
		return
	}
	if err != nil {
		p.serverError(c, err)
		return
	}

	approved := models.StatusApproved
	filter := service.LeaderboardFilter{Status: &approved}
	categoryID, versionID := queryID(c, "categoryId"), queryID(c, "versionId")
	if categoryID != 0 {
		filter.CategoryID = &categoryID
	}
	if versionID != 0 {
		filter.VersionID = &versionID
	}

	rows, err := p.records.Leaderboard(ctx, game.ID, filter)
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		p.serverError(c, err)
		return
	}

	p.render(c, status, "game", gin.H{
		"Title":      game.Name,
		"Game":       game,
		"Rows":       rows,
		"CategoryID": categoryID,
		"VersionID":  versionID,
		"Error":      formErr,
		"Form":       form,
	})
}

func (p *Pages) game(c *gin.Context) {
	p.renderGame(c, http.StatusOK, "", submission{})
}

func (p *Pages) submit(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	ctx := c.Request.Context()
	form := submission{
		Time:     strings.TrimSpace(c.PostForm("time")),
		VideoURL: strings.TrimSpace(c.PostForm("video_url")),
		Notes:    c.PostForm("notes"),
	}
	fail := func(status int, msg string) { p.renderGame(c, status, msg, form) }

	game, err := p.games.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		fail(http.StatusNotFound, "game not found")
		return
	}
	versionID, err := strconv.ParseUint(c.PostForm("version_id"), 10, 32)
	if err != nil {
		fail(http.StatusBadRequest, "choose a version")
		return
	}
	timeMs, err := models.ParseRunTime(form.Time)
	if err != nil {
		fail(http.StatusBadRequest, "time must be formatted as HH:MM:SS")
		return
	}
	var categoryIDs []uint
	if raw := c.PostForm("category_id"); raw != "" {
		categoryID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			fail(http.StatusBadRequest, "choose a category")
			return
		}
		categoryIDs = append(categoryIDs, uint(categoryID))
	}

	var saved string
	if fh, err := c.FormFile("proof"); err == nil && p.uploads != nil {
		if saved, err = p.uploads.Save(fh); err != nil {
			p.failWith(c, err, fail)
			return
		}
		form.VideoURL = saved
	}

	_, err = p.records.Create(ctx, service.CreateRecordInput{
		UserID:      userID,
		GameID:      game.ID,
		VersionID:   uint(versionID),
		TimeMs:      timeMs,
		VideoURL:    form.VideoURL,
		Notes:       form.Notes,
		CategoryIDs: categoryIDs,
	})
	if err != nil {
		if saved != "" {
			if err := p.uploads.Remove(saved); err != nil {
				log.Printf("web: discard upload %s: %v", saved, err)
			}
			form.VideoURL = ""
		}
		p.failWith(c, err, fail)
		return
	}

	flash(c, "Run submitted. It will appear once a moderator approves it.")
	c.Redirect(http.StatusSeeOther, "/games/"+game.Slug)
}

// failWith re-renders the form for errors the user can fix and hides the rest.
func (p *Pages) failWith(c *gin.Context, err error, fail func(int, string)) {
	if status := handler.StatusFor(err); status != http.StatusInternalServerError {
		fail(status, err.Error())
		return
	}
	p.serverError(c, err)
}

func (p *Pages) loginForm(c *gin.Context) {
	p.render(c, http.StatusOK, "login", gin.H{"Title": "Log in"})
}

func (p *Pages) login(c *gin.Context) {
	login := strings.TrimSpace(c.PostForm("login"))
	res, err := p.auth.Login(c.Request.Context(), login, c.PostForm("password"))
	if err != nil {
		status := handler.StatusFor(err)
		if status == http.StatusInternalServerError {
			p.serverError(c, err)
			return
		}
		p.render(c, http.StatusUnauthorized, "login", gin.H{
			"Title": "Log in",
			"Login": login,
			"Error": "Invalid username/email or password.",
		})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.TokenCookie, res.Token, int(p.tokenTTL.Seconds()), "/", "", p.secure, true)
	flash(c, "Welcome back, "+res.User.Username+".")
	c.Redirect(http.StatusSeeOther, "/")
}

func (p *Pages) logout(c *gin.Context) {
	c.SetCookie(auth.TokenCookie, "", -1, "/", "", p.secure, true)
	c.Redirect(http.StatusSeeOther, "/")
}

func (p *Pages) queue(c *gin.Context) {
	pending := models.StatusPending
	rows, err := p.records.List(c.Request.Context(), service.RecordFilter{Status: &pending})
	if err != nil {
		p.serverError(c, err)
		return
	}
	p.render(c, http.StatusOK, "moderation", gin.H{"Title": "Moderation", "Rows": rows})
}

func (p *Pages) approve(c *gin.Context) {
	p.moderate(c, p.records.Approve, "approved")
}

func (p *Pages) reject(c *gin.Context) {
	p.moderate(c, p.records.Reject, "rejected")
}

func (p *Pages) moderate(c *gin.Context, action func(ctx context.Context, id uint) (models.RecordView, error), verb string) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		flash(c, "Unknown record.")
		c.Redirect(http.StatusSeeOther, "/moderation")
		return
	}
	row, err := action(c.Request.Context(), uint(id))
	switch {
	case err == nil:
		flash(c, "Run by "+row.Username+" "+verb+".")
	case errors.Is(err, service.ErrNotFound):
		flash(c, "That run no longer exists.")
	default:
		log.Printf("web: moderate record %d: %v", id, err)
		flash(c, "Could not update the run, try again.")
	}
	c.Redirect(http.StatusSeeOther, "/moderation")
}
