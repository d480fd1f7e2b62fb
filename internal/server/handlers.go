package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storyboard/internal/credentials"
	"storyboard/internal/shot"
	"storyboard/internal/storyboard"
)

type credentialsRequest struct {
	APIKey string `json:"apiKey"`
}

type analyzeRequest struct {
	Script string `json:"script"`
}

type exportRequest struct {
	Name string `json:"name"`
}

func errorJSON(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) getCredentials(c *gin.Context) {
	required := false
	if s.opts.Pending != nil {
		required = s.opts.Pending.SelectionRequired()
	}
	c.JSON(http.StatusOK, gin.H{
		"selected":          s.opts.Keys.HasSelected(c.Request.Context()),
		"selectionRequired": required,
	})
}

func (s *Server) putCredentials(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	var err error
	if s.opts.Pending != nil {
		err = s.opts.Pending.Resolve(req.APIKey)
	} else {
		err = s.opts.Keys.Set(req.APIKey)
	}
	if errors.Is(err, credentials.ErrNoKey) {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}

	slog.Info("Gemini API key selected from browser")
	c.Status(http.StatusNoContent)
}

func (s *Server) getBoard(c *gin.Context) {
	c.JSON(http.StatusOK, s.opts.Board.Snapshot())
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}

	err := s.opts.Board.Analyze(s.ctx, req.Script)

	var aerr *storyboard.ScriptAnalysisError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, s.opts.Board.Snapshot())
	case errors.Is(err, storyboard.ErrAnalysisInProgress):
		errorJSON(c, http.StatusConflict, err)
	case errors.As(err, &aerr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": aerr.Error(),
			"state": s.opts.Board.Snapshot(),
		})
	default:
		errorJSON(c, http.StatusInternalServerError, err)
	}
}

func shotIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		errorJSON(c, http.StatusBadRequest, errors.New("shot index must be an integer"))
		return 0, false
	}
	return index, true
}

// renderShot answers 200 with the shot for failed renders too; the shot's
// error field carries the failure.
func (s *Server) renderShot(c *gin.Context) {
	index, ok := shotIndex(c)
	if !ok {
		return
	}

	err := s.opts.Board.Render(s.ctx, index)

	var rerr *storyboard.RenderError
	switch {
	case err == nil, errors.As(err, &rerr):
	case errors.Is(err, storyboard.ErrShotIndex):
		errorJSON(c, http.StatusNotFound, err)
		return
	case errors.Is(err, storyboard.ErrListReplaced):
		errorJSON(c, http.StatusConflict, err)
		return
	default:
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}

	rs, err := s.opts.Board.Shot(index)
	if err != nil {
		errorJSON(c, http.StatusConflict, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (s *Server) shotImage(c *gin.Context) {
	index, ok := shotIndex(c)
	if !ok {
		return
	}

	rs, err := s.opts.Board.Shot(index)
	if err != nil {
		errorJSON(c, http.StatusNotFound, err)
		return
	}
	if rs.ImageURL == "" {
		errorJSON(c, http.StatusNotFound, errors.New("shot has no image"))
		return
	}

	mimeType, data, err := shot.DecodeDataURL(rs.ImageURL)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, mimeType, data)
}

func (s *Server) renderAll(c *gin.Context) {
	done, err := s.opts.Board.StartRenderAll(s.ctx)
	if errors.Is(err, storyboard.ErrSweepInProgress) {
		errorJSON(c, http.StatusConflict, err)
		return
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}

	go func() {
		if err := <-done; err != nil {
			slog.Warn("Render sweep stopped", "error", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (s *Server) export(c *gin.Context) {
	var req exportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, err)
			return
		}
	}

	result, err := s.opts.Export(c.Request.Context(), req.Name)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
