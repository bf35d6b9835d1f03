package ui

import (
	"net/http"

	"ideascope/internal/api"
	"ideascope/internal/errors"
	"ideascope/internal/research"
	"ideascope/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// defaultUserID is the demo user seeded by the migrations. Requests may
// override it with an X-User-ID header until real authentication lands.
var defaultUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type initiateRequest struct {
	IdeaTitle       string `json:"idea_title" binding:"required"`
	IdeaDescription string `json:"idea_description"`
	Approach        string `json:"approach" binding:"required"`
}

// handleApproaches returns the catalog of research approaches.
func (s *Server) handleApproaches(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"approaches": research.Approaches()})
}

// handleInitiateResearch creates a Pending session for an idea. Execution is
// a separate call; a created session holds no provider resources.
func (s *Server) handleInitiateResearch(c *gin.Context) {
	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idea_title and approach are required"})
		return
	}

	approach := models.Approach(req.Approach)
	if !approach.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown approach: " + req.Approach})
		return
	}

	session := models.NewResearchSession(userID(c), req.IdeaTitle, req.IdeaDescription, approach)
	if err := s.sessions.CreateSession(c.Request.Context(), session); err != nil {
		s.logger.Error("Failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create research session"})
		return
	}

	s.logger.Info("Created session %s (%s) for idea %q", session.ID, session.Approach, session.IdeaTitle)
	c.JSON(http.StatusCreated, session)
}

// handleExecuteResearch enqueues execution of a session's workflow. Calling it
// while a task is already outstanding returns that task rather than starting a
// second execution. A session that already reached a terminal state cannot be
// re-executed through this endpoint.
func (s *Server) handleExecuteResearch(c *gin.Context) {
	sessionID, ok := parseID(c)
	if !ok {
		return
	}

	session, err := s.sessions.LoadSession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	if task, running := s.scheduler.RunningTask(sessionID); running {
		c.JSON(http.StatusAccepted, gin.H{"task_id": task.ID, "session_id": sessionID, "status": task.Status().Status})
		return
	}

	if session.Status.Terminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "session already finished with status " + string(session.Status)})
		return
	}

	task, err := s.scheduler.Enqueue(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": task.ID, "session_id": sessionID, "status": models.StatusPending})
}

// handleGetSession returns one session.
func (s *Server) handleGetSession(c *gin.Context) {
	sessionID, ok := parseID(c)
	if !ok {
		return
	}

	session, err := s.sessions.LoadSession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// handleListSessions returns the caller's sessions, newest first.
func (s *Server) handleListSessions(c *gin.Context) {
	sessions, err := s.sessions.ListSessions(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
}

// handleSessionProgress reports the session's current status, phase and
// progress. It reads the live task snapshot when one exists so pollers see
// updates without waiting on the store.
func (s *Server) handleSessionProgress(c *gin.Context) {
	sessionID, ok := parseID(c)
	if !ok {
		return
	}

	if task, running := s.scheduler.RunningTask(sessionID); running {
		c.JSON(http.StatusOK, task.Status())
		return
	}

	session, err := s.sessions.LoadSession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":    session.ID,
		"status":        session.Status,
		"phase":         session.CurrentPhase,
		"progress":      session.Progress,
		"error_message": session.Error.String,
	})
}

// handleSessionResults returns the accumulated insights and options for a
// completed session.
func (s *Server) handleSessionResults(c *gin.Context) {
	sessionID, ok := parseID(c)
	if !ok {
		return
	}

	session, err := s.sessions.LoadSession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	if session.Status != models.StatusCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "results are available once research completes", "status": session.Status})
		return
	}

	insights, err := s.research.ListInsights(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	options, err := s.research.ListOptions(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":             session,
		"insights":            insights,
		"options":             options,
		"analysis_confidence": session.AnalysisConfidence,
	})
}

// handleTaskStatus returns the scheduler's snapshot for one task.
func (s *Server) handleTaskStatus(c *gin.Context) {
	taskID, ok := parseID(c)
	if !ok {
		return
	}

	status, err := s.scheduler.GetStatus(taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// handleCancelTask requests cooperative cancellation. The running phase
// finishes before the task stops, so the response only acknowledges the
// request.
func (s *Server) handleCancelTask(c *gin.Context) {
	taskID, ok := parseID(c)
	if !ok {
		return
	}

	if err := s.scheduler.Cancel(taskID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID, "message": "cancellation requested"})
}

// handleEvents streams progress events over SSE for a session or task group.
func (s *Server) handleEvents(c *gin.Context) {
	if raw := c.Query("session_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session_id"})
			return
		}
		s.hub.StreamSSE(c, api.SessionGroup(id))
		return
	}

	if raw := c.Query("task_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task_id"})
			return
		}
		s.hub.StreamSSE(c, api.TaskGroup(id))
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "session_id or task_id query parameter is required"})
}

func userID(c *gin.Context) uuid.UUID {
	if raw := c.GetHeader("X-User-ID"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return id
		}
	}
	return defaultUserID
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps application error codes onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.CodeInvalidInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.CodeSessionRunning, errors.CodeSessionTerminal:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
