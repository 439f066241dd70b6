package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samlahq/samla/pkg/db/pagination"
)

func (s *Server) ListConversations(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.inboxSvc.ListConversations(c.Request.Context(), currentWorkspaceID(c), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) GetConversation(c *gin.Context) {
	conversationID, ok := parseIDParam(c, "conversation_id")
	if !ok {
		return
	}

	conv, err := s.inboxSvc.GetConversation(c.Request.Context(), currentWorkspaceID(c), conversationID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) ListMessages(c *gin.Context) {
	conversationID, ok := parseIDParam(c, "conversation_id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	messages, err := s.inboxSvc.ListMessages(c.Request.Context(), currentWorkspaceID(c), conversationID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

func (s *Server) SendMessage(c *gin.Context) {
	conversationID, ok := parseIDParam(c, "conversation_id")
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	msg, err := s.inboxSvc.AppendOutbound(c.Request.Context(), currentWorkspaceID(c), conversationID, req.Body)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (s *Server) CloseConversation(c *gin.Context) {
	conversationID, ok := parseIDParam(c, "conversation_id")
	if !ok {
		return
	}

	if err := s.inboxSvc.CloseConversation(c.Request.Context(), currentWorkspaceID(c), conversationID); err != nil {
		AbortWithError(c, err)
		return
	}
	statusOK(c)
}

type addNoteRequest struct {
	Body string `json:"body"`
}

func (s *Server) AddNote(c *gin.Context) {
	conversationID, ok := parseIDParam(c, "conversation_id")
	if !ok {
		return
	}

	var req addNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user := currentUser(c)
	note, err := s.inboxSvc.AddNote(c.Request.Context(), currentWorkspaceID(c), conversationID, user.ID, req.Body)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (s *Server) ListNotes(c *gin.Context) {
	conversationID, ok := parseIDParam(c, "conversation_id")
	if !ok {
		return
	}

	notes, err := s.inboxSvc.ListNotes(c.Request.Context(), currentWorkspaceID(c), conversationID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

func (s *Server) DeleteNote(c *gin.Context) {
	noteID, ok := parseIDParam(c, "note_id")
	if !ok {
		return
	}

	if err := s.inboxSvc.DeleteNote(c.Request.Context(), currentWorkspaceID(c), noteID); err != nil {
		AbortWithError(c, err)
		return
	}
	statusOK(c)
}
