package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatsync/internal/chat"
	"chatsync/internal/chaterr"
)

type ChatHandler struct {
	Service *chat.Service
}

func convParam(c *gin.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id64 == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid conversation id"})
		return 0, false
	}
	return uint(id64), true
}

func fail(c *gin.Context, err error) {
	c.JSON(chaterr.HTTPStatus(err), gin.H{"message": err.Error()})
}

type createDirectReq struct {
	OtherUserID uint `json:"other_user_id" binding:"required"`
}

func (h *ChatHandler) CreateDirectConversation(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var req createDirectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	conv, err := h.Service.CreateDirect(userID, req.OtherUserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": conv})
}

type createGroupReq struct {
	Name      string `json:"name" binding:"required"`
	MemberIDs []uint `json:"member_ids" binding:"required"`
}

func (h *ChatHandler) CreateGroupConversation(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var req createGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	conv, err := h.Service.CreateGroup(userID, req.Name, req.MemberIDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": conv})
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	views, err := h.Service.ListConversations(userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	convID, ok := convParam(c)
	if !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	var beforeID uint
	if v := c.Query("before_id"); v != "" {
		if b, err := strconv.ParseUint(v, 10, 64); err == nil {
			beforeID = uint(b)
		}
	}

	msgs, err := h.Service.VisibleHistory(convID, userID, limit, beforeID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	convID, ok := convParam(c)
	if !ok {
		return
	}

	var in chat.SendInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	msg, err := h.Service.Send(convID, userID, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": msg})
}

type markDeliveredReq struct {
	MessageIDs []uint `json:"message_ids" binding:"required"`
}

func (h *ChatHandler) MarkDelivered(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var req markDeliveredReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	n, err := h.Service.MarkDelivered(req.MessageIDs, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modified": n})
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	convID, ok := convParam(c)
	if !ok {
		return
	}

	n, err := h.Service.MarkRead(convID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modified": n})
}

// HideConversation soft-deletes the conversation for the caller only.
func (h *ChatHandler) HideConversation(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	convID, ok := convParam(c)
	if !ok {
		return
	}

	if err := h.Service.Hide(convID, userID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "hidden"})
}

type muteReq struct {
	Muted *bool `json:"muted" binding:"required"`
}

func (h *ChatHandler) SetMuted(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	convID, ok := convParam(c)
	if !ok {
		return
	}

	var req muteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	if err := h.Service.SetMuted(convID, userID, *req.Muted); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

type memberReq struct {
	UserID uint `json:"user_id" binding:"required"`
}

func (h *ChatHandler) AddGroupMember(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	convID, ok := convParam(c)
	if !ok {
		return
	}

	var req memberReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	if err := h.Service.AddGroupMember(convID, userID, req.UserID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "added"})
}

func (h *ChatHandler) RemoveGroupMember(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	convID, ok := convParam(c)
	if !ok {
		return
	}

	memberID64, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || memberID64 == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return
	}

	if err := h.Service.RemoveGroupMember(convID, userID, uint(memberID64)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "removed"})
}
