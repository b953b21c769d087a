package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatsync/internal/chat"
)

type BlockHandler struct {
	Service *chat.Service
}

func targetParam(c *gin.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || id64 == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return 0, false
	}
	return uint(id64), true
}

func (h *BlockHandler) Block(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	targetID, ok := targetParam(c)
	if !ok {
		return
	}

	if err := h.Service.Block(userID, targetID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "blocked"})
}

func (h *BlockHandler) Unblock(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	targetID, ok := targetParam(c)
	if !ok {
		return
	}

	if err := h.Service.Unblock(userID, targetID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unblocked"})
}

func (h *BlockHandler) BlockStatus(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	targetID, ok := targetParam(c)
	if !ok {
		return
	}

	st, err := h.Service.BlockStatus(userID, targetID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": st})
}
