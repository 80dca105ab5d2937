package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalpt/legal-rag-be/repository"
	"github.com/legalpt/legal-rag-be/types"
	"github.com/legalpt/legal-rag-be/utils"
)

type LoginHandler struct {
	users repository.UserRepo
}

func NewLoginHandler(users repository.UserRepo) *LoginHandler {
	return &LoginHandler{
		users: users,
	}
}

func (h *LoginHandler) HandleLogin(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
		return
	}

	user, err := h.users.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, types.DataResponse{
			Status:  "error",
			Message: "Invalid credentials",
		})
		return
	}
	if user.Password != req.Password {
		c.JSON(http.StatusUnauthorized, types.DataResponse{
			Status:  "error",
			Message: "Invalid credentials",
		})
		return
	}

	token, err := utils.GenerateUserToken(user)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, types.LoginResponse{AccessToken: token})
}
