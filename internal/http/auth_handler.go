package http

import (
	"net/http"

	"github.com/craftedby/marketplace/internal/model"
	"github.com/craftedby/marketplace/internal/service"
)

type authHandler struct {
	re      responder
	authSvc service.AuthService
}

func newAuthHandler(re responder, authSvc service.AuthService) *authHandler {
	return &authHandler{re: re, authSvc: authSvc}
}

func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.re.Decode(r, &req); err != nil {
		h.re.Error(w, r, err)
		return
	}

	user, err := h.authSvc.Register(r.Context(), service.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	h.re.JSON(w, r, http.StatusCreated, newUserResponse(user))
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.re.Decode(r, &req); err != nil {
		h.re.Error(w, r, err)
		return
	}

	result, err := h.authSvc.Login(r.Context(), service.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.re.Error(w, r, err)
		return
	}

	h.re.JSON(w, r, http.StatusOK, loginResponse{
		Token: result.Token,
		User:  newUserResponse(result.User),
	})
}
