package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/portfoliofuturo/portfolio-api/internal/middleware"
	"github.com/portfoliofuturo/portfolio-api/internal/services"
	"github.com/portfoliofuturo/portfolio-api/pkg/dto"
)

type UserHandler struct {
	identities IdentityServiceInterface
	profiles   ProfileServiceInterface
}

func NewUserHandler(identities IdentityServiceInterface, profiles ProfileServiceInterface) *UserHandler {
	return &UserHandler{identities: identities, profiles: profiles}
}

// GetMe returns the identity with whatever profile rows provisioning wrote.
func (h *UserHandler) GetMe(c *drift.Context) {
	identityID := middleware.GetIdentityID(c)
	if identityID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	ctx := c.Request.Context()

	user, err := h.identities.GetByID(ctx, identityID)
	if err != nil {
		c.NotFound("user not found")
		return
	}

	account, err := h.profiles.GetAccount(ctx, identityID)
	if err != nil && !errors.Is(err, services.ErrProfileNotFound) {
		log.Printf("Failed to load account for identity %s: %v", identityID, err)
		c.InternalServerError("failed to load account")
		return
	}

	_ = c.JSON(200, account.ToResponse(user))
}

func (h *UserHandler) UpdateMe(c *drift.Context) {
	identityID := middleware.GetIdentityID(c)
	if identityID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		c.BadRequest(validationMessage(err))
		return
	}

	ctx := c.Request.Context()

	// the profile row is optional: accounts stuck before the profile step
	// still get their metadata updated
	_, err := h.profiles.UpdateName(ctx, identityID, req.Name)
	if err != nil && !errors.Is(err, services.ErrProfileNotFound) {
		log.Printf("Failed to update profile name for identity %s: %v", identityID, err)
		c.InternalServerError("failed to update user")
		return
	}

	user, err := h.identities.UpdateName(ctx, identityID, req.Name)
	if err != nil {
		if errors.Is(err, services.ErrIdentityNotFound) {
			c.NotFound("user not found")
			return
		}
		c.InternalServerError("failed to update user")
		return
	}

	_ = c.JSON(200, user.ToResponse())
}
