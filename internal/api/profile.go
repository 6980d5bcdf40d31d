package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/pantrycoach/backend/internal/middleware"
	"github.com/pageza/pantrycoach/backend/internal/models"
	"github.com/pageza/pantrycoach/backend/internal/service"
	"github.com/pageza/pantrycoach/backend/internal/types"
)

type ProfileHandler struct {
	profileService service.IProfileService
}

func NewProfileHandler(profileService service.IProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profile := router.Group("/profile")
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
	}
}

// GetProfile returns the caller's profile, or empty defaults when none exists
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, found, err := h.profileService.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		profile = nil
	}
	c.JSON(http.StatusOK, profileResponse(profile))
}

// UpdateProfile applies a partial update. Keys absent from the body are left as they are.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		respondBindError(c, err)
		return
	}

	profile, err := h.profileService.UpsertProfile(c.Request.Context(), middleware.UserID(c), updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse(profile))
}

func profileResponse(p *models.UserProfile) types.ProfileResponse {
	resp := types.ProfileResponse{DietaryPreferences: []string{}}
	if p == nil {
		return resp
	}
	if p.HealthGoal != nil {
		resp.HealthGoal = *p.HealthGoal
	}
	if p.FitnessLevel != nil {
		resp.FitnessLevel = *p.FitnessLevel
	}
	if len(p.DietaryPreferences) > 0 {
		resp.DietaryPreferences = []string(p.DietaryPreferences)
	}
	resp.HasAPIKey = p.HasAPIKey
	updatedAt := p.UpdatedAt
	resp.UpdatedAt = &updatedAt
	return resp
}
