package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// @Summary Ensure caller profile
// @Description Return the caller's profile, creating it on first sign-in
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body CreateProfileRequest true "Profile data used on first sign-in"
// @Success 200 {object} ProfileResponse "Existing profile"
// @Success 201 {object} ProfileResponse "Profile created"
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 403 {object} map[string]string "Operation requires a user token"
// @Router /profiles [post]
func (h *Handler) ensureProfile(c *gin.Context) {
	log := h.logger.WithField("method", "ensureProfile")
	caller, ok := requireProfile(c)
	if !ok {
		return
	}

	var input CreateProfileRequest
	if !bindJSON(c, log, &input) {
		return
	}

	profile, created, err := h.profileService.EnsureProfile(c.Request.Context(), caller, DTOToNewProfile(input))
	if err != nil {
		h.respondError(c, log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, ModelToProfileResponse(profile))
}

// @Summary Get my profile
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Failure 404 {object} map[string]string "Profile not found"
// @Router /profiles/me [get]
func (h *Handler) getMyProfile(c *gin.Context) {
	caller, ok := requireProfile(c)
	if !ok {
		return
	}
	h.getProfileByID(c, caller.ProfileID)
}

// @Summary Get profile by ID
// @Description Available to the profile owner and admins
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Security ApiKeyAuth
// @Param id path string true "Profile ID"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} map[string]string "Invalid profile ID"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Profile not found"
// @Router /profiles/{id} [get]
func (h *Handler) getProfile(c *gin.Context) {
	id, ok := parseID(c, "profile")
	if !ok {
		return
	}
	h.getProfileByID(c, id)
}

func (h *Handler) getProfileByID(c *gin.Context, id uuid.UUID) {
	log := h.logger.WithField("method", "getProfile").WithField("id", id)

	profile, err := h.profileService.GetProfile(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToProfileResponse(profile))
}

// @Summary Update my profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Router /profiles/me [patch]
func (h *Handler) updateMyProfile(c *gin.Context) {
	caller, ok := requireProfile(c)
	if !ok {
		return
	}
	h.updateProfileByID(c, caller.ProfileID)
}

// @Summary Update profile by ID
// @Description Name, location and avatar only. Points, tier and role cannot be changed here.
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Security ApiKeyAuth
// @Param id path string true "Profile ID"
// @Param profile body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Profile not found"
// @Router /profiles/{id} [patch]
func (h *Handler) updateProfile(c *gin.Context) {
	id, ok := parseID(c, "profile")
	if !ok {
		return
	}
	h.updateProfileByID(c, id)
}

func (h *Handler) updateProfileByID(c *gin.Context, id uuid.UUID) {
	log := h.logger.WithField("method", "updateProfile").WithField("id", id)

	var input UpdateProfileRequest
	if !bindJSON(c, log, &input) {
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), callerFrom(c), id, DTOToProfileUpdate(input))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToProfileResponse(profile))
}

// @Summary List profiles
// @Description Paginated list of profiles in join order. Admin only.
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Security ApiKeyAuth
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Number of items per page" default(20)
// @Success 200 {array} ProfileResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /profiles [get]
func (h *Handler) listProfiles(c *gin.Context) {
	log := h.logger.WithField("method", "listProfiles")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	profiles, err := h.profileService.ListProfiles(c.Request.Context(), callerFrom(c), page, pageSize)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToProfileResponses(profiles))
}

// @Summary Delete a profile
// @Description Permanently delete a profile. Reported incidents are kept. Admin only.
// @Tags Profiles
// @Security BearerAuth
// @Security ApiKeyAuth
// @Param id path string true "Profile ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Profile not found"
// @Router /profiles/{id} [delete]
func (h *Handler) deleteProfile(c *gin.Context) {
	id, ok := parseID(c, "profile")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "deleteProfile").WithField("id", id)

	if err := h.profileService.DeleteProfile(c.Request.Context(), callerFrom(c), id); err != nil {
		h.respondError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Award points
// @Description Manually award points to a profile. The tier is recalculated. Admin only.
// @Tags Gamification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Security ApiKeyAuth
// @Param id path string true "Profile ID"
// @Param award body AwardPointsRequest true "Points to add"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} map[string]string "Amount must be positive and at most 1000000"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Profile not found"
// @Router /profiles/{id}/points [post]
func (h *Handler) awardPoints(c *gin.Context) {
	id, ok := parseID(c, "profile")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "awardPoints").WithField("id", id)

	var input AwardPointsRequest
	if !bindJSON(c, log, &input) {
		return
	}

	profile, err := h.profileService.AwardPoints(c.Request.Context(), callerFrom(c), id, input.Amount)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToProfileResponse(profile))
}
