package handlers

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventphoto-backend/internal/entitlement"
	"eventphoto-backend/internal/models"
	"eventphoto-backend/internal/postgres"
	"eventphoto-backend/internal/services"
	"eventphoto-backend/internal/supabase"
)

type MembersHandler struct {
	db      *postgres.Client
	private *supabase.StorageClient
}

func NewMembersHandler(db *postgres.Client, private *supabase.StorageClient) *MembersHandler {
	return &MembersHandler{db: db, private: private}
}

func (h *MembersHandler) ListMembers(c *gin.Context) {
	speechID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	page, limit := pagination(c)

	members, total, err := h.db.ListMembers(c.Request.Context(), speechID, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	responses := make([]models.MemberResponse, 0, len(members))
	for _, member := range members {
		responses = append(responses, models.MemberResponse{
			ID:       member.ID.String(),
			SpeechID: member.SpeechID.String(),
			Name:     member.Name.String,
		})
	}
	c.JSON(http.StatusOK, models.MemberListResponse{Members: responses, Total: total})
}

// GetMember godoc
// @Summary     Get a member with their photos
// @Description Full-version URLs appear only for entitled viewers; everyone
// @Description else sees watermarked previews.
// @Tags        members
// @Produce     json
// @Param       id path string true "Member id"
// @Success     200 {object} models.MemberResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /members/{id} [get]
func (h *MembersHandler) GetMember(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	member, err := h.db.GetMember(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	page, limit := pagination(c)
	medias, err := h.db.ListMemberMedia(ctx, id, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	// Batch-load the viewer's purchase markers so entitlement resolution
	// stays one query per kind, not one per photo.
	v := viewer(c)
	bought := map[uuid.UUID]bool{}
	eventBought := false
	if v != nil && !v.IsAdmin {
		mediaIDs := make([]uuid.UUID, len(medias))
		for i, media := range medias {
			mediaIDs[i] = media.ID
		}
		bought, err = h.db.BoughtMediaIDs(ctx, v.UserID, mediaIDs)
		if err != nil {
			writeError(c, err)
			return
		}
		eventBought, err = h.db.IsEventBuyerForMember(ctx, id, v.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
	}

	items := make([]entitlement.Item, len(medias))
	for i, media := range medias {
		items[i] = entitlement.Item{
			Media:               media,
			BoughtByViewer:      bought[media.ID],
			EventBoughtByViewer: eventBought,
		}
	}
	resolutions := entitlement.Resolve(v, items)

	mediaResponses := make([]models.MediaResponse, len(resolutions))
	for i, res := range resolutions {
		mediaResponses[i] = services.MediaResponse(res.Media)
	}

	c.JSON(http.StatusOK, models.MemberResponse{
		ID:       member.ID.String(),
		SpeechID: member.SpeechID.String(),
		Name:     member.Name.String,
		Media:    mediaResponses,
	})
}

func (h *MembersHandler) CreateMember(c *gin.Context) {
	var req models.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	speechID, err := uuid.Parse(req.SpeechID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid speech_id"})
		return
	}

	member, err := h.db.CreateMember(c.Request.Context(), &models.Member{
		ID:       uuid.New(),
		SpeechID: speechID,
		Name:     sql.NullString{String: req.Name, Valid: req.Name != ""},
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MemberResponse{
		ID:       member.ID.String(),
		SpeechID: member.SpeechID.String(),
		Name:     member.Name.String,
	})
}

func (h *MembersHandler) DeleteMember(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.db.DeleteMember(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// DownloadArchive streams every original photo of a member as one zip.
// Admin-only: originals never leave the private bucket for buyers.
func (h *MembersHandler) DownloadArchive(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if _, err := h.db.GetMember(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	archive, err := h.private.FolderAsZip(fmt.Sprintf("members/%s/full", id))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="member-%s.zip"`, id))
	c.Data(http.StatusOK, "application/zip", archive)
}
