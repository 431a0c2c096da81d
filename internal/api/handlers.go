// internal/api/handlers.go
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"scriptvision/internal/models"
	"scriptvision/internal/services"
)

// Handler wires the engine services to HTTP.
type Handler struct {
	Segmenter *services.SegmenterService
	Resolver  *services.ResolverService
	Shots     *services.ShotService
	Assets    *services.AssetService
	Progress  *services.ProgressService

	response *ResponseHelper
}

// NewHandler creates the API handler.
func NewHandler(
	segmenter *services.SegmenterService,
	resolver *services.ResolverService,
	shots *services.ShotService,
	assets *services.AssetService,
	progress *services.ProgressService,
) *Handler {
	return &Handler{
		Segmenter: segmenter,
		Resolver:  resolver,
		Shots:     shots,
		Assets:    assets,
		Progress:  progress,
		response:  NewResponseHelper(),
	}
}

// HealthCheck reports service liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	h.response.Success(c, gin.H{"status": "ok"})
}

// ---------------------------------------------------------------
// Segmentation
// ---------------------------------------------------------------

type segmentRequest struct {
	Text               string              `json:"text"`
	Scenes             []models.SceneInput `json:"scenes,omitempty"`
	LegacyDescriptions []string            `json:"legacy_descriptions,omitempty"`
}

// SegmentScript splits a script into scenes. An empty result is a valid
// state, not an error.
func (h *Handler) SegmentScript(c *gin.Context) {
	var req segmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.Error(c, http.StatusBadRequest, ErrorBadRequest, "invalid request body", err.Error())
		return
	}

	scenes := h.Segmenter.Segment(req.Text, req.Scenes, req.LegacyDescriptions)
	h.response.Success(c, gin.H{"scenes": scenes, "count": len(scenes)})
}

// ---------------------------------------------------------------
// Character resolution
// ---------------------------------------------------------------

type resolveRequest struct {
	Names  []string             `json:"names"`
	Roster []models.RosterEntry `json:"roster"`
}

// ResolveCharacters reconciles script-local names against the canonical
// roster.
func (h *Handler) ResolveCharacters(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.Error(c, http.StatusBadRequest, ErrorBadRequest, "invalid request body", err.Error())
		return
	}

	refs := h.Resolver.ResolveAll(req.Names, req.Roster)
	h.response.Success(c, gin.H{"characters": refs})
}

// ---------------------------------------------------------------
// Shot suggestions
// ---------------------------------------------------------------

type suggestRequest struct {
	Text string `json:"text"`
}

// SuggestShots extracts per-scene shot suggestions from the script text.
func (h *Handler) SuggestShots(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.Error(c, http.StatusBadRequest, ErrorBadRequest, "invalid request body", err.Error())
		return
	}

	suggestions := h.Shots.SuggestShots(req.Text)
	h.response.Success(c, gin.H{"suggestions": suggestions})
}

// ---------------------------------------------------------------
// Asset generation
// ---------------------------------------------------------------

type generateRequest struct {
	SceneNumber   int      `json:"scene_number,omitempty"`
	CharacterKey  string   `json:"character_key,omitempty"`
	Prompt        string   `json:"prompt"`
	Style         string   `json:"style,omitempty"`
	KeepExisting  bool     `json:"keep_existing,omitempty"`
	ReferenceURLs []string `json:"reference_urls,omitempty"`
}

func (r *generateRequest) subject() (models.Subject, bool) {
	if r.SceneNumber > 0 {
		return models.SceneSubject(r.SceneNumber), true
	}
	if r.CharacterKey != "" {
		return models.CharacterSubject(r.CharacterKey), true
	}
	return models.Subject{}, false
}

// GenerateAsset issues a generation request for a scene or character.
func (h *Handler) GenerateAsset(c *gin.Context) {
	h.generate(c, false)
}

// RegenerateAsset issues another generation for a subject that already has
// assets.
func (h *Handler) RegenerateAsset(c *gin.Context) {
	h.generate(c, true)
}

func (h *Handler) generate(c *gin.Context, regenerate bool) {
	scopeID := c.Param("id")

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.Error(c, http.StatusBadRequest, ErrorBadRequest, "invalid request body", err.Error())
		return
	}

	subject, ok := req.subject()
	if !ok {
		h.response.Error(c, http.StatusBadRequest, ErrorBadRequest, "scene_number or character_key is required")
		return
	}

	opts := services.GenerateOptions{
		Style:         req.Style,
		KeepExisting:  req.KeepExisting,
		ReferenceURLs: req.ReferenceURLs,
	}

	var (
		asset *models.VisualAsset
		err   error
	)
	if regenerate {
		asset, err = h.Assets.Regenerate(c.Request.Context(), scopeID, subject, req.Prompt, opts)
	} else {
		asset, err = h.Assets.Generate(c.Request.Context(), scopeID, subject, req.Prompt, opts)
	}
	if err != nil {
		h.response.AppError(c, err)
		return
	}

	h.response.Created(c, asset, "generation request accepted")
}

type suggestedShotRequest struct {
	SceneNumber   int                   `json:"scene_number"`
	Suggestion    models.ShotSuggestion `json:"suggestion"`
	ReferenceURLs []string              `json:"reference_urls,omitempty"`
}

// GenerateSuggestedShot generates a secondary image for a suggested shot
// using the scene's key asset as visual reference. Blocked until a
// completed key asset exists.
func (h *Handler) GenerateSuggestedShot(c *gin.Context) {
	scopeID := c.Param("id")

	var req suggestedShotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.Error(c, http.StatusBadRequest, ErrorBadRequest, "invalid request body", err.Error())
		return
	}

	opts := services.GenerateOptions{ReferenceURLs: req.ReferenceURLs}
	asset, err := h.Assets.GenerateSuggestedShot(c.Request.Context(), scopeID, req.SceneNumber, req.Suggestion, opts)
	if err != nil {
		h.response.AppError(c, err)
		return
	}

	h.response.Created(c, asset, "generation request accepted")
}

// ---------------------------------------------------------------
// Asset queries
// ---------------------------------------------------------------

// ListAssets returns the assets visible under a scope.
func (h *Handler) ListAssets(c *gin.Context) {
	scopeID := c.Param("id")
	assets := h.Assets.VisibleAssets(scopeID)
	h.response.Success(c, gin.H{"assets": assets, "count": len(assets)})
}

// ListSceneAssets returns the carousel for one scene.
func (h *Handler) ListSceneAssets(c *gin.Context) {
	scopeID := c.Param("id")
	sceneNumber, ok := h.sceneNumberParam(c)
	if !ok {
		return
	}

	assets := h.Assets.AssetsForSubject(scopeID, models.SceneSubject(sceneNumber))
	h.response.Success(c, gin.H{"assets": assets})
}

// ---------------------------------------------------------------
// Deletion
// ---------------------------------------------------------------

// DeleteAsset removes one asset.
func (h *Handler) DeleteAsset(c *gin.Context) {
	if err := h.Assets.Delete(c.Param("asset_id")); err != nil {
		h.response.AppError(c, err)
		return
	}
	h.response.Success(c, nil, "asset deleted")
}

type deleteBatchRequest struct {
	IDs []string `json:"ids"`
}

// DeleteAssetBatch removes a batch of assets.
func (h *Handler) DeleteAssetBatch(c *gin.Context) {
	var req deleteBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.Error(c, http.StatusBadRequest, ErrorBadRequest, "invalid request body", err.Error())
		return
	}

	deleted := h.Assets.DeleteMany(req.IDs)
	h.response.Success(c, gin.H{"deleted": deleted})
}

// DeleteScopeAssets removes all assets for a scope, optionally filtered by
// subject class.
func (h *Handler) DeleteScopeAssets(c *gin.Context) {
	scopeID := c.Param("id")

	var class models.SubjectClass
	switch c.Query("class") {
	case "scene":
		class = models.SubjectScene
	case "character":
		class = models.SubjectCharacter
	case "":
	default:
		h.response.Error(c, http.StatusBadRequest, ErrorBadRequest, "class must be scene or character")
		return
	}

	deleted := h.Assets.DeleteAllForScope(scopeID, class)
	h.response.Success(c, gin.H{"deleted": deleted})
}

// ---------------------------------------------------------------
// Curation
// ---------------------------------------------------------------

type selectRequest struct {
	ScopeID  string `json:"scope_id"`
	Selected bool   `json:"selected"`
}

// SelectAsset marks or unmarks one asset.
func (h *Handler) SelectAsset(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.Error(c, http.StatusBadRequest, ErrorBadRequest, "invalid request body", err.Error())
		return
	}
	if req.ScopeID == "" {
		h.response.Error(c, http.StatusBadRequest, ErrorScopeRequired, "scope_id is required")
		return
	}

	if err := h.Assets.Select(req.ScopeID, c.Param("asset_id"), req.Selected); err != nil {
		h.response.AppError(c, err)
		return
	}
	h.response.Success(c, nil)
}

// SelectAllAssets toggles selection over the visible set.
func (h *Handler) SelectAllAssets(c *gin.Context) {
	selected := h.Assets.SelectAll(c.Param("id"))
	h.response.Success(c, gin.H{"selected": selected})
}

// ClearSelection empties the selection.
func (h *Handler) ClearSelection(c *gin.Context) {
	h.Assets.ClearSelection(c.Param("id"))
	h.response.Success(c, nil)
}

type keyAssetRequest struct {
	AssetID string `json:"asset_id"`
}

// SetKeyAsset designates the reference asset for a scene.
func (h *Handler) SetKeyAsset(c *gin.Context) {
	scopeID := c.Param("id")
	sceneNumber, ok := h.sceneNumberParam(c)
	if !ok {
		return
	}

	var req keyAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.Error(c, http.StatusBadRequest, ErrorBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.Assets.SetKeyAsset(scopeID, sceneNumber, req.AssetID); err != nil {
		h.response.AppError(c, err)
		return
	}
	h.response.Success(c, nil, "key asset set")
}

type excludeRequest struct {
	ScopeID string `json:"scope_id"`
}

// ToggleExcluded flips an asset's final-cut opt-out.
func (h *Handler) ToggleExcluded(c *gin.Context) {
	var req excludeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.Error(c, http.StatusBadRequest, ErrorBadRequest, "invalid request body", err.Error())
		return
	}
	if req.ScopeID == "" {
		h.response.Error(c, http.StatusBadRequest, ErrorScopeRequired, "scope_id is required")
		return
	}

	excluded, err := h.Assets.ToggleExcluded(req.ScopeID, c.Param("asset_id"))
	if err != nil {
		h.response.AppError(c, err)
		return
	}
	h.response.Success(c, gin.H{"excluded": excluded})
}

type reorderRequest struct {
	Order []string `json:"order"`
}

// ReorderScene applies a permutation to a scene's carousel.
func (h *Handler) ReorderScene(c *gin.Context) {
	scopeID := c.Param("id")
	sceneNumber, ok := h.sceneNumberParam(c)
	if !ok {
		return
	}

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.Error(c, http.StatusBadRequest, ErrorBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.Assets.Reorder(scopeID, sceneNumber, req.Order); err != nil {
		h.response.AppError(c, err)
		return
	}
	h.response.Success(c, nil, "carousel reordered")
}

// FinalCut returns the visible completed assets not opted out.
func (h *Handler) FinalCut(c *gin.Context) {
	assets := h.Assets.FinalCut(c.Param("id"))
	h.response.Success(c, gin.H{"assets": assets, "count": len(assets)})
}

// ---------------------------------------------------------------
// Persistence boundary
// ---------------------------------------------------------------

// SaveScope persists a scope's assets.
func (h *Handler) SaveScope(c *gin.Context) {
	if err := h.Assets.SaveScope(c.Param("id")); err != nil {
		h.response.AppError(c, err)
		return
	}
	h.response.Success(c, nil, "scope saved")
}

// LoadScope restores a scope's assets from disk.
func (h *Handler) LoadScope(c *gin.Context) {
	if err := h.Assets.LoadScope(c.Param("id")); err != nil {
		h.response.AppError(c, err)
		return
	}
	h.response.Success(c, nil, "scope loaded")
}

func (h *Handler) sceneNumberParam(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n <= 0 {
		h.response.Error(c, http.StatusBadRequest, ErrorBadRequest, "invalid scene number")
		return 0, false
	}
	return n, true
}
