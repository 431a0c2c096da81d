// internal/services/asset_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "scriptvision/internal/errors"
	"scriptvision/internal/models"
	"scriptvision/internal/storage"
	"scriptvision/internal/utils"
)

var (
	ErrAssetNotFound      = errors.New("asset not found")
	ErrGenerationInFlight = errors.New("generation already in flight for subject")
	ErrNoKeyAsset         = errors.New("no completed key asset designated for scene")
)

// Asset event types pushed to websocket subscribers.
const (
	AssetEventGenerating = "generating"
	AssetEventCompleted  = "completed"
	AssetEventFailed     = "failed"
	AssetEventDeleted    = "deleted"
)

// AssetEvent is one lifecycle notification for a scope.
type AssetEvent struct {
	Type  string             `json:"type"`
	Asset models.VisualAsset `json:"asset"`
}

var bareSceneKeyRe = regexp.MustCompile(`^\d+$`)

// AssetService owns the lifecycle, identity and curation state of
// generated visual assets, per generation scope (script id). All state is
// in-memory for one editing session; the persisted boundary shape is
// round-tripped through the file storage layer.
//
// Mutations are single-writer behind one RWMutex. The only suspension
// points are the external generation calls, which run in their own
// goroutines: requests for different subjects proceed concurrently, while
// a second request for a subject already generating is rejected.
type AssetService struct {
	mu        sync.RWMutex
	generator Generator
	fileStore *storage.FileStorage
	progress  *ProgressService

	assets    map[string]map[string][]*models.VisualAsset // scope -> bucket key -> carousel
	selection map[string]*models.SelectionState           // scope -> curation state
	inflight  map[string]bool                             // scope|bucket key

	subMu       sync.RWMutex
	subscribers map[string]map[chan AssetEvent]bool // scope -> subscribers
}

// NewAssetService creates the store. fileStore may be nil when boundary
// persistence is not needed (library use).
func NewAssetService(generator Generator, fileStore *storage.FileStorage, progress *ProgressService) *AssetService {
	return &AssetService{
		generator:   generator,
		fileStore:   fileStore,
		progress:    progress,
		assets:      make(map[string]map[string][]*models.VisualAsset),
		selection:   make(map[string]*models.SelectionState),
		inflight:    make(map[string]bool),
		subscribers: make(map[string]map[chan AssetEvent]bool),
	}
}

// ---------------------------------------------------------------
// Bucket key resolution
// ---------------------------------------------------------------

// bucketKeyLocked resolves the bucket for a subject, folding the legacy
// bare-scene-number key into the composite "{scope}_{n}" form so both
// spellings address the same logical bucket without duplicating assets.
func (s *AssetService) bucketKeyLocked(scopeID string, subject models.Subject) string {
	key := subject.Key(scopeID)
	scopeAssets := s.assets[scopeID]
	if scopeAssets == nil {
		return key
	}

	if subject.Class == models.SubjectScene {
		legacy := subject.LegacyKey()
		if _, ok := scopeAssets[key]; !ok {
			if migrated, ok := scopeAssets[legacy]; ok {
				scopeAssets[key] = migrated
				delete(scopeAssets, legacy)
			}
		} else if migrated, ok := scopeAssets[legacy]; ok {
			scopeAssets[key] = append(scopeAssets[key], migrated...)
			delete(scopeAssets, legacy)
		}
	}

	return key
}

func (s *AssetService) scopeAssetsLocked(scopeID string) map[string][]*models.VisualAsset {
	if s.assets[scopeID] == nil {
		s.assets[scopeID] = make(map[string][]*models.VisualAsset)
	}
	return s.assets[scopeID]
}

func (s *AssetService) selectionLocked(scopeID string) *models.SelectionState {
	if s.selection[scopeID] == nil {
		s.selection[scopeID] = models.NewSelectionState()
	}
	return s.selection[scopeID]
}

func inflightKey(scopeID, bucketKey string) string {
	return scopeID + "|" + bucketKey
}

// ---------------------------------------------------------------
// Generation lifecycle
// ---------------------------------------------------------------

// Generate inserts an optimistic placeholder in Generating state and
// issues the external request asynchronously. A second call for a subject
// already generating in the same scope is rejected, never queued and never
// allowed to overwrite the in-flight placeholder.
func (s *AssetService) Generate(ctx context.Context, scopeID string, subject models.Subject, prompt string, opts GenerateOptions) (*models.VisualAsset, error) {
	if strings.TrimSpace(scopeID) == "" {
		return nil, apperrors.NewValidationError("scope id is required", nil)
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, apperrors.NewValidationError("prompt is required", nil)
	}

	s.mu.Lock()

	key := s.bucketKeyLocked(scopeID, subject)
	ifKey := inflightKey(scopeID, key)
	if s.inflight[ifKey] {
		s.mu.Unlock()
		return nil, apperrors.NewInvalidOperationError(
			"a generation request for this subject is already in flight", ErrGenerationInFlight)
	}

	asset := &models.VisualAsset{
		ID:      uuid.NewString(),
		Subject: subject,
		ScopeID: scopeID,
		Prompt:  prompt,
		Status:  models.AssetStatusGenerating,
	}

	scopeAssets := s.scopeAssetsLocked(scopeID)
	scopeAssets[key] = append(scopeAssets[key], asset)
	s.inflight[ifKey] = true

	placed := *asset
	s.mu.Unlock()

	if s.progress != nil {
		s.progress.CreateTracker(asset.ID)
	}

	s.emit(scopeID, AssetEvent{Type: AssetEventGenerating, Asset: placed})

	go s.resolveGeneration(ctx, scopeID, subject, asset.ID, prompt, opts)

	return &placed, nil
}

// Regenerate issues another generation for a subject that may already have
// assets. Scenes accumulate a carousel of candidates; character subjects
// overwrite their single current image unless opts.KeepExisting is set.
func (s *AssetService) Regenerate(ctx context.Context, scopeID string, subject models.Subject, prompt string, opts GenerateOptions) (*models.VisualAsset, error) {
	return s.Generate(ctx, scopeID, subject, prompt, opts)
}

// GenerateSuggestedShot generates a secondary image for a suggested shot,
// using the scene's designated key asset as the visual reference. It is
// blocked until a completed key asset exists for the scene.
func (s *AssetService) GenerateSuggestedShot(ctx context.Context, scopeID string, sceneNumber int, suggestion models.ShotSuggestion, opts GenerateOptions) (*models.VisualAsset, error) {
	s.mu.RLock()
	sel := s.selection[scopeID]
	var keyAssetID string
	if sel != nil {
		keyAssetID = sel.KeyAssetIDs[sceneNumber]
	}
	var keyURL string
	if keyAssetID != "" {
		if a := s.findLocked(keyAssetID); a != nil && a.Status == models.AssetStatusCompleted && a.ImageURL != "" {
			keyURL = a.ImageURL
		}
	}
	s.mu.RUnlock()

	if keyURL == "" {
		return nil, apperrors.NewInvalidOperationError(
			"suggested shot generation requires a completed key asset for the scene", ErrNoKeyAsset)
	}

	prompt := suggestion.ShotType
	if suggestion.Character != "" {
		prompt = fmt.Sprintf("%s of %s", suggestion.ShotType, suggestion.Character)
	}
	if suggestion.ActionText != "" {
		prompt = fmt.Sprintf("%s, %s", prompt, suggestion.ActionText)
	}

	opts.ReferenceURLs = append([]string{keyURL}, opts.ReferenceURLs...)

	return s.Generate(ctx, scopeID, models.SceneSubject(sceneNumber), prompt, opts)
}

// resolveGeneration waits on the collaborator and transitions the
// placeholder to Completed or Failed. A placeholder deleted while the
// request was outstanding is simply dropped.
func (s *AssetService) resolveGeneration(ctx context.Context, scopeID string, subject models.Subject, assetID, prompt string, opts GenerateOptions) {
	url, err := s.generator.RequestGeneration(ctx, subject, prompt, opts, opts.ReferenceURLs)

	s.mu.Lock()

	key := s.bucketKeyLocked(scopeID, subject)
	delete(s.inflight, inflightKey(scopeID, key))

	asset := s.findLocked(assetID)
	if asset == nil {
		s.mu.Unlock()
		if s.progress != nil {
			s.progress.RemoveTracker(assetID)
		}
		return
	}

	var event AssetEvent
	if err != nil {
		asset.Status = models.AssetStatusFailed
		asset.Error = err.Error()
		event = AssetEvent{Type: AssetEventFailed, Asset: *asset}
	} else {
		asset.Status = models.AssetStatusCompleted
		asset.ImageURL = url
		asset.Error = ""
		asset.GeneratedAt = time.Now()

		// Character subjects keep a single current image unless told
		// otherwise; the replacement happens only on success so a failed
		// request never loses the previous image.
		if subject.Class == models.SubjectCharacter && !opts.KeepExisting {
			scopeAssets := s.scopeAssetsLocked(scopeID)
			scopeAssets[key] = []*models.VisualAsset{asset}
		}

		event = AssetEvent{Type: AssetEventCompleted, Asset: *asset}
	}
	s.mu.Unlock()

	if s.progress != nil {
		if tracker, ok := s.progress.GetTracker(assetID); ok {
			if err != nil {
				tracker.Fail(err.Error())
			} else {
				tracker.Complete("")
			}
		}
	}

	if err != nil {
		genErr := apperrors.NewGenerationFailedError("generation request failed", err)
		utils.GetLogger().Error(genErr.Error(), map[string]interface{}{
			"scope_id": scopeID,
			"asset_id": assetID,
		})
	}

	s.emit(scopeID, event)
}

// ---------------------------------------------------------------
// Lookup
// ---------------------------------------------------------------

// findLocked locates an asset by id across all scopes.
func (s *AssetService) findLocked(assetID string) *models.VisualAsset {
	for _, scopeAssets := range s.assets {
		for _, carousel := range scopeAssets {
			for _, a := range carousel {
				if a.ID == assetID {
					return a
				}
			}
		}
	}
	return nil
}

// AssetsForSubject returns the carousel for a subject, in order. The
// composite and bare scene keys resolve to the same bucket.
func (s *AssetService) AssetsForSubject(scopeID string, subject models.Subject) []models.VisualAsset {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.bucketKeyLocked(scopeID, subject)
	scopeAssets := s.assets[scopeID]
	if scopeAssets == nil {
		return nil
	}

	out := make([]models.VisualAsset, 0, len(scopeAssets[key]))
	for _, a := range scopeAssets[key] {
		out = append(out, *a)
	}
	return out
}

// VisibleAssets returns every asset visible under a scope: scene and
// character assets whose stored scope matches, plus character assets with
// no scope at all (legacy unscoped records). Scene assets from another
// scope never appear.
func (s *AssetService) VisibleAssets(scopeID string) []models.VisualAsset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.visibleLocked(scopeID)
}

func (s *AssetService) visibleLocked(scopeID string) []models.VisualAsset {
	var out []models.VisualAsset

	for _, carousel := range s.assets[scopeID] {
		for _, a := range carousel {
			out = append(out, *a)
		}
	}

	// Legacy character records predate scoping and stay visible.
	if scopeID != "" {
		for _, carousel := range s.assets[""] {
			for _, a := range carousel {
				if a.Subject.Class == models.SubjectCharacter {
					out = append(out, *a)
				}
			}
		}
	}

	return out
}

// ---------------------------------------------------------------
// Deletion
// ---------------------------------------------------------------

// Delete removes an asset immediately and clears it from any active
// selection, exclusion or key-asset designation.
func (s *AssetService) Delete(assetID string) error {
	s.mu.Lock()
	removed := s.deleteLocked(assetID)
	s.mu.Unlock()

	if removed == nil {
		return apperrors.NewNotFoundError("asset not found", ErrAssetNotFound)
	}

	s.emit(removed.ScopeID, AssetEvent{Type: AssetEventDeleted, Asset: *removed})
	return nil
}

// DeleteMany removes a batch of assets; missing ids are skipped. Returns
// the number actually removed.
func (s *AssetService) DeleteMany(assetIDs []string) int {
	var events []AssetEvent

	s.mu.Lock()
	for _, id := range assetIDs {
		if removed := s.deleteLocked(id); removed != nil {
			events = append(events, AssetEvent{Type: AssetEventDeleted, Asset: *removed})
		}
	}
	s.mu.Unlock()

	for _, ev := range events {
		s.emit(ev.Asset.ScopeID, ev)
	}
	return len(events)
}

// DeleteAllForScope removes every asset of a scope, optionally restricted
// to one subject class.
func (s *AssetService) DeleteAllForScope(scopeID string, class models.SubjectClass) int {
	var events []AssetEvent

	s.mu.Lock()
	scopeAssets := s.assets[scopeID]
	for key, carousel := range scopeAssets {
		var kept []*models.VisualAsset
		for _, a := range carousel {
			if class != "" && a.Subject.Class != class {
				kept = append(kept, a)
				continue
			}
			s.forgetSelectionLocked(scopeID, a)
			events = append(events, AssetEvent{Type: AssetEventDeleted, Asset: *a})
		}
		if len(kept) == 0 {
			delete(scopeAssets, key)
		} else {
			scopeAssets[key] = kept
		}
	}
	s.mu.Unlock()

	for _, ev := range events {
		s.emit(scopeID, ev)
	}
	return len(events)
}

func (s *AssetService) deleteLocked(assetID string) *models.VisualAsset {
	for scopeID, scopeAssets := range s.assets {
		for key, carousel := range scopeAssets {
			for i, a := range carousel {
				if a.ID != assetID {
					continue
				}
				scopeAssets[key] = append(carousel[:i], carousel[i+1:]...)
				if len(scopeAssets[key]) == 0 {
					delete(scopeAssets, key)
				}
				s.forgetSelectionLocked(scopeID, a)
				return a
			}
		}
	}
	return nil
}

func (s *AssetService) forgetSelectionLocked(scopeID string, a *models.VisualAsset) {
	sel := s.selection[scopeID]
	if sel == nil {
		return
	}
	delete(sel.SelectedIDs, a.ID)
	delete(sel.ExcludedIDs, a.ID)
	for scene, id := range sel.KeyAssetIDs {
		if id == a.ID {
			delete(sel.KeyAssetIDs, scene)
		}
	}
}

// ---------------------------------------------------------------
// Curation: selection, key asset, exclusion, ordering
// ---------------------------------------------------------------

// Select marks or unmarks a single visible asset.
func (s *AssetService) Select(scopeID, assetID string, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isVisibleLocked(scopeID, assetID) {
		return apperrors.NewNotFoundError("asset not visible in scope", ErrAssetNotFound)
	}

	sel := s.selectionLocked(scopeID)
	if selected {
		sel.SelectedIDs[assetID] = true
	} else {
		delete(sel.SelectedIDs, assetID)
	}
	return nil
}

// SelectAll toggles selection over the currently visible set: if the
// selection already equals the full filtered set it clears instead, so
// repeated calls are an idempotent toggle.
func (s *AssetService) SelectAll(scopeID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	visible := s.visibleLocked(scopeID)
	sel := s.selectionLocked(scopeID)

	allSelected := len(visible) > 0
	for _, a := range visible {
		if !sel.SelectedIDs[a.ID] {
			allSelected = false
			break
		}
	}

	if allSelected && len(sel.SelectedIDs) == len(visible) {
		sel.SelectedIDs = make(map[string]bool)
		return 0
	}

	sel.SelectedIDs = make(map[string]bool, len(visible))
	for _, a := range visible {
		sel.SelectedIDs[a.ID] = true
	}
	return len(sel.SelectedIDs)
}

// ClearSelection empties the selection for a scope.
func (s *AssetService) ClearSelection(scopeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectionLocked(scopeID).SelectedIDs = make(map[string]bool)
}

// SelectedIDs returns the current selection for a scope.
func (s *AssetService) SelectedIDs(scopeID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel := s.selection[scopeID]
	if sel == nil {
		return nil
	}
	ids := make([]string, 0, len(sel.SelectedIDs))
	for id := range sel.SelectedIDs {
		ids = append(ids, id)
	}
	return ids
}

// SetKeyAsset designates the stylistic reference asset for a scene. Only a
// completed asset with a non-empty URL qualifies; at most one key asset
// exists per scene.
func (s *AssetService) SetKeyAsset(scopeID string, sceneNumber int, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.bucketKeyLocked(scopeID, models.SceneSubject(sceneNumber))
	var target *models.VisualAsset
	for _, a := range s.assets[scopeID][key] {
		if a.ID == assetID {
			target = a
			break
		}
	}

	if target == nil {
		return apperrors.NewNotFoundError("asset not found in scene", ErrAssetNotFound)
	}
	if target.Status != models.AssetStatusCompleted || target.ImageURL == "" {
		return apperrors.NewInvalidOperationError(
			"only a completed asset with an image can be the key asset", nil)
	}

	s.selectionLocked(scopeID).KeyAssetIDs[sceneNumber] = assetID
	return nil
}

// KeyAsset returns the designated key asset for a scene.
func (s *AssetService) KeyAsset(scopeID string, sceneNumber int) (models.VisualAsset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel := s.selection[scopeID]
	if sel == nil {
		return models.VisualAsset{}, false
	}
	id := sel.KeyAssetIDs[sceneNumber]
	if id == "" {
		return models.VisualAsset{}, false
	}
	if a := s.findLocked(id); a != nil {
		return *a, true
	}
	return models.VisualAsset{}, false
}

// ToggleExcluded flips an asset's membership in the final-cut opt-out set.
// Exclusion is independent of selection; everything is included by
// default.
func (s *AssetService) ToggleExcluded(scopeID, assetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isVisibleLocked(scopeID, assetID) {
		return false, apperrors.NewNotFoundError("asset not visible in scope", ErrAssetNotFound)
	}

	sel := s.selectionLocked(scopeID)
	if sel.ExcludedIDs[assetID] {
		delete(sel.ExcludedIDs, assetID)
		return false, nil
	}
	sel.ExcludedIDs[assetID] = true
	return true, nil
}

// FinalCut returns the visible completed assets not opted out.
func (s *AssetService) FinalCut(scopeID string) []models.VisualAsset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel := s.selection[scopeID]
	var out []models.VisualAsset
	for _, a := range s.visibleLocked(scopeID) {
		if a.Status != models.AssetStatusCompleted {
			continue
		}
		if sel != nil && sel.ExcludedIDs[a.ID] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Reorder applies a pure permutation to a scene's carousel. The new order
// must mention every asset in the bucket exactly once; otherwise the call
// is rejected with no partial mutation.
func (s *AssetService) Reorder(scopeID string, sceneNumber int, order []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.bucketKeyLocked(scopeID, models.SceneSubject(sceneNumber))
	carousel := s.assets[scopeID][key]

	if len(order) != len(carousel) {
		return apperrors.NewInvalidOperationError("order must be a permutation of the carousel", nil)
	}

	byID := make(map[string]*models.VisualAsset, len(carousel))
	for _, a := range carousel {
		byID[a.ID] = a
	}

	reordered := make([]*models.VisualAsset, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		a, ok := byID[id]
		if !ok || seen[id] {
			return apperrors.NewInvalidOperationError("order must be a permutation of the carousel", nil)
		}
		seen[id] = true
		reordered = append(reordered, a)
	}

	s.assets[scopeID][key] = reordered
	return nil
}

func (s *AssetService) isVisibleLocked(scopeID, assetID string) bool {
	for _, a := range s.visibleLocked(scopeID) {
		if a.ID == assetID {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------
// Boundary persistence
// ---------------------------------------------------------------

// SaveScope persists the scope's assets in the boundary record shape.
func (s *AssetService) SaveScope(scopeID string) error {
	if s.fileStore == nil {
		return apperrors.NewInvalidOperationError("no storage configured", nil)
	}

	s.mu.RLock()
	records := make(map[string][]models.AssetRecord)
	for key, carousel := range s.assets[scopeID] {
		for _, a := range carousel {
			records[key] = append(records[key], models.AssetRecord{
				ID:       a.ID,
				ImageURL: a.ImageURL,
				Prompt:   a.Prompt,
				Status:   string(a.Status),
				ScriptID: a.ScopeID,
			})
		}
	}
	s.mu.RUnlock()

	return s.fileStore.SaveJSONFile(scopeID, "assets.json", records)
}

// LoadScope replaces the scope's in-memory assets from the persisted
// boundary shape. Scene keys in either the composite or bare form land in
// the same bucket; records abandoned mid-generation come back as Failed.
func (s *AssetService) LoadScope(scopeID string) error {
	if s.fileStore == nil {
		return apperrors.NewInvalidOperationError("no storage configured", nil)
	}

	var records map[string][]models.AssetRecord
	if err := s.fileStore.LoadJSONFile(scopeID, "assets.json", &records); err != nil {
		return apperrors.NewNotFoundError("no persisted assets for scope", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	scopeAssets := make(map[string][]*models.VisualAsset)

	for rawKey, recs := range records {
		subject, ok := parseSubjectKey(scopeID, rawKey)
		if !ok {
			utils.GetLogger().Warn("skipping unrecognized asset bucket key", map[string]interface{}{
				"scope_id": scopeID,
				"key":      rawKey,
			})
			continue
		}

		for _, r := range recs {
			status := models.AssetStatus(r.Status)
			switch status {
			case models.AssetStatusCompleted, models.AssetStatusFailed, models.AssetStatusIdle:
			case models.AssetStatusGenerating:
				// An in-flight request does not survive a reload.
				status = models.AssetStatusFailed
			default:
				status = models.AssetStatusIdle
			}

			id := r.ID
			if id == "" {
				id = uuid.NewString()
			}

			// Scene assets always belong to the scope being loaded.
			// Character records keep their stored scope; an absent one
			// marks a legacy unscoped record, visible under every scope.
			effScope := scopeID
			if subject.Class == models.SubjectCharacter {
				effScope = r.ScriptID
			}

			asset := &models.VisualAsset{
				ID:       id,
				Subject:  subject,
				ScopeID:  effScope,
				ImageURL: r.ImageURL,
				Prompt:   r.Prompt,
				Status:   status,
			}

			if effScope == scopeID {
				scopeAssets[subject.Key(scopeID)] = append(scopeAssets[subject.Key(scopeID)], asset)
				continue
			}

			other := s.scopeAssetsLocked(effScope)
			key := subject.Key(effScope)
			if !containsAssetID(other[key], id) {
				other[key] = append(other[key], asset)
			}
		}
	}

	s.assets[scopeID] = scopeAssets
	return nil
}

func containsAssetID(carousel []*models.VisualAsset, id string) bool {
	for _, a := range carousel {
		if a.ID == id {
			return true
		}
	}
	return false
}

// parseSubjectKey classifies a persisted bucket key: bare digits and
// "{scope}_{n}" are scene keys; anything else is a character key.
func parseSubjectKey(scopeID, key string) (models.Subject, bool) {
	if bareSceneKeyRe.MatchString(key) {
		n, err := strconv.Atoi(key)
		if err != nil {
			return models.Subject{}, false
		}
		return models.SceneSubject(n), true
	}

	if rest, found := strings.CutPrefix(key, scopeID+"_"); found && bareSceneKeyRe.MatchString(rest) {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return models.Subject{}, false
		}
		return models.SceneSubject(n), true
	}

	if strings.TrimSpace(key) == "" {
		return models.Subject{}, false
	}
	return models.CharacterSubject(key), true
}

// ---------------------------------------------------------------
// Events
// ---------------------------------------------------------------

// Subscribe registers an event channel for a scope.
func (s *AssetService) Subscribe(scopeID string) chan AssetEvent {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.subscribers[scopeID] == nil {
		s.subscribers[scopeID] = make(map[chan AssetEvent]bool)
	}
	ch := make(chan AssetEvent, 16)
	s.subscribers[scopeID][ch] = true
	return ch
}

// Unsubscribe removes an event channel.
func (s *AssetService) Unsubscribe(scopeID string, ch chan AssetEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	delete(s.subscribers[scopeID], ch)
}

// emit fans an event out to a scope's subscribers. Sends never block.
func (s *AssetService) emit(scopeID string, event AssetEvent) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for ch := range s.subscribers[scopeID] {
		select {
		case ch <- event:
		default:
		}
	}
}
