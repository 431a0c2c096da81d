// internal/models/asset.go
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// AssetStatus is the generation lifecycle state of a visual asset.
type AssetStatus string

const (
	AssetStatusIdle       AssetStatus = "idle"
	AssetStatusGenerating AssetStatus = "generating"
	AssetStatusCompleted  AssetStatus = "completed"
	AssetStatusFailed     AssetStatus = "failed"
)

// SubjectClass distinguishes what a visual asset is generated for.
type SubjectClass string

const (
	SubjectScene     SubjectClass = "scene"
	SubjectCharacter SubjectClass = "character"
)

// Subject identifies the entity an asset belongs to.
// For scenes SceneNumber is set; for characters CharacterKey is set.
type Subject struct {
	Class        SubjectClass `json:"class"`
	SceneNumber  int          `json:"scene_number,omitempty"`
	CharacterKey string       `json:"character_key,omitempty"`
}

// SceneSubject builds a scene subject.
func SceneSubject(n int) Subject {
	return Subject{Class: SubjectScene, SceneNumber: n}
}

// CharacterSubject builds a character subject.
func CharacterSubject(key string) Subject {
	return Subject{Class: SubjectCharacter, CharacterKey: key}
}

// Key returns the subject's storage key within a scope. Scene subjects use
// the composite "{scope}_{n}" form; character subjects use the character key.
func (s Subject) Key(scopeID string) string {
	if s.Class == SubjectScene {
		return fmt.Sprintf("%s_%d", scopeID, s.SceneNumber)
	}
	return s.CharacterKey
}

// LegacyKey returns the bare scene-number key older records were stored
// under. Empty for character subjects.
func (s Subject) LegacyKey() string {
	if s.Class == SubjectScene {
		return fmt.Sprintf("%d", s.SceneNumber)
	}
	return ""
}

// VisualAsset is one generated (or in-flight) image for a subject. Multiple
// assets per subject form a carousel; each asset belongs to exactly one
// scope (script).
type VisualAsset struct {
	ID          string      `json:"id"`
	Subject     Subject     `json:"subject"`
	ScopeID     string      `json:"scope_id,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
	Prompt      string      `json:"prompt"`
	Status      AssetStatus `json:"status"`
	Error       string      `json:"error,omitempty"`
	GeneratedAt time.Time   `json:"generated_at,omitempty"`
}

// SelectionState is the transient curation state for a scope. KeyAssetIDs
// maps scene number to the designated reference asset. ExcludedIDs is the
// opt-out set for the final cut: everything is included by default.
type SelectionState struct {
	SelectedIDs map[string]bool `json:"selected_ids"`
	KeyAssetIDs map[int]string  `json:"key_asset_ids"`
	ExcludedIDs map[string]bool `json:"excluded_ids"`
}

// NewSelectionState creates an empty selection state.
func NewSelectionState() *SelectionState {
	return &SelectionState{
		SelectedIDs: make(map[string]bool),
		KeyAssetIDs: make(map[int]string),
		ExcludedIDs: make(map[string]bool),
	}
}

// AssetRecord is the persisted boundary shape for a single asset. Older
// records spell the scope field either script_id or scriptId and the image
// field either image_url or imageUrl; both spellings are accepted on read
// and normalized here, so nothing past the boundary has to check twice.
type AssetRecord struct {
	ID       string `json:"id"`
	ImageURL string `json:"imageUrl,omitempty"`
	Prompt   string `json:"prompt"`
	Status   string `json:"generationStatus"`
	ScriptID string `json:"scriptId,omitempty"`
}

// UnmarshalJSON accepts the legacy dual spellings for the scope and image
// fields.
func (r *AssetRecord) UnmarshalJSON(data []byte) error {
	type raw struct {
		ID          string `json:"id"`
		ImageURL    string `json:"imageUrl"`
		ImageURLAlt string `json:"image_url"`
		Prompt      string `json:"prompt"`
		Status      string `json:"generationStatus"`
		StatusAlt   string `json:"generation_status"`
		ScriptID    string `json:"scriptId"`
		ScriptIDAlt string `json:"script_id"`
	}

	var v raw
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	r.ID = v.ID
	r.Prompt = v.Prompt

	r.ImageURL = v.ImageURL
	if r.ImageURL == "" {
		r.ImageURL = v.ImageURLAlt
	}

	r.Status = v.Status
	if r.Status == "" {
		r.Status = v.StatusAlt
	}

	r.ScriptID = v.ScriptID
	if r.ScriptID == "" {
		r.ScriptID = v.ScriptIDAlt
	}

	return nil
}
