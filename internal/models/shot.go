// internal/models/shot.go
package models

// Shot suggestion sources.
const (
	ShotSourceCameraDirection = "camera_direction"
	ShotSourceRotation        = "rotation"
)

// ShotSuggestion is a candidate secondary generation derived from a
// dialogue or action beat inside a scene. Suggestions are keyed by the
// normalized scene header, not the bare scene number, because per-act
// numbering would otherwise merge unrelated scenes.
type ShotSuggestion struct {
	SceneKey        string `json:"scene_key"`
	Character       string `json:"character"`
	ActionText      string `json:"action_text"`
	ShotType        string `json:"shot_type"`
	DialoguePreview string `json:"dialogue_preview,omitempty"`
	Source          string `json:"source"`
}
