// internal/models/scene.go
package models

// Scene is one segmented unit of a script. SceneNumber is the global
// 1-based position of the scene across the whole script; per-act numbers
// embedded in header text restart between acts and are never used as
// identifiers.
type Scene struct {
	SceneNumber       int    `json:"scene_number"`
	Header            string `json:"header"`
	Location          string `json:"location"`
	VisualDescription string `json:"visual_description"`
}

// SceneInput is a pre-structured scene supplied by the editing surface.
// Missing fields are defaulted during segmentation.
type SceneInput struct {
	SceneNumber       int    `json:"scene_number,omitempty"`
	Header            string `json:"header,omitempty"`
	Location          string `json:"location,omitempty"`
	VisualDescription string `json:"visual_description,omitempty"`
}
