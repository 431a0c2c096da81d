// internal/models/character.go
package models

// RosterEntry is one canonical character record from the read-only
// roster collaborator.
type RosterEntry struct {
	Name                string `json:"name"`
	Role                string `json:"role,omitempty"`
	PhysicalDescription string `json:"physical_description,omitempty"`
	Personality         string `json:"personality,omitempty"`
	ImageURL            string `json:"image_url,omitempty"`
}

// CharacterRef is a script-local character mention reconciled against the
// canonical roster. OriginalName and DisplayName keep the script-local
// spelling even when a canonical match supplies the remaining metadata.
type CharacterRef struct {
	CanonicalName       string `json:"canonical_name"`
	OriginalName        string `json:"original_name"`
	DisplayName         string `json:"display_name"`
	PhysicalDescription string `json:"physical_description,omitempty"`
	Personality         string `json:"personality,omitempty"`
	Role                string `json:"role,omitempty"`
	ImageURL            string `json:"image_url,omitempty"`
	Matched             bool   `json:"matched"`
}
