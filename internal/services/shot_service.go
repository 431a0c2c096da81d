// internal/services/shot_service.go
package services

import (
	"regexp"
	"strings"

	"scriptvision/internal/models"
)

const (
	maxSpeakerCueLen   = 30
	minDialogueLen     = 10
	minActionLen       = 4
	dialoguePreviewLen = 50
)

// Camera-direction vocabulary mapped to canonical shot-type phrases.
// Matching is substring-based over the uppercased text.
var cameraVocabulary = []struct {
	marker   string
	shotType string
}{
	{"EXTREME CLOSE", "extreme close-up"},
	{"CLOSE-UP", "close-up"},
	{"CLOSE UP", "close-up"},
	{"CLOSEUP", "close-up"},
	{"WIDE SHOT", "wide shot"},
	{"WIDE ANGLE", "wide shot"},
	{"OVER THE SHOULDER", "over-the-shoulder shot"},
	{"OTS", "over-the-shoulder shot"},
	{"POV", "point-of-view shot"},
	{"TRACKING", "tracking shot"},
	{"HIGH ANGLE", "high angle shot"},
	{"LOW ANGLE", "low angle shot"},
	{"AERIAL", "aerial shot"},
	{"PROFILE", "profile shot"},
}

// Round-robin shot types used when no camera direction is present, so
// consecutive suggestions visibly vary.
var rotationShotTypes = []string{
	"medium shot",
	"close-up",
	"wide shot",
	"over-the-shoulder shot",
	"low angle shot",
	"tracking shot",
}

// Generic action phrases rotated in parallel for dialogue cues.
var rotationActionPhrases = []string{
	"delivers the line with quiet intensity",
	"reacts to what was just said",
	"pauses before answering",
	"turns toward the other speaker",
	"holds the moment in silence",
	"leans in closer",
}

// Reserved keywords that disqualify an ALL CAPS line from being a speaker
// cue.
var reservedCuePrefixes = []string{"INT.", "EXT.", "ACT", "SCENE", "FADE", "CUT"}

var speakerMarkerRe = regexp.MustCompile(`\s*\((?:CONT'?D?|V\.?O\.?|O\.?S\.?)\.?\)\s*$`)
var punctuationRe = regexp.MustCompile(`[^A-Z0-9 ]+`)

// ShotService extracts suggested shot descriptors from dialogue and action
// beats. It is intentionally heuristic: malformed scripts degrade to empty
// suggestion lists, never errors.
type ShotService struct{}

// NewShotService creates a shot extractor.
func NewShotService() *ShotService {
	return &ShotService{}
}

// extractState is the single-pass line scanner state. The rotation index is
// carried here explicitly so extraction is deterministic and replayable.
type extractState struct {
	sceneKey         string
	currentCharacter string
	pendingCamera    string
	momentIndex      int
}

// SuggestShots scans the raw script text and returns shot suggestions
// keyed by normalized scene header. Keying by header rather than bare
// scene number keeps scenes from different acts apart when per-act
// numbering repeats.
func (s *ShotService) SuggestShots(rawText string) map[string][]models.ShotSuggestion {
	suggestions := make(map[string][]models.ShotSuggestion)
	if strings.TrimSpace(rawText) == "" {
		return suggestions
	}

	st := extractState{}

	for _, raw := range strings.Split(rawText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if sceneHeaderRe.MatchString(line) {
			st.sceneKey = NormalizeSceneKey(line)
			st.currentCharacter = ""
			st.pendingCamera = ""
			continue
		}

		if st.sceneKey == "" {
			continue
		}

		// A full-line camera direction is remembered and consumed by the
		// next suggestion in the same scene.
		if !isParenthetical(line) {
			if shot := matchCameraDirection(line); shot != "" && line == strings.ToUpper(line) {
				st.pendingCamera = shot
				continue
			}
		}

		if isSpeakerCue(line) {
			st.currentCharacter = strings.TrimSpace(speakerMarkerRe.ReplaceAllString(line, ""))
			continue
		}

		if isParenthetical(line) {
			if st.currentCharacter == "" {
				continue
			}
			content := strings.TrimSpace(line[1 : len(line)-1])
			if len(content) < minActionLen {
				continue
			}
			sg := s.actionSuggestion(&st, content)
			suggestions[st.sceneKey] = append(suggestions[st.sceneKey], sg)
			continue
		}

		if isComment(line) {
			continue
		}

		if st.currentCharacter != "" && len(line) >= minDialogueLen {
			sg := s.dialogueSuggestion(&st, line)
			suggestions[st.sceneKey] = append(suggestions[st.sceneKey], sg)
			// One suggestion per speaker turn.
			st.currentCharacter = ""
		}
	}

	return suggestions
}

// actionSuggestion emits a suggestion for a parenthetical action cue.
func (s *ShotService) actionSuggestion(st *extractState, content string) models.ShotSuggestion {
	sg := models.ShotSuggestion{
		SceneKey:   st.sceneKey,
		Character:  st.currentCharacter,
		ActionText: content,
	}

	switch {
	case st.pendingCamera != "":
		sg.ShotType = st.pendingCamera
		sg.Source = models.ShotSourceCameraDirection
		st.pendingCamera = ""
	default:
		if shot := matchCameraDirection(content); shot != "" {
			sg.ShotType = shot
			sg.Source = models.ShotSourceCameraDirection
		} else {
			sg.ShotType = rotationShotTypes[st.momentIndex%len(rotationShotTypes)]
			sg.Source = models.ShotSourceRotation
			st.momentIndex++
		}
	}

	return sg
}

// dialogueSuggestion emits a suggestion for a dialogue line.
func (s *ShotService) dialogueSuggestion(st *extractState, line string) models.ShotSuggestion {
	sg := models.ShotSuggestion{
		SceneKey:        st.sceneKey,
		Character:       st.currentCharacter,
		DialoguePreview: truncateRunes(line, dialoguePreviewLen),
	}

	if st.pendingCamera != "" {
		sg.ShotType = st.pendingCamera
		sg.Source = models.ShotSourceCameraDirection
		st.pendingCamera = ""
		sg.ActionText = rotationActionPhrases[st.momentIndex%len(rotationActionPhrases)]
		st.momentIndex++
		return sg
	}

	sg.ShotType = rotationShotTypes[st.momentIndex%len(rotationShotTypes)]
	sg.ActionText = rotationActionPhrases[st.momentIndex%len(rotationActionPhrases)]
	sg.Source = models.ShotSourceRotation
	st.momentIndex++

	return sg
}

// NormalizeSceneKey uppercases the header and strips punctuation so that
// equivalent spellings of the same header land on one key.
func NormalizeSceneKey(header string) string {
	key := strings.ToUpper(strings.TrimSpace(header))
	key = punctuationRe.ReplaceAllString(key, " ")
	return strings.Join(strings.Fields(key), " ")
}

// isSpeakerCue reports whether a line looks like a speaker name: ALL CAPS,
// short, and not a reserved script keyword.
func isSpeakerCue(line string) bool {
	if len(line) > maxSpeakerCueLen {
		return false
	}
	if line != strings.ToUpper(line) {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}
	upper := strings.ToUpper(line)
	for _, prefix := range reservedCuePrefixes {
		if strings.HasPrefix(upper, prefix) {
			return false
		}
	}
	return true
}

func isParenthetical(line string) bool {
	return len(line) >= 2 && strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")")
}

func isComment(line string) bool {
	return strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "[")
}

// matchCameraDirection returns the canonical shot type for a recognized
// camera direction, or "".
func matchCameraDirection(text string) string {
	upper := strings.ToUpper(text)
	for _, entry := range cameraVocabulary {
		if strings.Contains(upper, entry.marker) {
			return entry.shotType
		}
	}
	return ""
}
