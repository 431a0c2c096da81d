// internal/services/segmenter_service.go
package services

import (
	"fmt"
	"regexp"
	"strings"

	"scriptvision/internal/models"
	"scriptvision/internal/utils"
)

const maxDescriptionLen = 300
const maxDescriptionLines = 5

// Header markers: case-insensitive, optionally bold-marked, optionally
// act-prefixed and sub-numbered ("**ACT I - SCENE 3.2**", "Scene 4",
// "CHAPTER 2").
var (
	sceneHeaderRe = regexp.MustCompile(`(?i)^\s*(?:\*\*)?\s*(?:ACT\s+(?:[IVXLCDM]+|\d+)\s*[-–—:.]?\s*)?(?:SCENE|CHAPTER)\s+\d+(?:\.\d+)?\b[^\n]*$`)
	locationRe    = regexp.MustCompile(`(?i)^\s*(?:INT\.|EXT\.)`)
	legacyMarker  = regexp.MustCompile(`(?i)^\s*(?:\*\*)?\s*(?:ACT|SCENE|CHAPTER)\b`)
)

// SegmenterService turns raw script text (or pre-structured scene arrays)
// into an ordered list of scenes.
type SegmenterService struct{}

// NewSegmenterService creates a segmenter.
func NewSegmenterService() *SegmenterService {
	return &SegmenterService{}
}

// Segment produces the scene list. Strategies are tried in strict priority
// order and the first one that yields results wins; results from different
// strategies are never merged. An empty result is a valid state, not an
// error.
func (s *SegmenterService) Segment(rawText string, structured []models.SceneInput, legacyDescriptions []string) []models.Scene {
	if len(structured) > 0 {
		return s.fromStructured(structured)
	}

	if scenes := s.fromHeaders(rawText); len(scenes) > 0 {
		return scenes
	}

	if scenes := s.fromLegacy(legacyDescriptions); len(scenes) > 0 {
		return scenes
	}

	utils.GetLogger().Info("segmenter found no usable scene structure", map[string]interface{}{
		"text_length": len(rawText),
	})
	return []models.Scene{}
}

// fromStructured maps a pre-structured scene array directly, defaulting
// missing fields.
func (s *SegmenterService) fromStructured(structured []models.SceneInput) []models.Scene {
	scenes := make([]models.Scene, 0, len(structured))
	for i, in := range structured {
		number := in.SceneNumber
		if number <= 0 {
			number = i + 1
		}

		header := strings.TrimSpace(in.Header)
		if header == "" {
			header = fmt.Sprintf("Scene %d", number)
		}

		description := strings.TrimSpace(in.VisualDescription)
		if description == "" {
			if in.Location != "" {
				description = in.Location
			} else {
				description = header
			}
		}

		scenes = append(scenes, models.Scene{
			SceneNumber:       number,
			Header:            header,
			Location:          strings.TrimSpace(in.Location),
			VisualDescription: truncateRunes(description, maxDescriptionLen),
		})
	}
	return scenes
}

// fromHeaders scans the raw text for act/scene header markers. Each header
// occurrence produces one scene whose body spans to the next header or end
// of text. The scene number is the global positional index of the match,
// never the per-act number embedded in the header, because per-act numbers
// collide across acts.
func (s *SegmenterService) fromHeaders(rawText string) []models.Scene {
	if strings.TrimSpace(rawText) == "" {
		return nil
	}

	lines := strings.Split(rawText, "\n")

	var headerIdx []int
	for i, line := range lines {
		if sceneHeaderRe.MatchString(line) {
			headerIdx = append(headerIdx, i)
		}
	}

	if len(headerIdx) == 0 {
		return nil
	}

	scenes := make([]models.Scene, 0, len(headerIdx))
	for n, start := range headerIdx {
		end := len(lines)
		if n+1 < len(headerIdx) {
			end = headerIdx[n+1]
		}

		header := cleanHeader(lines[start])
		location := ""
		var descLines []string

		for _, line := range lines[start+1 : end] {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if location == "" && locationRe.MatchString(trimmed) {
				location = trimmed
				continue
			}
			if len(descLines) < maxDescriptionLines {
				descLines = append(descLines, trimmed)
			}
		}

		description := strings.Join(descLines, " ")
		if description == "" {
			// A header with no visible body still produces a scene record.
			if location != "" {
				description = location
			} else {
				description = fmt.Sprintf("Scene %d", n+1)
			}
		}

		scenes = append(scenes, models.Scene{
			SceneNumber:       n + 1,
			Header:            header,
			Location:          location,
			VisualDescription: truncateRunes(description, maxDescriptionLen),
		})
	}

	return scenes
}

// fromLegacy maps an older flat list of scene descriptions. The previous
// description format double-counted entries, so when no entry carries an
// act/scene marker, only every other entry is kept; otherwise only marked
// entries survive.
func (s *SegmenterService) fromLegacy(descriptions []string) []models.Scene {
	if len(descriptions) == 0 {
		return nil
	}

	var kept []string
	for _, d := range descriptions {
		if legacyMarker.MatchString(d) {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		for i, d := range descriptions {
			if i%2 == 0 {
				kept = append(kept, d)
			}
		}
	}

	scenes := make([]models.Scene, 0, len(kept))
	for _, d := range kept {
		trimmed := strings.TrimSpace(d)
		if trimmed == "" {
			continue
		}
		number := len(scenes) + 1
		scenes = append(scenes, models.Scene{
			SceneNumber:       number,
			Header:            fmt.Sprintf("Scene %d", number),
			VisualDescription: truncateRunes(trimmed, maxDescriptionLen),
		})
	}

	return scenes
}

// cleanHeader strips bold markers and surrounding whitespace.
func cleanHeader(line string) string {
	h := strings.TrimSpace(line)
	h = strings.TrimPrefix(h, "**")
	h = strings.TrimSuffix(h, "**")
	return strings.TrimSpace(h)
}

// truncateRunes cuts s to at most n characters. Truncation is length-based,
// not word-boundary-based, to keep results deterministic.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
