package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"scriptvision/internal/models"
	"scriptvision/internal/services"
)

func TestSuggestShots_DialogueAndActionCues(t *testing.T) {
	t.Parallel()

	script := "**ACT I - SCENE 1**\n" +
		"INT. KITCHEN - NIGHT\n" +
		"JOHN\n" +
		"(CLOSE-UP on trembling hands)\n" +
		"I never wanted any of this to happen.\n" +
		"MARY\n" +
		"(sets the cup down)\n" +
		"Then why did you come back here tonight?\n"

	suggestions := services.NewShotService().SuggestShots(script)

	require.Len(t, suggestions, 1)
	shots := suggestions["ACT I SCENE 1"]
	require.Len(t, shots, 4)

	// Parenthetical carrying camera vocabulary resolves to the canonical
	// shot type.
	require.Equal(t, "JOHN", shots[0].Character)
	require.Equal(t, "close-up", shots[0].ShotType)
	require.Equal(t, models.ShotSourceCameraDirection, shots[0].Source)
	require.Equal(t, "CLOSE-UP on trembling hands", shots[0].ActionText)

	// Dialogue without a camera direction draws from the rotation.
	require.Equal(t, "JOHN", shots[1].Character)
	require.Equal(t, "medium shot", shots[1].ShotType)
	require.Equal(t, models.ShotSourceRotation, shots[1].Source)
	require.Equal(t, "I never wanted any of this to happen.", shots[1].DialoguePreview)

	// The rotation index advances across moments of the scene.
	require.Equal(t, "MARY", shots[2].Character)
	require.Equal(t, "close-up", shots[2].ShotType)
	require.Equal(t, models.ShotSourceRotation, shots[2].Source)

	require.Equal(t, "MARY", shots[3].Character)
	require.Equal(t, "wide shot", shots[3].ShotType)
	require.NotEmpty(t, shots[3].ActionText)
}

func TestSuggestShots_PendingCameraDirection(t *testing.T) {
	t.Parallel()

	script := "SCENE 1\n" +
		"INT. OFFICE - DAY\n" +
		"TRACKING SHOT\n" +
		"ANNA\n" +
		"We should leave before the storm arrives.\n" +
		"And we should do it before anyone notices.\n"

	suggestions := services.NewShotService().SuggestShots(script)
	shots := suggestions["SCENE 1"]
	require.Len(t, shots, 1, "one suggestion per speaker turn")

	// A full-line camera direction is held until the next moment consumes
	// it.
	require.Equal(t, "ANNA", shots[0].Character)
	require.Equal(t, "tracking shot", shots[0].ShotType)
	require.Equal(t, models.ShotSourceCameraDirection, shots[0].Source)
}

func TestSuggestShots_SpeakerMarkerStripped(t *testing.T) {
	t.Parallel()

	script := "SCENE 1\n" +
		"JOHN (CONT'D)\n" +
		"The house has been empty for years.\n"

	suggestions := services.NewShotService().SuggestShots(script)
	shots := suggestions["SCENE 1"]

	require.Len(t, shots, 1)
	require.Equal(t, "JOHN", shots[0].Character)
}

func TestSuggestShots_ScenesFromDifferentActsStayApart(t *testing.T) {
	t.Parallel()

	script := "**ACT I - SCENE 1**\n" +
		"JOHN\nNothing here is what it seems.\n" +
		"**ACT II - SCENE 1**\n" +
		"MARY\nYou said that once before, John.\n"

	suggestions := services.NewShotService().SuggestShots(script)

	require.Len(t, suggestions, 2)
	require.Len(t, suggestions["ACT I SCENE 1"], 1)
	require.Len(t, suggestions["ACT II SCENE 1"], 1)
	require.Equal(t, "JOHN", suggestions["ACT I SCENE 1"][0].Character)
	require.Equal(t, "MARY", suggestions["ACT II SCENE 1"][0].Character)
}

func TestSuggestShots_IgnoresNoise(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		script string
	}{
		{
			name:   "empty input",
			script: "",
		},
		{
			name:   "prose with no headers",
			script: "JOHN\nThis line has no scene to belong to.\n",
		},
		{
			name:   "header with only transitions and comments",
			script: "SCENE 1\nFADE IN:\nCUT TO:\n# a comment\n[stage note]\n",
		},
		{
			name:   "short dialogue below threshold",
			script: "SCENE 1\nJOHN\nOk.\n",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			suggestions := services.NewShotService().SuggestShots(testCase.script)
			total := 0
			for _, shots := range suggestions {
				total += len(shots)
			}
			require.Zero(t, total)
		})
	}
}

func TestSuggestShots_ShortParentheticalSkipped(t *testing.T) {
	t.Parallel()

	script := "SCENE 1\nJOHN\n(up)\nThe stairs creak with every single step.\n"

	suggestions := services.NewShotService().SuggestShots(script)
	shots := suggestions["SCENE 1"]

	require.Len(t, shots, 1)
	require.NotEmpty(t, shots[0].DialoguePreview)
}

func TestSuggestShots_DialoguePreviewTruncated(t *testing.T) {
	t.Parallel()

	line := "This confession keeps going on and on, far longer than anyone in the room wants it to."
	script := "SCENE 1\nJOHN\n" + line + "\n"

	suggestions := services.NewShotService().SuggestShots(script)
	shots := suggestions["SCENE 1"]

	require.Len(t, shots, 1)
	require.Len(t, shots[0].DialoguePreview, 50)
	require.Equal(t, line[:50], shots[0].DialoguePreview)
}

func TestNormalizeSceneKey(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		header string
		want   string
	}{
		{
			name:   "bold marked header",
			header: "**ACT I - SCENE 1**",
			want:   "ACT I SCENE 1",
		},
		{
			name:   "mixed case with extra spaces",
			header: "  act i  -  scene 1 ",
			want:   "ACT I SCENE 1",
		},
		{
			name:   "plain header",
			header: "Scene 4",
			want:   "SCENE 4",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, testCase.want, services.NormalizeSceneKey(testCase.header))
		})
	}
}
