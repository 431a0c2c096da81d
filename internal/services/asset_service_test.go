package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "scriptvision/internal/errors"
	"scriptvision/internal/models"
	"scriptvision/internal/services"
	"scriptvision/internal/storage"
)

func staticGenerator(url string, err error) services.Generator {
	return services.GeneratorFunc(func(context.Context, models.Subject, string, services.GenerateOptions, []string) (string, error) {
		return url, err
	})
}

// blockingGenerator holds every request until release is closed.
func blockingGenerator(release <-chan struct{}, url string) services.Generator {
	return services.GeneratorFunc(func(ctx context.Context, _ models.Subject, _ string, _ services.GenerateOptions, _ []string) (string, error) {
		select {
		case <-release:
			return url, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}

func waitForStatus(t *testing.T, svc *services.AssetService, scopeID string, subject models.Subject, assetID string, want models.AssetStatus) models.VisualAsset {
	t.Helper()

	var found models.VisualAsset
	require.Eventually(t, func() bool {
		for _, a := range svc.AssetsForSubject(scopeID, subject) {
			if a.ID == assetID && a.Status == want {
				found = a
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	return found
}

func TestGenerate_Lifecycle(t *testing.T) {
	t.Parallel()

	svc := services.NewAssetService(staticGenerator("https://img.example/s1.png", nil), nil, services.NewProgressService())
	subject := models.SceneSubject(1)

	placeholder, err := svc.Generate(context.Background(), "s1", subject, "a dark kitchen", services.GenerateOptions{})
	require.NoError(t, err)
	require.Equal(t, models.AssetStatusGenerating, placeholder.Status)
	require.NotEmpty(t, placeholder.ID)
	require.Empty(t, placeholder.ImageURL)

	done := waitForStatus(t, svc, "s1", subject, placeholder.ID, models.AssetStatusCompleted)
	require.Equal(t, "https://img.example/s1.png", done.ImageURL)
	require.Empty(t, done.Error)
	require.False(t, done.GeneratedAt.IsZero())

	assets := svc.AssetsForSubject("s1", subject)
	require.Len(t, assets, 1, "exactly one asset per resolved request")
}

func TestGenerate_Failure(t *testing.T) {
	t.Parallel()

	svc := services.NewAssetService(staticGenerator("", errors.New("upstream rejected the prompt")), nil, nil)
	subject := models.SceneSubject(2)

	placeholder, err := svc.Generate(context.Background(), "s1", subject, "a flooded street", services.GenerateOptions{})
	require.NoError(t, err)

	failed := waitForStatus(t, svc, "s1", subject, placeholder.ID, models.AssetStatusFailed)
	require.Equal(t, "upstream rejected the prompt", failed.Error)
	require.Empty(t, failed.ImageURL)
}

func TestGenerate_Validation(t *testing.T) {
	t.Parallel()

	svc := services.NewAssetService(staticGenerator("x", nil), nil, nil)

	_, err := svc.Generate(context.Background(), "", models.SceneSubject(1), "prompt", services.GenerateOptions{})
	require.True(t, apperrors.IsValidationError(err))

	_, err = svc.Generate(context.Background(), "s1", models.SceneSubject(1), "  ", services.GenerateOptions{})
	require.True(t, apperrors.IsValidationError(err))
}

func TestGenerate_RejectsSecondRequestInFlight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	svc := services.NewAssetService(blockingGenerator(release, "https://img.example/a.png"), nil, nil)
	subject := models.SceneSubject(1)

	first, err := svc.Generate(context.Background(), "s1", subject, "first", services.GenerateOptions{})
	require.NoError(t, err)

	// Same subject while the first request is outstanding.
	_, err = svc.Generate(context.Background(), "s1", subject, "second", services.GenerateOptions{})
	require.True(t, apperrors.IsInvalidOperationError(err))
	require.ErrorIs(t, err, services.ErrGenerationInFlight)
	require.Len(t, svc.AssetsForSubject("s1", subject), 1, "rejected request leaves no placeholder")

	// A different subject is unaffected.
	other, err := svc.Generate(context.Background(), "s1", models.SceneSubject(2), "other", services.GenerateOptions{})
	require.NoError(t, err)

	close(release)
	waitForStatus(t, svc, "s1", subject, first.ID, models.AssetStatusCompleted)
	waitForStatus(t, svc, "s1", models.SceneSubject(2), other.ID, models.AssetStatusCompleted)

	// Once resolved, the subject accepts new requests again.
	_, err = svc.Generate(context.Background(), "s1", subject, "third", services.GenerateOptions{})
	require.NoError(t, err)
}

func TestRegenerate_SceneCarouselAccumulates(t *testing.T) {
	t.Parallel()

	svc := services.NewAssetService(staticGenerator("https://img.example/v.png", nil), nil, nil)
	subject := models.SceneSubject(3)

	first, err := svc.Generate(context.Background(), "s1", subject, "take one", services.GenerateOptions{})
	require.NoError(t, err)
	waitForStatus(t, svc, "s1", subject, first.ID, models.AssetStatusCompleted)

	second, err := svc.Regenerate(context.Background(), "s1", subject, "take two", services.GenerateOptions{})
	require.NoError(t, err)
	waitForStatus(t, svc, "s1", subject, second.ID, models.AssetStatusCompleted)

	assets := svc.AssetsForSubject("s1", subject)
	require.Len(t, assets, 2, "scene candidates accumulate")
	require.Equal(t, first.ID, assets[0].ID, "carousel keeps insertion order")
	require.Equal(t, second.ID, assets[1].ID)
}

func TestRegenerate_CharacterOverwritesOnSuccess(t *testing.T) {
	t.Parallel()

	subject := models.CharacterSubject("harry_potter")

	svc := services.NewAssetService(staticGenerator("https://img.example/v1.png", nil), nil, nil)
	first, err := svc.Generate(context.Background(), "s1", subject, "portrait", services.GenerateOptions{})
	require.NoError(t, err)
	waitForStatus(t, svc, "s1", subject, first.ID, models.AssetStatusCompleted)

	second, err := svc.Regenerate(context.Background(), "s1", subject, "new portrait", services.GenerateOptions{})
	require.NoError(t, err)
	waitForStatus(t, svc, "s1", subject, second.ID, models.AssetStatusCompleted)

	assets := svc.AssetsForSubject("s1", subject)
	require.Len(t, assets, 1, "characters keep a single current image")
	require.Equal(t, second.ID, assets[0].ID)
}

func TestRegenerate_CharacterKeepExisting(t *testing.T) {
	t.Parallel()

	subject := models.CharacterSubject("harry_potter")
	svc := services.NewAssetService(staticGenerator("https://img.example/v.png", nil), nil, nil)

	first, err := svc.Generate(context.Background(), "s1", subject, "portrait", services.GenerateOptions{})
	require.NoError(t, err)
	waitForStatus(t, svc, "s1", subject, first.ID, models.AssetStatusCompleted)

	second, err := svc.Regenerate(context.Background(), "s1", subject, "variant", services.GenerateOptions{KeepExisting: true})
	require.NoError(t, err)
	waitForStatus(t, svc, "s1", subject, second.ID, models.AssetStatusCompleted)

	require.Len(t, svc.AssetsForSubject("s1", subject), 2)
}

func TestRegenerate_CharacterFailureKeepsPreviousImage(t *testing.T) {
	t.Parallel()

	subject := models.CharacterSubject("mary")

	// First request succeeds, every later one fails.
	calls := 0
	svc := services.NewAssetService(services.GeneratorFunc(func(context.Context, models.Subject, string, services.GenerateOptions, []string) (string, error) {
		calls++
		if calls == 1 {
			return "https://img.example/v1.png", nil
		}
		return "", errors.New("boom")
	}), nil, nil)

	ok, err := svc.Generate(context.Background(), "s1", subject, "portrait", services.GenerateOptions{})
	require.NoError(t, err)
	completed := waitForStatus(t, svc, "s1", subject, ok.ID, models.AssetStatusCompleted)

	bad, err := svc.Regenerate(context.Background(), "s1", subject, "variant", services.GenerateOptions{})
	require.NoError(t, err)
	waitForStatus(t, svc, "s1", subject, bad.ID, models.AssetStatusFailed)

	assets := svc.AssetsForSubject("s1", subject)
	require.Len(t, assets, 2)
	require.Equal(t, completed.ID, assets[0].ID, "previous image survives a failed regenerate")
	require.Equal(t, models.AssetStatusCompleted, assets[0].Status)
}

func TestSelectAll_Toggles(t *testing.T) {
	t.Parallel()

	svc := services.NewAssetService(staticGenerator("https://img.example/v.png", nil), nil, nil)

	a1, err := svc.Generate(context.Background(), "s1", models.SceneSubject(1), "one", services.GenerateOptions{})
	require.NoError(t, err)
	a2, err := svc.Generate(context.Background(), "s1", models.SceneSubject(2), "two", services.GenerateOptions{})
	require.NoError(t, err)
	waitForStatus(t, svc, "s1", models.SceneSubject(1), a1.ID, models.AssetStatusCompleted)
	waitForStatus(t, svc, "s1", models.SceneSubject(2), a2.ID, models.AssetStatusCompleted)

	require.Equal(t, 2, svc.SelectAll("s1"))
	require.ElementsMatch(t, []string{a1.ID, a2.ID}, svc.SelectedIDs("s1"))

	require.Equal(t, 0, svc.SelectAll("s1"), "second call clears a full selection")
	require.Empty(t, svc.SelectedIDs("s1"))

	// A partial selection upgrades to full instead of clearing.
	require.NoError(t, svc.Select("s1", a1.ID, true))
	require.Equal(t, 2, svc.SelectAll("s1"))
}

func TestSetKeyAsset(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)
	svc := services.NewAssetService(blockingGenerator(release, "https://img.example/v.png"), nil, nil)

	pending, err := svc.Generate(context.Background(), "s1", models.SceneSubject(1), "one", services.GenerateOptions{})
	require.NoError(t, err)

	err = svc.SetKeyAsset("s1", 1, pending.ID)
	require.True(t, apperrors.IsInvalidOperationError(err), "a generating placeholder cannot be the key asset")

	_, found := svc.KeyAsset("s1", 1)
	require.False(t, found)
}

func TestGenerateSuggestedShot_RequiresKeyAsset(t *testing.T) {
	t.Parallel()

	svc := services.NewAssetService(staticGenerator("https://img.example/v.png", nil), nil, nil)
	suggestion := models.ShotSuggestion{
		SceneKey:  "ACT I SCENE 1",
		Character: "JOHN",
		ShotType:  "close-up",
	}

	_, err := svc.GenerateSuggestedShot(context.Background(), "s1", 1, suggestion, services.GenerateOptions{})
	require.True(t, apperrors.IsInvalidOperationError(err))
	require.ErrorIs(t, err, services.ErrNoKeyAsset)

	// Designate a completed key asset, then the same call goes through.
	base, err := svc.Generate(context.Background(), "s1", models.SceneSubject(1), "establishing shot", services.GenerateOptions{})
	require.NoError(t, err)
	waitForStatus(t, svc, "s1", models.SceneSubject(1), base.ID, models.AssetStatusCompleted)
	require.NoError(t, svc.SetKeyAsset("s1", 1, base.ID))

	key, found := svc.KeyAsset("s1", 1)
	require.True(t, found)
	require.Equal(t, base.ID, key.ID)

	shot, err := svc.GenerateSuggestedShot(context.Background(), "s1", 1, suggestion, services.GenerateOptions{})
	require.NoError(t, err)
	require.Contains(t, shot.Prompt, "close-up of JOHN")
	waitForStatus(t, svc, "s1", models.SceneSubject(1), shot.ID, models.AssetStatusCompleted)
	require.Len(t, svc.AssetsForSubject("s1", models.SceneSubject(1)), 2)
}

func TestReorder(t *testing.T) {
	t.Parallel()

	svc := services.NewAssetService(staticGenerator("https://img.example/v.png", nil), nil, nil)
	subject := models.SceneSubject(1)

	var ids []string
	for _, prompt := range []string{"one", "two", "three"} {
		a, err := svc.Generate(context.Background(), "s1", subject, prompt, services.GenerateOptions{})
		require.NoError(t, err)
		waitForStatus(t, svc, "s1", subject, a.ID, models.AssetStatusCompleted)
		ids = append(ids, a.ID)
	}

	err := svc.Reorder("s1", 1, []string{ids[0], ids[1]})
	require.True(t, apperrors.IsInvalidOperationError(err), "short order is rejected")

	err = svc.Reorder("s1", 1, []string{ids[0], ids[1], "unknown"})
	require.True(t, apperrors.IsInvalidOperationError(err), "unknown id is rejected")

	err = svc.Reorder("s1", 1, []string{ids[0], ids[0], ids[1]})
	require.True(t, apperrors.IsInvalidOperationError(err), "duplicate id is rejected")

	current := svc.AssetsForSubject("s1", subject)
	require.Equal(t, ids[0], current[0].ID, "rejected reorder mutates nothing")

	require.NoError(t, svc.Reorder("s1", 1, []string{ids[2], ids[0], ids[1]}))
	reordered := svc.AssetsForSubject("s1", subject)
	require.Equal(t, []string{ids[2], ids[0], ids[1]}, []string{reordered[0].ID, reordered[1].ID, reordered[2].ID})
}

func TestDelete_ClearsCurationState(t *testing.T) {
	t.Parallel()

	svc := services.NewAssetService(staticGenerator("https://img.example/v.png", nil), nil, nil)
	subject := models.SceneSubject(1)

	a, err := svc.Generate(context.Background(), "s1", subject, "one", services.GenerateOptions{})
	require.NoError(t, err)
	waitForStatus(t, svc, "s1", subject, a.ID, models.AssetStatusCompleted)

	require.NoError(t, svc.Select("s1", a.ID, true))
	require.NoError(t, svc.SetKeyAsset("s1", 1, a.ID))

	require.NoError(t, svc.Delete(a.ID))

	require.Empty(t, svc.AssetsForSubject("s1", subject))
	require.Empty(t, svc.SelectedIDs("s1"))
	_, found := svc.KeyAsset("s1", 1)
	require.False(t, found)

	require.True(t, apperrors.IsNotFoundError(svc.Delete(a.ID)))
}

func TestToggleExcluded_FinalCut(t *testing.T) {
	t.Parallel()

	svc := services.NewAssetService(staticGenerator("https://img.example/v.png", nil), nil, nil)

	a1, err := svc.Generate(context.Background(), "s1", models.SceneSubject(1), "one", services.GenerateOptions{})
	require.NoError(t, err)
	a2, err := svc.Generate(context.Background(), "s1", models.SceneSubject(2), "two", services.GenerateOptions{})
	require.NoError(t, err)
	waitForStatus(t, svc, "s1", models.SceneSubject(1), a1.ID, models.AssetStatusCompleted)
	waitForStatus(t, svc, "s1", models.SceneSubject(2), a2.ID, models.AssetStatusCompleted)

	require.Len(t, svc.FinalCut("s1"), 2, "everything is included by default")

	excluded, err := svc.ToggleExcluded("s1", a1.ID)
	require.NoError(t, err)
	require.True(t, excluded)

	cut := svc.FinalCut("s1")
	require.Len(t, cut, 1)
	require.Equal(t, a2.ID, cut[0].ID)

	excluded, err = svc.ToggleExcluded("s1", a1.ID)
	require.NoError(t, err)
	require.False(t, excluded, "toggle flips back to included")
	require.Len(t, svc.FinalCut("s1"), 2)
}

func TestSubscribe_LifecycleEvents(t *testing.T) {
	t.Parallel()

	svc := services.NewAssetService(staticGenerator("https://img.example/v.png", nil), nil, nil)
	ch := svc.Subscribe("s1")
	defer svc.Unsubscribe("s1", ch)

	a, err := svc.Generate(context.Background(), "s1", models.SceneSubject(1), "one", services.GenerateOptions{})
	require.NoError(t, err)

	expectEvent := func(eventType string) services.AssetEvent {
		select {
		case ev := <-ch:
			require.Equal(t, eventType, ev.Type)
			require.Equal(t, a.ID, ev.Asset.ID)
			return ev
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s event", eventType)
			return services.AssetEvent{}
		}
	}

	expectEvent(services.AssetEventGenerating)
	completed := expectEvent(services.AssetEventCompleted)
	require.Equal(t, "https://img.example/v.png", completed.Asset.ImageURL)

	require.NoError(t, svc.Delete(a.ID))
	expectEvent(services.AssetEventDeleted)
}

func TestSaveLoadScope_RoundTrip(t *testing.T) {
	t.Parallel()

	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	svc := services.NewAssetService(staticGenerator("https://img.example/v.png", nil), store, nil)
	subject := models.SceneSubject(1)

	a, err := svc.Generate(context.Background(), "s1", subject, "one", services.GenerateOptions{})
	require.NoError(t, err)
	waitForStatus(t, svc, "s1", subject, a.ID, models.AssetStatusCompleted)

	require.NoError(t, svc.SaveScope("s1"))

	reloaded := services.NewAssetService(staticGenerator("", nil), store, nil)
	require.NoError(t, reloaded.LoadScope("s1"))

	assets := reloaded.AssetsForSubject("s1", subject)
	require.Len(t, assets, 1)
	require.Equal(t, a.ID, assets[0].ID)
	require.Equal(t, models.AssetStatusCompleted, assets[0].Status)
	require.Equal(t, "https://img.example/v.png", assets[0].ImageURL)
}

func TestLoadScope_LegacyRecords(t *testing.T) {
	t.Parallel()

	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	// A persisted file with a bare-number scene bucket, a record abandoned
	// mid-generation, a record missing its id, and an unscoped character
	// record.
	records := map[string][]models.AssetRecord{
		"3": {
			{ID: "scene-a", ImageURL: "https://img.example/a.png", Status: "completed", ScriptID: "s1"},
			{ID: "scene-b", Status: "generating", ScriptID: "s1"},
			{ImageURL: "https://img.example/c.png", Status: "completed", ScriptID: "s1"},
		},
		"harry_potter": {
			{ID: "char-a", ImageURL: "https://img.example/h.png", Status: "completed"},
		},
	}
	require.NoError(t, store.SaveJSONFile("s1", "assets.json", records))

	svc := services.NewAssetService(staticGenerator("", nil), store, nil)
	require.NoError(t, svc.LoadScope("s1"))

	// The bare "3" bucket and the composite form address the same assets.
	assets := svc.AssetsForSubject("s1", models.SceneSubject(3))
	require.Len(t, assets, 3)

	byID := make(map[string]models.VisualAsset)
	for _, a := range assets {
		require.NotEmpty(t, a.ID, "records without an id are assigned one")
		byID[a.ID] = a
	}
	require.Equal(t, models.AssetStatusCompleted, byID["scene-a"].Status)
	require.Equal(t, models.AssetStatusFailed, byID["scene-b"].Status, "abandoned generations come back failed")

	// A new generation for the same scene lands in the same bucket.
	_, err = svc.Generate(context.Background(), "s1", models.SceneSubject(3), "another take", services.GenerateOptions{})
	require.NoError(t, err)
	require.Len(t, svc.AssetsForSubject("s1", models.SceneSubject(3)), 4)

	// The unscoped character record stays visible under any scope; the
	// scene assets stay confined to their own.
	var charVisible, sceneLeaked bool
	for _, a := range svc.VisibleAssets("s2") {
		if a.ID == "char-a" {
			charVisible = true
		}
		if a.Subject.Class == models.SubjectScene {
			sceneLeaked = true
		}
	}
	require.True(t, charVisible)
	require.False(t, sceneLeaked)
}
