// internal/api/router.go
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"scriptvision/internal/config"
	"scriptvision/internal/di"
	"scriptvision/internal/services"
)

// SetupRouter configures the HTTP routes. Services come from the DI
// container; the router never creates its own instances.
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()

	container := di.GetContainer()

	segmenter, ok := container.Get("segmenter").(*services.SegmenterService)
	if !ok {
		return nil, fmt.Errorf("segmenter service not initialized")
	}

	resolver, ok := container.Get("resolver").(*services.ResolverService)
	if !ok {
		return nil, fmt.Errorf("resolver service not initialized")
	}

	shots, ok := container.Get("shots").(*services.ShotService)
	if !ok {
		return nil, fmt.Errorf("shot service not initialized")
	}

	assets, ok := container.Get("assets").(*services.AssetService)
	if !ok {
		return nil, fmt.Errorf("asset service not initialized")
	}

	progress, ok := container.Get("progress").(*services.ProgressService)
	if !ok {
		return nil, fmt.Errorf("progress service not initialized")
	}

	handler := NewHandler(segmenter, resolver, shots, assets, progress)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(corsMiddleware())

	if !cfg.DebugMode {
		r.Use(func(c *gin.Context) {
			if c.Request.Header.Get("X-Forwarded-Proto") != "https" && c.Request.Header.Get("X-Forwarded-Proto") != "" {
				c.Redirect(http.StatusPermanentRedirect,
					"https://"+c.Request.Host+c.Request.URL.Path)
				return
			}
			c.Next()
		})
	}

	r.GET("/api/health", handler.HealthCheck)

	scripts := r.Group("/api/scripts/:id")
	{
		scripts.POST("/segment", handler.SegmentScript)
		scripts.POST("/characters/resolve", handler.ResolveCharacters)
		scripts.POST("/shots/suggest", handler.SuggestShots)

		scripts.GET("/assets", handler.ListAssets)
		scripts.POST("/assets/generate", handler.GenerateAsset)
		scripts.POST("/assets/regenerate", handler.RegenerateAsset)
		scripts.POST("/assets/suggested-shot", handler.GenerateSuggestedShot)
		scripts.DELETE("/assets", handler.DeleteScopeAssets)
		scripts.POST("/assets/select-all", handler.SelectAllAssets)
		scripts.POST("/assets/clear-selection", handler.ClearSelection)
		scripts.GET("/assets/final-cut", handler.FinalCut)
		scripts.POST("/assets/save", handler.SaveScope)
		scripts.POST("/assets/load", handler.LoadScope)

		scripts.GET("/scenes/:n/assets", handler.ListSceneAssets)
		scripts.POST("/scenes/:n/key-asset", handler.SetKeyAsset)
		scripts.PUT("/scenes/:n/order", handler.ReorderScene)
	}

	assetsGroup := r.Group("/api/assets/:asset_id")
	{
		assetsGroup.DELETE("", handler.DeleteAsset)
		assetsGroup.POST("/select", handler.SelectAsset)
		assetsGroup.POST("/exclude", handler.ToggleExcluded)
	}

	r.POST("/api/assets/delete-batch", handler.DeleteAssetBatch)

	r.GET("/ws/scripts/:id/assets", handler.AssetEventsWebSocket)

	return r, nil
}
