package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/markpress/internal/site"
)

// NewRouter wires every route. wasmDir, if set, is served under /wasm/.
func NewRouter(s *site.Site, ws *WSHandler, wasmDir string) *gin.Engine {
	shell := NewShellHandler(s)
	files := NewFileHandler(s)
	tree := NewTreeHandler(s.Library())

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/", shell.Index)
	r.GET("/p/*path", shell.Page)
	r.GET("/assets/"+site.StylesheetAsset, shell.Stylesheet)
	r.GET("/assets/"+site.ScriptAsset, shell.Script)
	r.GET("/assets/"+site.ReloadAsset, shell.ReloadScript)
	if wasmDir != "" {
		r.Static("/wasm", wasmDir)
	}

	api := r.Group("/api")
	{
		api.GET("/pages", files.ListPages)
		api.GET("/pages/*path", files.GetPage)
		api.GET("/headings/*path", files.GetHeadings)
		api.GET("/raw/*path", files.GetRaw)
		api.GET("/tree", tree.GetTree)
		api.GET("/ws", ws.HandleWS)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
