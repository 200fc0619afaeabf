// Package otamock serves a mock of the GitHub Releases API so OTA update
// flows can be integration-tested without touching github.com. The device
// points its release endpoint at this server and downloads firmware from
// the asset URL it advertises.
package otamock

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// Options configures one server instance. Each instance captures its own
// copy; there is no package-level mutable state.
type Options struct {
	// FirmwarePath is the binary served under /download. A missing file is
	// advertised with size 0 and an all-zero digest, matching a fresh
	// checkout without build artifacts.
	FirmwarePath string

	// Version is the release tag to report. Default "v1.1.0".
	Version string
}

// Server is a mock GitHub Releases API endpoint.
type Server struct {
	opts   Options
	engine *gin.Engine
}

func New(opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "v1.1.0"
	}
	s := &Server{opts: opts}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/repos/:owner/:repo/releases/latest", s.handleLatestRelease)
	engine.GET("/download/:name", s.handleDownload)
	engine.GET("/health", s.handleHealth)
	s.engine = engine
	return s
}

// Handler exposes the server for httptest or embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) handleLatestRelease(c *gin.Context) {
	size, digest := firmwareInfo(s.opts.FirmwarePath)
	host := c.Request.Host
	c.JSON(http.StatusOK, gin.H{
		"tag_name":   s.opts.Version,
		"name":       fmt.Sprintf("DOMES Firmware %s", s.opts.Version),
		"body":       fmt.Sprintf("## Changelog\n\n- New features\n- Bug fixes\n\nSHA-256: %s", digest),
		"draft":      false,
		"prerelease": false,
		"assets": []gin.H{
			{
				"name":                 "domes.bin",
				"browser_download_url": fmt.Sprintf("http://%s/download/domes.bin", host),
				"size":                 size,
				"content_type":         "application/octet-stream",
			},
		},
	})
}

func (s *Server) handleDownload(c *gin.Context) {
	data, err := os.ReadFile(s.opts.FirmwarePath)
	if err != nil {
		c.String(http.StatusNotFound, "firmware not found: %s", s.opts.FirmwarePath)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="domes.bin"`)
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.opts.Version})
}

func firmwareInfo(path string) (int64, string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, hex.EncodeToString(make([]byte, sha256.Size))
	}
	sum := sha256.Sum256(data)
	return int64(len(data)), hex.EncodeToString(sum[:])
}
