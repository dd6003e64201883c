// SPDX-License-Identifier: Apache-2.0

// Package web serves the two-panel analysis page and its JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/authenticaproj/authentica/internal/analysis"
	"github.com/authenticaproj/authentica/internal/fusion"
)

const (
	maxUploadBytes   = 32 << 20
	shutdownWait     = 5 * time.Second
	serverTimeout    = 300 * time.Second
	maxHeaderBytesLg = 20
)

var (
	//go:embed templates/*
	embedFS embed.FS

	// allowedExtensions mirrors the upload widget's accepted file types.
	allowedExtensions = map[string]bool{
		".txt": true, ".pdf": true,
		".png": true, ".jpg": true, ".jpeg": true,
		".mp3": true, ".wav": true,
		".mp4": true, ".mov": true,
	}
)

type textRequest struct {
	Text string `json:"text"`
}

// resultView is what the page renders for one analysis.
type resultView struct {
	ID          string                `json:"id"`
	Verdict     fusion.Verdict        `json:"verdict"`
	Banner      string                `json:"banner"`
	Tone        string                `json:"tone"`
	Score       float64               `json:"score"`
	Percent     string                `json:"percent"`
	Delta       string                `json:"delta"`
	Explanation string                `json:"explanation"`
	Detectors   []fusion.Contribution `json:"detectors"`
}

type panel int

const (
	textPanel panel = iota
	filePanel
)

func newResultView(r analysis.Report, p panel) resultView {
	v := resultView{
		ID:          r.ID,
		Verdict:     r.Verdict,
		Score:       r.Score,
		Percent:     r.Percent(),
		Delta:       r.Delta(),
		Explanation: r.Explanation,
		Detectors:   r.Contributions,
	}
	switch {
	case r.Verdict == fusion.AIGenerated && p == textPanel:
		v.Banner, v.Tone = "Result: AI-Generated", "error"
	case r.Verdict == fusion.AIGenerated:
		v.Banner, v.Tone = "Result: AI-Generated / Deepfake", "error"
	case p == textPanel:
		v.Banner, v.Tone = "Result: Likely Human-Written", "success"
	default:
		v.Banner, v.Tone = "Result: Likely Real / Authentic", "success"
	}
	return v
}

// NewRouter builds the HTTP handler around a shared pipeline.
func NewRouter(p *analysis.Pipeline) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	r.MaxMultipartMemory = maxUploadBytes

	tmpl := template.Must(template.New("").ParseFS(embedFS, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"Title":     "Authentica: Multi-Modal Deepfake Detector",
			"Analyzers": p.RegisteredAnalyzers(),
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "analyzers": p.RegisteredAnalyzers()})
	})

	api := r.Group("/api/analyze")
	api.POST("/text", textHandler(p))
	api.POST("/file", fileHandler(p))
	return r
}

func textHandler(p *analysis.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req textRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please paste some text to analyze."})
			return
		}

		report, err := p.Run(c.Request.Context(), analysis.Source{
			Content: []byte(req.Text),
			Format:  "text",
			ID:      "text",
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, newResultView(report, textPanel))
	}
}

func fileHandler(p *analysis.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a file is required"})
			return
		}
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !allowedExtensions[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file type %q is not accepted", ext)})
			return
		}
		if fh.Size > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}

		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read upload"})
			return
		}
		defer f.Close()
		content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read upload"})
			return
		}

		report, err := p.Run(c.Request.Context(), analysis.Source{
			Content: content,
			Format:  ext,
			ID:      filepath.Base(fh.Filename),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, newResultView(report, filePanel))
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, analysis.ErrNotSupported):
		return http.StatusNotImplemented
	case analysis.IsConfigError(err):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		slog.Error("analysis failed", "status", status, "error", err)
	} else {
		slog.Debug("analysis rejected", "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Serve runs the web server on address until ctx is done, then shuts it down.
func Serve(ctx context.Context, address string, p *analysis.Pipeline) error {
	s := &http.Server{
		Addr:           address,
		Handler:        NewRouter(p),
		ReadTimeout:    serverTimeout,
		WriteTimeout:   serverTimeout,
		MaxHeaderBytes: 1 << maxHeaderBytesLg,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	slog.Info("server started", "address", "http://"+address)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
