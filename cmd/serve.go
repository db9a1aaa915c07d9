package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/claimguru/extract-cli/internal/extract"
	"github.com/claimguru/extract-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP extraction server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		r.Post("/extract", func(w http.ResponseWriter, req *http.Request) {
			handleExtract(env, w, req)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// handleExtract accepts a multipart upload: "document" file part plus
// "organization_id" and optional "method" fields.
func handleExtract(env *pipelineEnv, w http.ResponseWriter, req *http.Request) {
	if err := req.ParseMultipartForm(cfg.Extraction.MaxUploadBytes); err != nil {
		httpError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	orgID := req.FormValue("organization_id")
	if orgID == "" {
		httpError(w, http.StatusBadRequest, "organization_id is required")
		return
	}

	method := model.Method(req.FormValue("method"))
	if method == "" {
		method = model.MethodAuto
	}
	if !method.Valid() {
		httpError(w, http.StatusBadRequest, "unknown method")
		return
	}

	file, header, err := req.FormFile("document")
	if err != nil {
		httpError(w, http.StatusBadRequest, "document file is required")
		return
	}
	defer file.Close()

	doc, err := io.ReadAll(file)
	if err != nil {
		httpError(w, http.StatusBadRequest, "could not read document")
		return
	}

	if _, err := env.Gate.Check(doc, header.Filename); err != nil {
		httpError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	result, err := env.Orchestrator.Process(req.Context(), &model.ExtractionRequest{
		Document:       doc,
		FileName:       header.Filename,
		OrganizationID: orgID,
		Method:         method,
	})
	if err != nil {
		status := http.StatusBadGateway
		if extract.IsConfiguration(err) {
			status = http.StatusServiceUnavailable
		}
		if extract.IsParseFailure(err) {
			status = http.StatusUnprocessableEntity
		}
		zap.L().Error("extraction request failed",
			zap.String("org", orgID),
			zap.String("file", header.Filename),
			zap.Error(err),
		)
		httpError(w, status, "extraction failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
