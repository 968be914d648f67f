package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/HunRotation/umato/pkg/cache"
	apperrors "github.com/HunRotation/umato/pkg/errors"
	"github.com/HunRotation/umato/pkg/observability"
	"github.com/HunRotation/umato/pkg/render"
	"github.com/HunRotation/umato/pkg/store"
)

// =============================================================================
// Serve Command
// =============================================================================

// serveFlags collects the flags of the serve command.
type serveFlags struct {
	addr     string
	storeDir string
	mongoURI string
	mongoDB  string
}

func (c *CLI) serveCommand() *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs and rendered scatter plots over HTTP",
		Long: `Serve exposes persisted embedding runs through a small JSON API. Runs come
from the local file store by default, or from MongoDB when --mongo is set so
multiple replicas can share one archive.

Endpoints:
  GET    /healthz              liveness probe
  GET    /api/runs             list run summaries
  GET    /api/runs/{id}        full run (options, embedding, costs)
  DELETE /api/runs/{id}        remove a run
  GET    /api/runs/{id}/svg    scatter plot of the embedding
  GET    /api/runs/{id}/png    scatter plot of the embedding`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&flags.storeDir, "store-dir", "", "run store directory")
	cmd.Flags().StringVar(&flags.mongoURI, "mongo", "", "MongoDB connection URI (replaces the file store)")
	cmd.Flags().StringVar(&flags.mongoDB, "mongo-db", "umato", "MongoDB database name")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, flags *serveFlags) error {
	st, err := c.openServeStore(ctx, flags)
	if err != nil {
		return err
	}
	defer st.Close()

	cch, err := c.newCache(ctx, false, "")
	if err != nil {
		return err
	}
	defer cch.Close()

	srv := &http.Server{
		Addr:              flags.addr,
		Handler:           newServeHandler(st, cch),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	c.Logger.Info("serving runs", "addr", flags.addr)
	printInfo("listening on %s", flags.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (c *CLI) openServeStore(ctx context.Context, flags *serveFlags) (store.Store, error) {
	if flags.mongoURI != "" {
		return store.NewMongoStore(ctx, flags.mongoURI, flags.mongoDB)
	}
	return newStore(flags.storeDir)
}

// =============================================================================
// HTTP Handler
// =============================================================================

// newServeHandler builds the run API router. Separated from the command so
// handlers are testable with httptest. Rendered plots are cached in cch
// under artifact keys; pass a NullCache to disable.
func newServeHandler(st store.Store, cch cache.Cache) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/runs", func(r chi.Router) {
		r.Get("/", listRunsHandler(st))
		r.Get("/{id}", getRunHandler(st))
		r.Delete("/{id}", deleteRunHandler(st))
		r.Get("/{id}/svg", plotRunHandler(st, cch, "svg"))
		r.Get("/{id}/png", plotRunHandler(st, cch, "png"))
	})

	return r
}

func listRunsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := st.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if runs == nil {
			runs = []store.Summary{}
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

func getRunHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := st.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

func deleteRunHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func plotRunHandler(st store.Store, cch cache.Cache, format string) http.HandlerFunc {
	keyer := cache.NewDefaultKeyer()

	return func(w http.ResponseWriter, r *http.Request) {
		run, err := st.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}

		var contentType string
		switch format {
		case "svg":
			contentType = "image/svg+xml"
		case "png":
			contentType = "image/png"
		default:
			writeError(w, apperrors.New(apperrors.ErrCodeUnsupported, "unsupported plot format %q", format))
			return
		}

		// Plots are keyed on the rendered content (coordinates plus label
		// colors), not the run ID, so re-saved runs with identical
		// embeddings share one artifact.
		opts := render.DefaultOptions()
		plotted := struct {
			Embedding [][]float64 `json:"embedding"`
			Labels    []int       `json:"labels,omitempty"`
		}{run.Embedding, run.Labels}

		var key string
		if data, err := json.Marshal(plotted); err == nil {
			key = keyer.ArtifactKey(cache.Hash(data), cache.ArtifactKeyOpts{
				Format:    format,
				Width:     opts.Width,
				Height:    opts.Height,
				PointSize: opts.PointSize,
			})
			if img, hit, err := cch.Get(r.Context(), key); err == nil && hit {
				observability.Cache().OnCacheHit(r.Context(), "artifact")
				w.Header().Set("Content-Type", contentType)
				w.WriteHeader(http.StatusOK)
				w.Write(img)
				return
			}
			observability.Cache().OnCacheMiss(r.Context(), "artifact")
		}

		var img []byte
		if format == "svg" {
			img, err = render.RenderSVG(run.Embedding, run.Labels, opts)
		} else {
			img, err = render.RenderPNG(run.Embedding, run.Labels, opts)
		}
		if err != nil {
			writeError(w, err)
			return
		}

		if key != "" {
			if err := cch.Set(r.Context(), key, img, cache.TTLArtifact); err == nil {
				observability.Cache().OnCacheSet(r.Context(), "artifact", len(img))
			}
		}

		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		w.Write(img)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps structured error codes to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeRunNotFound, apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidShape, apperrors.ErrCodeUnsupported:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{
		"error": apperrors.UserMessage(err),
		"code":  string(apperrors.GetCode(err)),
	})
}
