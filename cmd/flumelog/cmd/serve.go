package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var servePort int

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the metrics and health HTTP server",
	Long: `Start a small HTTP server exposing /metrics (Prometheus) and
/healthz (liveness) only. There is no KV or REST surface here — network
access to the log and projector is out of scope; this server exists
purely for operating the process.

Example:
  flumelog serve --port 9090`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer(servePort)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 9090, "Port to listen on")
}

func startServer(port int) {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handleHealthz)

	addr := fmt.Sprintf(":%d", port)
	fmt.Printf("Starting flumelog metrics server on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
