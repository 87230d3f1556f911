package uploader

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type modelUploader interface {
	Upload(ctx context.Context, ggufFile string) error
}

// NewServer creates a new server instance.
func NewServer(u modelUploader, logger logr.Logger) *Server {
	const queueLength = 5
	return &Server{
		u:        u,
		logger:   logger.WithName("daemon"),
		uploadCh: make(chan string, queueLength),
		uploaded: make(map[string]bool),
		ready:    make(chan struct{}),
	}
}

// Server queues upload requests and processes them one at a time. The upload
// itself stays strictly sequential; only the request intake is asynchronous.
type Server struct {
	u      modelUploader
	logger logr.Logger

	uploadCh chan string
	uploaded map[string]bool
	mu       sync.Mutex

	srv   *http.Server
	ready chan struct{}
}

// Start starts an HTTP server that listens for upload requests.
func (s *Server) Start(port int) error {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	return s.start(l)
}

func (s *Server) start(listener net.Listener) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Unsupported method", http.StatusMethodNotAllowed)
			return
		}
		var req uploadModelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.logger.Error(err, "Failed to decode the request")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.GGUFFile == "" {
			http.Error(w, "GGUF file must be set", http.StatusBadRequest)
			return
		}
		select {
		case s.uploadCh <- req.GGUFFile:
			w.WriteHeader(http.StatusAccepted)
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	})

	mux.HandleFunc("/models/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Unsupported method", http.StatusMethodNotAllowed)
			return
		}

		// Extract the file name from the path "/models/{ggufFile}"
		ggufFile := strings.TrimPrefix(r.URL.Path, "/models/")
		if ggufFile == "" {
			http.Error(w, "GGUF file must be set", http.StatusBadRequest)
			return
		}

		if !s.isUploaded(ggufFile) {
			http.Error(w, "Model not uploaded", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:    listener.Addr().String(),
		Handler: mux,
	}
	close(s.ready)

	s.logger.Info("Starting HTTP server", "addr", s.srv.Addr)
	if err := s.srv.Serve(listener); err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) shutdown(ctx context.Context) error {
	<-s.ready
	return s.srv.Shutdown(ctx)
}

// ProcessUploadRequests processes queued upload requests one at a time.
func (s *Server) ProcessUploadRequests(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ggufFile := <-s.uploadCh:
			if err := s.u.Upload(ctx, ggufFile); err != nil {
				return fmt.Errorf("upload the model: %s", err)
			}
			s.markUploaded(ggufFile)
		}
	}
}

// QueueUploadRequest queues an upload request for the given GGUF file.
func (s *Server) QueueUploadRequest(ggufFile string) {
	s.uploadCh <- ggufFile
}

func (s *Server) markUploaded(ggufFile string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded[ggufFile] = true
}

func (s *Server) isUploaded(ggufFile string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploaded[ggufFile]
}
