package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// Level is the gzip compression level
	Level int
	// MinSize is the smallest first write, in bytes, that gets compressed
	MinSize int
	// ExcludedContentTypes are Content-Type prefixes sent as is
	ExcludedContentTypes []string
}

// DefaultCompressionConfig compresses any JSON or text body of 500 bytes or more
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		Level:                gzip.DefaultCompression,
		MinSize:              500,
		ExcludedContentTypes: []string{"image/", "video/", "audio/"},
	}
}

// Compression gzips responses for clients that accept it, using the default config
func Compression() Middleware {
	return CompressionWithConfig(DefaultCompressionConfig())
}

// CompressionWithConfig gzips responses for clients that send Accept-Encoding: gzip
func CompressionWithConfig(config CompressionConfig) Middleware {
	pool := &sync.Pool{
		New: func() any {
			gz, err := gzip.NewWriterLevel(io.Discard, config.Level)
			if err != nil {
				gz = gzip.NewWriter(io.Discard)
			}
			return gz
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !acceptsGzip(r.Header.Get("Accept-Encoding")) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Accept-Encoding")
			gzw := &gzipResponseWriter{ResponseWriter: w, pool: pool, config: config}
			defer gzw.Close()

			next.ServeHTTP(gzw, r)
		})
	}
}

func acceptsGzip(header string) bool {
	for _, part := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.TrimSpace(coding) != "gzip" && strings.TrimSpace(coding) != "*" {
			continue
		}
		return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
	}
	return false
}

// gzipResponseWriter holds the status back until the first write, when it knows
// whether the body will be compressed
type gzipResponseWriter struct {
	http.ResponseWriter
	pool   *sync.Pool
	config CompressionConfig
	gz     *gzip.Writer

	status  int
	decided bool
}

// WriteHeader records the status; it is sent with the first write
func (gzw *gzipResponseWriter) WriteHeader(statusCode int) {
	if gzw.status == 0 {
		gzw.status = statusCode
	}
}

// Write compresses b when the response qualifies
func (gzw *gzipResponseWriter) Write(b []byte) (int, error) {
	if !gzw.decided {
		gzw.decide(len(b))
	}
	if gzw.gz != nil {
		return gzw.gz.Write(b)
	}
	return gzw.ResponseWriter.Write(b)
}

func (gzw *gzipResponseWriter) decide(size int) {
	gzw.decided = true
	if gzw.status == 0 {
		gzw.status = http.StatusOK
	}

	h := gzw.ResponseWriter.Header()
	if gzw.compressible(size) {
		h.Set("Content-Encoding", "gzip")
		h.Del("Content-Length")
		gzw.gz = gzw.pool.Get().(*gzip.Writer)
		gzw.gz.Reset(gzw.ResponseWriter)
	}
	gzw.ResponseWriter.WriteHeader(gzw.status)
}

func (gzw *gzipResponseWriter) compressible(size int) bool {
	if size < gzw.config.MinSize {
		return false
	}
	if gzw.status == http.StatusNoContent || gzw.status == http.StatusNotModified {
		return false
	}
	h := gzw.ResponseWriter.Header()
	if h.Get("Content-Encoding") != "" {
		return false
	}
	contentType := h.Get("Content-Type")
	for _, excluded := range gzw.config.ExcludedContentTypes {
		if strings.HasPrefix(contentType, excluded) {
			return false
		}
	}
	return true
}

// Close sends a status that was set without a body and flushes the gzip stream
func (gzw *gzipResponseWriter) Close() error {
	if !gzw.decided && gzw.status != 0 {
		gzw.decided = true
		gzw.ResponseWriter.WriteHeader(gzw.status)
	}
	if gzw.gz == nil {
		return nil
	}
	err := gzw.gz.Close()
	gzw.pool.Put(gzw.gz)
	gzw.gz = nil
	return err
}
