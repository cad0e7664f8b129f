package middlewares

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/Cubeship/internal/misc"
)

type bodyBufferWriter struct {
	gin.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *bodyBufferWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *bodyBufferWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *bodyBufferWriter) WriteHeader(code int) {
	w.status = code
}

// HashSHA256 verifies the signature of non-empty request bodies and signs responses.
// With an empty key it is a no-op. With a key, a non-empty body without a signature is rejected.
func HashSHA256(key string) gin.HandlerFunc {
	key = strings.TrimSpace(key)
	if key == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		bw := &bodyBufferWriter{ResponseWriter: c.Writer}
		c.Writer = bw

		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			reqBody, err := io.ReadAll(c.Request.Body)
			switch {
			case err != nil:
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
			case len(reqBody) > 0 && !misc.VerifySHA256(reqBody, key, c.GetHeader(misc.HashHeader)):
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid hash"})
			}
			if err := c.Request.Body.Close(); err != nil {
				_ = c.Error(err)
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		if !c.IsAborted() {
			c.Next()
		}

		if bw.body.Len() > 0 {
			c.Header(misc.HashHeader, misc.SumSHA256(bw.body.Bytes(), key))
		}

		status := bw.status
		if status == 0 {
			status = http.StatusOK
		}

		c.Writer = bw.ResponseWriter
		c.Writer.WriteHeader(status)
		if _, err := c.Writer.Write(bw.body.Bytes()); err != nil {
			_ = c.Error(err)
		}
	}
}
