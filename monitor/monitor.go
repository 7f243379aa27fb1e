// Package monitor exposes the application log to administrators.
package monitor

import (
	"bufio"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"eteeap-portfolio-api/config"
)

const (
	defaultTailLines = 200
	maxTailLines     = 5000
)

// TailLogs returns the last ?lines= lines of the log file as plain text.
func TailLogs(c *gin.Context) {
	n := defaultTailLines
	if v, err := strconv.Atoi(c.Query("lines")); err == nil && v > 0 {
		n = v
	}
	if n > maxTailLines {
		n = maxTailLines
	}

	f, err := os.Open(config.LogFilePath())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Unable to read log"})
		return
	}
	defer f.Close()

	lines, err := Tail(f, n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Unable to read log"})
		return
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/plain; charset=utf-8")
	for _, line := range lines {
		_, _ = c.Writer.WriteString(line + "\n")
	}
}

// Tail returns at most n trailing lines of r.
func Tail(r io.Reader, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	ring := make([]string, 0, n)
	start := 0

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(ring) < n {
			ring = append(ring, sc.Text())
			continue
		}
		ring[start] = sc.Text()
		start = (start + 1) % n
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scan log")
	}
	return append(ring[start:], ring[:start]...), nil
}
