package deviceimage

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// progressWriter wraps an io.Writer, logging periodic throughput reports.
// Sized for the multi-gigabyte image copies a field updater would perform;
// xz-compressing a 32MB decoder image finishes fast enough that the
// reporting here is mostly informational, but the shape carries over
// unchanged for larger artifact sets.
type progressWriter struct {
	io.Writer
	written        int64
	logger         *slog.Logger
	reportInterval time.Duration
	lastReport     time.Time
	lastWritten    int64
}

func newProgressWriter(w io.Writer, logger *slog.Logger) *progressWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &progressWriter{
		Writer:         w,
		logger:         logger,
		reportInterval: time.Second,
		lastReport:     time.Now(),
	}
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.written += int64(n)

	if time.Since(pw.lastReport) >= pw.reportInterval {
		pw.report()
		pw.lastReport = time.Now()
		pw.lastWritten = pw.written
	}
	return n, err
}

func (pw *progressWriter) report() {
	elapsed := time.Since(pw.lastReport)
	sinceLast := pw.written - pw.lastWritten

	speed := "N/A"
	if elapsed.Seconds() > 0 {
		speed = humanBytes(int64(float64(sinceLast)/elapsed.Seconds())) + "/s"
	}

	pw.logger.Info(fmt.Sprintf("deviceimage: packaging progress: %s written, %s", humanBytes(pw.written), speed))
}

func humanBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
