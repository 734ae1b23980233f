package core

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func newBufferLogger() (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := &Logger{Logger: slog.New(slog.NewTextHandler(buf, nil))}
	return logger, buf
}

func TestForFeatureAddsAttribute(t *testing.T) {
	logger, buf := newBufferLogger()

	logger.ForFeature("tenders").Info("hello")

	if !strings.Contains(buf.String(), "feature=tenders") {
		t.Errorf("Expected the feature attribute in output, got %q", buf.String())
	}
}

func TestWithSourceAddsAttribute(t *testing.T) {
	logger, buf := newBufferLogger()

	logger.WithSource("etenders").Info("run started")

	if !strings.Contains(buf.String(), "source=etenders") {
		t.Errorf("Expected the source attribute in output, got %q", buf.String())
	}
}

func TestForFeatureConcurrent(t *testing.T) {
	logger, buf := newBufferLogger()

	// Features initialize and log from their own goroutines
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			child := logger.ForFeature(fmt.Sprintf("feature-%d", n))
			for j := 0; j < 4; j++ {
				child.Info("event", "iteration", j)
			}
		}(i)
	}
	wg.Wait()

	if lines := strings.Count(buf.String(), "\n"); lines != 32 {
		t.Errorf("Expected 32 log lines, got %d", lines)
	}
}
