package recommend

import (
	"fmt"
	"log/slog"
)

// Handle is the process-wide owner of the index. A Handle built from a
// missing or broken artifact stays unavailable for its whole lifetime.
type Handle struct {
	index *Index
	cause error
}

// NewHandle wraps an already loaded index.
func NewHandle(idx *Index) *Handle {
	if idx == nil {
		return Unavailable(fmt.Errorf("nil index"))
	}
	return &Handle{index: idx}
}

// Unavailable returns a handle that reports ErrUnavailable with cause.
func Unavailable(cause error) *Handle {
	return &Handle{cause: cause}
}

// Open loads the artifact at path. Failures are logged and produce an
// unavailable handle rather than an error, so the rest of the service can
// start without a model.
func Open(path string, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		logger.Warn("no recommendation artifact configured; /recommend disabled")
		return Unavailable(fmt.Errorf("no artifact path configured"))
	}
	idx, err := LoadFile(path)
	if err != nil {
		logger.Error("failed to load recommendation artifact; /recommend disabled",
			"path", path, "error", err)
		return Unavailable(err)
	}
	logger.Info("recommendation artifact loaded", "path", path, "labels", idx.Len())
	return NewHandle(idx)
}

// Index returns the loaded index or an error wrapping ErrUnavailable.
func (h *Handle) Index() (*Index, error) {
	if h == nil || h.index == nil {
		return nil, ErrUnavailable
	}
	return h.index, nil
}

// Available reports whether an index is loaded.
func (h *Handle) Available() bool {
	return h != nil && h.index != nil
}

// Cause returns the load error for an unavailable handle.
func (h *Handle) Cause() error {
	if h == nil {
		return ErrUnavailable
	}
	return h.cause
}
