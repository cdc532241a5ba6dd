package similarity

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	_ "github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"finitefield.org/catalog-client/internal/catalog"
	"finitefield.org/catalog-client/internal/platform/observability"
)

const (
	// MsgNotImage is shown when the selected file is not an image.
	MsgNotImage = "Please upload an image file"
	// MsgSearchFailed is shown when the similarity service cannot answer.
	MsgSearchFailed = "Failed to find similar images. Please try again."
	// MsgNoFile is shown when a search is requested before a file was selected.
	MsgNoFile = "Please select an image first"

	previewSize = 160
)

var (
	// ErrNotImage is returned by Select for payloads that are not decodable images.
	ErrNotImage = errors.New("similarity: not an image")
	// ErrNoFile is returned by FindSimilar when no file is selected.
	ErrNoFile = errors.New("similarity: no image selected")
	// ErrSuperseded is returned by FindSimilar when the selection changed or was cleared
	// while the search was in flight. Its results are dropped.
	ErrSuperseded = errors.New("similarity: selection changed during search")
)

var acceptedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// Searcher finds products similar to an uploaded image.
type Searcher interface {
	SimilarByImage(ctx context.Context, filename, contentType string, data []byte) ([]catalog.Product, error)
}

// UploadState is the uploader's own UI state.
type UploadState struct {
	FileName    string
	ContentType string
	Preview     string
	Loading     bool
	Error       string
}

// HasFile reports whether an image is selected.
func (s UploadState) HasFile() bool {
	return s.FileName != ""
}

// Uploader validates a selected image, builds its preview and requests similar products.
// Results are handed to the Controller only on success.
type Uploader struct {
	searcher   Searcher
	controller *Controller
	logger     *zap.Logger

	mu    sync.Mutex
	state UploadState
	data  []byte
	// gen counts selections and clears; a search only lands if it is unchanged.
	gen uint64
}

// NewUploader wires an uploader to the similarity service and controller.
func NewUploader(searcher Searcher, controller *Controller, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{
		searcher:   searcher,
		controller: controller,
		logger:     logger.Named("uploader"),
	}
}

// State returns a snapshot of the upload state.
func (u *Uploader) State() UploadState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Select validates and stores a file. A non-image keeps the previous selection and only
// sets the inline error.
func (u *Uploader) Select(name string, data []byte) error {
	contentType, preview, err := inspect(data)
	if err != nil {
		u.logger.Info("rejected upload",
			zap.String("file", observability.SanitizeFilename(name)),
			zap.Error(err),
		)
		u.mu.Lock()
		u.state.Error = MsgNotImage
		u.mu.Unlock()
		return err
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	u.mu.Lock()
	u.gen++
	u.data = buf
	u.state = UploadState{
		FileName:    strings.TrimSpace(name),
		ContentType: contentType,
		Preview:     preview,
	}
	u.mu.Unlock()
	return nil
}

// FindSimilar sends the selected image to the similarity service. On success the results
// activate similarity mode; on failure only the inline error changes.
func (u *Uploader) FindSimilar(ctx context.Context) error {
	u.mu.Lock()
	if !u.state.HasFile() {
		u.state.Error = MsgNoFile
		u.mu.Unlock()
		return ErrNoFile
	}
	if u.state.Loading {
		u.mu.Unlock()
		return errors.New("similarity: search already in progress")
	}
	u.state.Loading = true
	u.state.Error = ""
	name, contentType, data, gen := u.state.FileName, u.state.ContentType, u.data, u.gen
	u.mu.Unlock()

	results, err := u.searcher.SimilarByImage(ctx, name, contentType, data)

	u.mu.Lock()
	defer u.mu.Unlock()
	if gen != u.gen {
		u.logger.Debug("dropping similarity results for a replaced selection",
			zap.String("file", observability.SanitizeFilename(name)),
		)
		return ErrSuperseded
	}
	u.state.Loading = false
	if err != nil {
		u.state.Error = MsgSearchFailed
		u.logger.Warn("similarity search failed",
			zap.String("file", observability.SanitizeFilename(name)),
			zap.Error(err),
		)
		return fmt.Errorf("similarity: find similar: %w", err)
	}

	u.logger.Debug("similarity search succeeded", zap.Int("results", len(results)))
	// Activated under u.mu so a concurrent Clear cannot slip in between the check and
	// the activation.
	u.controller.Activate(results)
	return nil
}

// Clear drops the selected file and returns to catalog browsing.
func (u *Uploader) Clear() {
	u.mu.Lock()
	u.gen++
	u.state = UploadState{}
	u.data = nil
	u.mu.Unlock()
	u.controller.Deactivate()
}

// inspect sniffs and decodes the payload, returning its content type and a PNG thumbnail
// data URL.
func inspect(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: empty file", ErrNotImage)
	}
	contentType := http.DetectContentType(data)
	if _, ok := acceptedTypes[contentType]; !ok {
		return "", "", fmt.Errorf("%w: detected %s", ErrNotImage, contentType)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	thumb := imaging.Fit(img, previewSize, previewSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return "", "", fmt.Errorf("similarity: encode preview: %w", err)
	}
	return contentType, "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
