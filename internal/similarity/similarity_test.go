package similarity

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"finitefield.org/catalog-client/internal/catalog"
	"finitefield.org/catalog-client/internal/imageref"
)

func encodedImage(t *testing.T, format imaging.Format) []byte {
	t.Helper()
	img := imaging.New(320, 200, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

type searcherFunc func(ctx context.Context, filename, contentType string, data []byte) ([]catalog.Product, error)

func (f searcherFunc) SimilarByImage(ctx context.Context, filename, contentType string, data []byte) ([]catalog.Product, error) {
	return f(ctx, filename, contentType, data)
}

func TestControllerActivateDeactivate(t *testing.T) {
	t.Parallel()

	var updates []catalog.SimilarityState
	c := NewController(func(s catalog.SimilarityState) { updates = append(updates, s) })
	require.False(t, c.State().Active)

	results := []catalog.Product{{ID: "1"}, {ID: "2"}}
	c.Activate(results)
	results[0].ID = "mutated"

	state := c.State()
	require.True(t, state.Active)
	require.Equal(t, "1", state.ResultItems[0].ID)

	c.Deactivate()
	state = c.State()
	require.False(t, state.Active)
	require.NotNil(t, state.ResultItems)
	require.Empty(t, state.ResultItems)
	require.Len(t, updates, 2)
}

func TestUploaderRejectsNonImage(t *testing.T) {
	t.Parallel()

	called := false
	controller := NewController(nil)
	u := NewUploader(searcherFunc(func(context.Context, string, string, []byte) ([]catalog.Product, error) {
		called = true
		return nil, nil
	}), controller, nil)

	err := u.Select("notes.txt", []byte("just some text"))
	require.ErrorIs(t, err, ErrNotImage)
	require.Equal(t, MsgNotImage, u.State().Error)
	require.False(t, u.State().HasFile())

	// A header that sniffs as PNG but does not decode is rejected too.
	err = u.Select("broken.png", []byte("\x89PNG\r\n\x1a\n garbage"))
	require.ErrorIs(t, err, ErrNotImage)

	require.ErrorIs(t, u.FindSimilar(context.Background()), ErrNoFile)
	require.False(t, called)
	require.False(t, controller.State().Active)
}

func TestUploaderBuildsPreview(t *testing.T) {
	t.Parallel()

	u := NewUploader(nil, NewController(nil), nil)
	require.NoError(t, u.Select("shirt.jpg", encodedImage(t, imaging.JPEG)))

	state := u.State()
	require.Equal(t, "shirt.jpg", state.FileName)
	require.Equal(t, "image/jpeg", state.ContentType)
	require.True(t, strings.HasPrefix(state.Preview, "data:image/png;base64,"))
	require.Empty(t, state.Error)

	// A later invalid selection keeps the valid file.
	require.Error(t, u.Select("bad.bin", []byte{0x00, 0x01}))
	state = u.State()
	require.Equal(t, "shirt.jpg", state.FileName)
	require.Equal(t, MsgNotImage, state.Error)
}

func TestUploaderFindSimilarActivatesOnSuccess(t *testing.T) {
	t.Parallel()

	var gotType string
	controller := NewController(nil)
	u := NewUploader(searcherFunc(func(_ context.Context, filename, contentType string, data []byte) ([]catalog.Product, error) {
		gotType = contentType
		return []catalog.Product{{ID: "3", DisplayName: "Summer Floral Dress"}}, nil
	}), controller, nil)

	require.NoError(t, u.Select("dress.png", encodedImage(t, imaging.PNG)))
	require.NoError(t, u.FindSimilar(context.Background()))

	require.Equal(t, "image/png", gotType)
	state := controller.State()
	require.True(t, state.Active)
	require.Len(t, state.ResultItems, 1)
	require.False(t, u.State().Loading)

	u.Clear()
	require.False(t, controller.State().Active)
	require.False(t, u.State().HasFile())
}

func TestUploaderFindSimilarFailureKeepsState(t *testing.T) {
	t.Parallel()

	controller := NewController(nil)
	controller.Activate([]catalog.Product{{ID: "previous"}})
	u := NewUploader(searcherFunc(func(context.Context, string, string, []byte) ([]catalog.Product, error) {
		return nil, errors.New("service down")
	}), controller, nil)

	require.NoError(t, u.Select("dress.gif", encodedImage(t, imaging.GIF)))
	err := u.FindSimilar(context.Background())
	require.Error(t, err)
	require.Equal(t, MsgSearchFailed, u.State().Error)

	state := controller.State()
	require.True(t, state.Active)
	require.Equal(t, "previous", state.ResultItems[0].ID)
}

// blockingSearcher parks every search until release is closed.
func blockingSearcher(started chan<- string, release <-chan struct{}, err error) searcherFunc {
	return func(_ context.Context, filename, _ string, _ []byte) ([]catalog.Product, error) {
		started <- filename
		<-release
		if err != nil {
			return nil, err
		}
		return []catalog.Product{{ID: "stale"}}, nil
	}
}

func TestUploaderClearDropsInFlightSearch(t *testing.T) {
	t.Parallel()

	started := make(chan string, 1)
	release := make(chan struct{})
	controller := NewController(nil)
	u := NewUploader(blockingSearcher(started, release, nil), controller, nil)

	require.NoError(t, u.Select("dress.png", encodedImage(t, imaging.PNG)))
	done := make(chan error, 1)
	go func() { done <- u.FindSimilar(context.Background()) }()
	<-started

	u.Clear()
	close(release)

	require.ErrorIs(t, <-done, ErrSuperseded)
	require.False(t, controller.State().Active)
	require.Equal(t, UploadState{}, u.State())
}

func TestUploaderReselectDropsInFlightFailure(t *testing.T) {
	t.Parallel()

	started := make(chan string, 1)
	release := make(chan struct{})
	controller := NewController(nil)
	u := NewUploader(blockingSearcher(started, release, errors.New("service down")), controller, nil)

	require.NoError(t, u.Select("first.png", encodedImage(t, imaging.PNG)))
	done := make(chan error, 1)
	go func() { done <- u.FindSimilar(context.Background()) }()
	require.Equal(t, "first.png", <-started)

	require.NoError(t, u.Select("second.jpg", encodedImage(t, imaging.JPEG)))
	close(release)

	require.ErrorIs(t, <-done, ErrSuperseded)
	state := u.State()
	require.Equal(t, "second.jpg", state.FileName)
	require.False(t, state.Loading)
	require.Empty(t, state.Error)
	require.False(t, controller.State().Active)
}

type sourceFunc func(ctx context.Context, filePath string) ([]catalog.Product, error)

func (f sourceFunc) Recommendations(ctx context.Context, filePath string) ([]catalog.Product, error) {
	return f(ctx, filePath)
}

func TestRecommenderUsesLocatedPath(t *testing.T) {
	t.Parallel()

	var gotPath string
	r := NewRecommender(sourceFunc(func(_ context.Context, filePath string) ([]catalog.Product, error) {
		gotPath = filePath
		return []catalog.Product{{ID: "55"}}, nil
	}), imageref.NewPrefixLocator(""), nil)

	rec := r.Recommend(context.Background(), catalog.Product{ID: "15970"})
	require.Equal(t, "../images/15970.jpg", gotPath)
	require.False(t, rec.FromDemo)
	require.Empty(t, rec.Warning)
	require.Equal(t, "55", rec.Items[0].ID)
}

func TestRecommenderFallsBackToDemo(t *testing.T) {
	t.Parallel()

	r := NewRecommender(sourceFunc(func(context.Context, string) ([]catalog.Product, error) {
		return nil, errors.New("connection refused")
	}), imageref.NewPrefixLocator(""), nil)

	rec := r.Recommend(context.Background(), catalog.Product{ID: "1"})
	require.True(t, rec.FromDemo)
	require.Equal(t, "Failed to load recommendations: connection refused", rec.Warning)
	require.Len(t, rec.Items, 2)
	require.Equal(t, "Similar White Shirt", rec.Items[0].DisplayName)

	rec = r.Recommend(context.Background(), catalog.Product{})
	require.True(t, rec.FromDemo)
}
