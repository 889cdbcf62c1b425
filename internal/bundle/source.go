// Package bundle loads the data bundle a dashboard page renders from.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/model"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/storage"
	"github.com/MarkoPoloResearchLab/learner_dashboard/internal/transport"
)

const (
	// DefaultEndpointPattern is the upstream bundle path; %s is the escaped learner id.
	DefaultEndpointPattern = "/api/learner_dashboard/%s/bundle"

	learnerPlaceholder = "{learner}"

	errorMessageOpenFile    = "bundle: open file"
	errorMessageMissingPath = "bundle: missing file path"
	errorMessageFetch       = "bundle: fetch"
	errorMessageNotFound    = "bundle: learner not found"
)

var (
	// ErrMissingPath indicates a file source without a path.
	ErrMissingPath = errors.New(errorMessageMissingPath)
	// ErrLearnerNotFound indicates that the source holds no bundle for the
	// learner: a missing file, an upstream 404 or a learner never imported.
	ErrLearnerNotFound = errors.New(errorMessageNotFound)
)

// Source loads the bundle of one learner.
type Source interface {
	Load(ctx context.Context, learnerID string) (model.Bundle, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, learnerID string) (model.Bundle, error)

// Load calls sourceFunc.
func (sourceFunc SourceFunc) Load(ctx context.Context, learnerID string) (model.Bundle, error) {
	return sourceFunc(ctx, learnerID)
}

// FileSource reads a bundle JSON document from disk. A path containing
// {learner} is expanded per learner.
type FileSource struct {
	path string
}

// NewFileSource reads from path, which may contain {learner}.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: strings.TrimSpace(path)}
}

// Load opens and decodes the learner's bundle file.
func (source *FileSource) Load(_ context.Context, learnerID string) (model.Bundle, error) {
	if source.path == "" {
		return model.Bundle{}, ErrMissingPath
	}
	path := strings.ReplaceAll(source.path, learnerPlaceholder, filepath.Base(strings.TrimSpace(learnerID)))
	file, openErr := os.Open(path)
	if openErr != nil {
		if errors.Is(openErr, fs.ErrNotExist) {
			return model.Bundle{}, fmt.Errorf("%w: %s: %w", ErrLearnerNotFound, path, openErr)
		}
		return model.Bundle{}, fmt.Errorf("%s %s: %w", errorMessageOpenFile, path, openErr)
	}
	defer func() {
		_ = file.Close()
	}()
	return model.DecodeBundle(file)
}

type bundleFetcher interface {
	GetJSON(ctx context.Context, target string, out any, options ...transport.RequestOption) error
}

// HTTPSource fetches the bundle through the shared request transport, so a
// failed fetch is reported by the failure notifier.
type HTTPSource struct {
	fetcher         bundleFetcher
	endpointPattern string
}

// NewHTTPSource fetches from endpointPattern, DefaultEndpointPattern when empty.
func NewHTTPSource(fetcher bundleFetcher, endpointPattern string) *HTTPSource {
	if strings.TrimSpace(endpointPattern) == "" {
		endpointPattern = DefaultEndpointPattern
	}
	return &HTTPSource{fetcher: fetcher, endpointPattern: endpointPattern}
}

// Load fetches the learner's bundle. An upstream 404 is ErrLearnerNotFound.
func (source *HTTPSource) Load(ctx context.Context, learnerID string) (model.Bundle, error) {
	target := source.endpointPattern
	if strings.Contains(target, "%s") {
		target = fmt.Sprintf(target, url.PathEscape(strings.TrimSpace(learnerID)))
	}
	var bundle model.Bundle
	if fetchErr := source.fetcher.GetJSON(ctx, target, &bundle); fetchErr != nil {
		var requestError *transport.RequestError
		if errors.As(fetchErr, &requestError) && requestError.StatusCode == http.StatusNotFound {
			return model.Bundle{}, fmt.Errorf("%w: %w", ErrLearnerNotFound, fetchErr)
		}
		return model.Bundle{}, fmt.Errorf("%s: %w", errorMessageFetch, fetchErr)
	}
	return bundle, nil
}

type bundleLoader interface {
	LoadBundle(ctx context.Context, learnerID string) (model.Bundle, error)
}

// StoreSource reads bundles imported into the local store.
type StoreSource struct {
	loader bundleLoader
}

// NewStoreSource reads through loader, usually a *storage.Store.
func NewStoreSource(loader bundleLoader) *StoreSource {
	return &StoreSource{loader: loader}
}

// Load reads the imported bundle of learnerID.
func (source *StoreSource) Load(ctx context.Context, learnerID string) (model.Bundle, error) {
	loaded, loadErr := source.loader.LoadBundle(ctx, learnerID)
	if errors.Is(loadErr, storage.ErrLearnerNotFound) {
		return model.Bundle{}, fmt.Errorf("%w: %w", ErrLearnerNotFound, loadErr)
	}
	return loaded, loadErr
}
