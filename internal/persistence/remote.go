package persistence

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/services"
	"github.com/desertthunder/bookshelf/internal/shared"
)

// DataPath is the persistence server endpoint for the whole document.
const DataPath = "/api/data"

// RemoteGateway stores the document on a persistence server.
type RemoteGateway struct {
	api *services.APIService
}

// NewRemoteGateway creates a gateway for the server at baseURL.
func NewRemoteGateway(baseURL string, client *http.Client) *RemoteGateway {
	return &RemoteGateway{api: services.NewAPIService(baseURL, client)}
}

func (g *RemoteGateway) Name() string { return BackendRemote }

// Load calls GET /api/data.
func (g *RemoteGateway) Load(ctx context.Context) (*models.Document, error) {
	resp, err := g.api.Get(ctx, DataPath)
	if err != nil {
		return nil, &shared.PersistenceError{Op: "load", Backend: BackendRemote, Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if !resp.OK() {
		return nil, &shared.PersistenceError{
			Op:      "load",
			Backend: BackendRemote,
			Err:     fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode),
		}
	}
	return decode(BackendRemote, resp.Body)
}

// Save calls POST /api/data with the whole document.
func (g *RemoteGateway) Save(ctx context.Context, doc *models.Document) error {
	data, err := encode(BackendRemote, doc)
	if err != nil {
		return err
	}

	resp, err := g.api.UploadJSON(ctx, DataPath, data)
	if err != nil {
		return &shared.PersistenceError{Op: "save", Backend: BackendRemote, Err: err}
	}
	if !resp.OK() {
		return &shared.PersistenceError{
			Op:      "save",
			Backend: BackendRemote,
			Err:     fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode),
		}
	}
	return nil
}
