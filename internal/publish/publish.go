// Package publish uploads verdicts and result artifacts to Azure Blob Storage
// so dashboards and later runs can find them.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/benchgate/benchgate/internal/models"
)

// ConnectionStringEnv, when set, takes precedence over token credentials.
const ConnectionStringEnv = "AZURE_STORAGE_CONNECTION_STRING"

// ErrNotConfigured is returned when neither an account URL nor a connection
// string is available.
var ErrNotConfigured = errors.New("blob publishing is not configured")

// uploader is the subset of *azblob.Client used here.
type uploader interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// Publisher writes blobs under <prefix>/<suite>/<mode>/<run id>/.
type Publisher struct {
	client    uploader
	container string
	prefix    string
}

// New builds a Publisher. A connection string in the environment wins;
// otherwise accountURL is used with the default Azure credential chain.
func New(accountURL, container, prefix string) (*Publisher, error) {
	if container == "" {
		return nil, fmt.Errorf("%w: container name is required", models.ErrInvalidInput)
	}

	var (
		client *azblob.Client
		err    error
	)
	if conn := os.Getenv(ConnectionStringEnv); conn != "" {
		client, err = azblob.NewClientFromConnectionString(conn, nil)
		if err != nil {
			return nil, fmt.Errorf("creating blob client from connection string: %w", err)
		}
	} else {
		if accountURL == "" {
			return nil, fmt.Errorf("%w: set publish.account_url or %s", ErrNotConfigured, ConnectionStringEnv)
		}
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("creating azure credential: %w", err)
		}
		client, err = azblob.NewClient(accountURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("creating blob client: %w", err)
		}
	}
	return newPublisher(client, container, prefix), nil
}

func newPublisher(client uploader, container, prefix string) *Publisher {
	return &Publisher{client: client, container: container, prefix: strings.Trim(prefix, "/")}
}

// BlobName returns the blob path a file for v is stored under.
func (p *Publisher) BlobName(v *models.Verdict, name string) string {
	suite := v.Suite
	if suite == "" {
		suite = "default"
	}
	return path.Join(p.prefix, suite, string(v.Mode), v.RunID, name)
}

// Upload stores data under blobName.
func (p *Publisher) Upload(ctx context.Context, blobName string, data []byte, metadata map[string]string) error {
	opts := &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType(blobName))},
	}
	if len(metadata) > 0 {
		opts.Metadata = make(map[string]*string, len(metadata))
		for k, val := range metadata {
			opts.Metadata[k] = to.Ptr(val)
		}
	}
	if _, err := p.client.UploadBuffer(ctx, p.container, blobName, data, opts); err != nil {
		return fmt.Errorf("uploading %s: %w", blobName, err)
	}
	slog.Debug("Uploaded blob", "container", p.container, "blob", blobName, "bytes", len(data))
	return nil
}

// PublishVerdict uploads verdict.json and every file in files next to it.
// It returns the uploaded blob names in upload order.
func (p *Publisher) PublishVerdict(ctx context.Context, v *models.Verdict, files []string) ([]string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling verdict: %w", err)
	}

	meta := map[string]string{
		"run_id":  v.RunID,
		"mode":    string(v.Mode),
		"overall": string(v.Overall),
	}
	if v.Suite != "" {
		meta["suite"] = v.Suite
	}

	name := p.BlobName(v, "verdict.json")
	if err := p.Upload(ctx, name, data, meta); err != nil {
		return nil, err
	}
	uploaded := []string{name}

	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			return uploaded, fmt.Errorf("reading %s: %w", f, err)
		}
		name := p.BlobName(v, filepath.Base(f))
		if err := p.Upload(ctx, name, content, meta); err != nil {
			return uploaded, err
		}
		uploaded = append(uploaded, name)
	}
	return uploaded, nil
}

func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	case strings.HasSuffix(name, ".csv"):
		return "text/csv"
	case strings.HasSuffix(name, ".xml"):
		return "application/xml"
	case strings.HasSuffix(name, ".html"):
		return "text/html; charset=utf-8"
	case strings.HasSuffix(name, ".md"), strings.HasSuffix(name, ".txt"), strings.HasSuffix(name, ".prom"):
		return "text/plain; charset=utf-8"
	case strings.HasSuffix(name, ".gz"):
		return "application/gzip"
	case strings.HasSuffix(name, ".zst"):
		return "application/zstd"
	}
	return "application/octet-stream"
}
