// Package azureblobstore adapts the classic Azure Blob Storage SDK into a
// store.Store. It is one concrete driver among others a deployment could
// plug into the engine; the engine itself never imports it.
//
// The classic SDK predates Azure Blob Index Tags, so FindByTags cannot
// push a filter down to the service the way a tags-capable backend can:
// this driver lists the container and filters on blob Metadata
// client-side. Blob Metadata (like blob tags on newer SDKs) is a flat
// string/string map, which is why tag values must already be in the
// restricted alphabet by the time they reach Put — the same requirement
// a real tag-capable backend would impose.
package azureblobstore

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/url"
	"strings"

	"github.com/Azure/go-autorest/autorest"
	"github.com/Azure/go-autorest/autorest/azure"

	azuremgmt "github.com/Azure/azure-sdk-for-go/services/storage/mgmt/2017-10-01/storage"
	mainStorage "github.com/Azure/azure-sdk-for-go/storage"

	"github.com/goshops-com/StormiDB/internal/tagfilter"
	"github.com/goshops-com/StormiDB/store"
)

// Settings configures how the driver authenticates against the storage
// account, mirroring the classic SDK's own authentication surface.
type Settings struct {
	Authorizer          autorest.Authorizer
	EnvironmentName     string
	SubscriptionID      string
	ResourceGroupName   string
	StorageAccountName  string
	StorageKey          string
	ConnectionString    string
	SASTokenValues      url.Values
	ContainerAccessType string
}

// Store adapts a mainStorage.BlobStorageClient to store.Store. Each
// collection's container is a distinct Azure Blob container.
type Store struct {
	client              mainStorage.BlobStorageClient
	containerAccessType mainStorage.ContainerAccessType
}

// Open authenticates against the storage account described by settings
// and returns a Store.
func Open(ctx context.Context, settings *Settings) (*Store, error) {
	var blobClient mainStorage.BlobStorageClient

	switch {
	case settings.ConnectionString != "":
		sc, err := mainStorage.NewClientFromConnectionString(settings.ConnectionString)
		if err != nil {
			return nil, err
		}
		blobClient = sc.GetBlobService()

	case settings.StorageAccountName != "" && settings.SASTokenValues != nil:
		environment, err := azure.EnvironmentFromName(settings.EnvironmentName)
		if err != nil {
			return nil, fmt.Errorf("azureblobstore: environment %q is invalid", settings.EnvironmentName)
		}
		sc := mainStorage.NewAccountSASClient(settings.StorageAccountName, settings.SASTokenValues, environment)
		blobClient = sc.GetBlobService()

	default:
		if settings.Authorizer == nil {
			return nil, fmt.Errorf("azureblobstore: Settings.Authorizer is not set")
		}
		environment, err := azure.EnvironmentFromName(settings.EnvironmentName)
		if err != nil {
			return nil, fmt.Errorf("azureblobstore: environment %q is invalid", settings.EnvironmentName)
		}
		key := settings.StorageKey
		if key == "" {
			accountClient := azuremgmt.NewAccountsClientWithBaseURI(environment.ResourceManagerEndpoint, settings.SubscriptionID)
			accountClient.Authorizer = settings.Authorizer
			keys, err := accountClient.ListKeys(ctx, settings.ResourceGroupName, settings.StorageAccountName)
			if err != nil {
				return nil, fmt.Errorf("azureblobstore: fetching account key: %w", err)
			}
			if keys.Keys == nil || len(*keys.Keys) == 0 {
				return nil, fmt.Errorf("azureblobstore: storage account %q has no keys", settings.StorageAccountName)
			}
			key = *(*keys.Keys)[0].Value
		}
		sc, err := mainStorage.NewClient(settings.StorageAccountName, key, environment.StorageEndpointSuffix, mainStorage.DefaultAPIVersion, true)
		if err != nil {
			return nil, fmt.Errorf("azureblobstore: creating storage client: %w", err)
		}
		blobClient = sc.GetBlobService()
	}

	return &Store{
		client:              blobClient,
		containerAccessType: mainStorage.ContainerAccessType(settings.ContainerAccessType),
	}, nil
}

func (s *Store) containerRef(name string) *mainStorage.Container {
	return s.client.GetContainerReference(name)
}

func (s *Store) EnsureContainer(ctx context.Context, name string) error {
	_, err := s.containerRef(name).CreateIfNotExists(&mainStorage.CreateContainerOptions{Access: s.containerAccessType})
	return err
}

func (s *Store) Put(ctx context.Context, containerName, name string, data []byte, opts store.PutOptions) (store.Attrs, error) {
	c := s.containerRef(containerName)
	blob := c.GetBlobReference(name)
	meta := mainStorage.BlobMetadata{}
	for k, v := range opts.Tags {
		meta[k] = v
	}
	blob.Metadata = meta

	putOpts := &mainStorage.PutBlobOptions{}
	if opts.IfMatch != "" {
		putOpts.IfMatch = opts.IfMatch
	}
	if opts.IfNoneMatch != "" {
		putOpts.IfNoneMatch = opts.IfNoneMatch
	}

	if err := blob.CreateBlockBlobFromReader(strings.NewReader(string(data)), putOpts); err != nil {
		if isPreconditionFailed(err) {
			return store.Attrs{}, store.ErrPreconditionFailed
		}
		return store.Attrs{}, err
	}
	if err := blob.GetProperties(nil); err != nil {
		return store.Attrs{}, err
	}
	return store.Attrs{ETag: blob.Properties.Etag}, nil
}

func (s *Store) Get(ctx context.Context, containerName, name string) (store.GetResult, error) {
	c := s.containerRef(containerName)
	blob := c.GetBlobReference(name)
	if err := blob.GetProperties(nil); err != nil {
		if isNotFound(err) {
			return store.GetResult{}, store.ErrNotFound
		}
		return store.GetResult{}, err
	}
	rc, err := blob.Get(nil)
	if err != nil {
		return store.GetResult{}, err
	}
	defer rc.Close()
	data, err := ioutil.ReadAll(rc)
	if err != nil {
		return store.GetResult{}, err
	}
	return store.GetResult{Bytes: data, ETag: blob.Properties.Etag}, nil
}

func (s *Store) Exists(ctx context.Context, containerName, name string) (bool, error) {
	return s.containerRef(containerName).GetBlobReference(name).Exists()
}

func (s *Store) Delete(ctx context.Context, containerName, name string) error {
	_, err := s.containerRef(containerName).GetBlobReference(name).DeleteIfExists(nil)
	return err
}

func (s *Store) List(ctx context.Context, containerName string) (store.Iterator, error) {
	c := s.containerRef(containerName)
	resp, err := c.ListBlobs(mainStorage.ListBlobsParameters{Include: &mainStorage.IncludeBlobDataset{Metadata: true}})
	if err != nil {
		return nil, err
	}
	return &blobIterator{blobs: resp.Blobs}, nil
}

// FindByTags lists the container and evaluates expr against each blob's
// Metadata client-side; see the package doc for why this can't be pushed
// server-side on the classic SDK.
func (s *Store) FindByTags(ctx context.Context, containerName, expr string) (store.Iterator, error) {
	c := s.containerRef(containerName)
	resp, err := c.ListBlobs(mainStorage.ListBlobsParameters{Include: &mainStorage.IncludeBlobDataset{Metadata: true}})
	if err != nil {
		return nil, err
	}
	atoms, err := tagfilter.ParseExpr(expr)
	if err != nil {
		return nil, err
	}
	var matched []mainStorage.Blob
	for _, b := range resp.Blobs {
		tags := map[string]string{}
		for k, v := range b.Metadata {
			tags[k] = v
		}
		if tagfilter.Matches(tags, atoms) {
			matched = append(matched, b)
		}
	}
	return &blobIterator{blobs: matched}, nil
}

func (s *Store) DropContainer(ctx context.Context, name string) error {
	_, err := s.containerRef(name).DeleteIfExists(nil)
	return err
}

type blobIterator struct {
	blobs []mainStorage.Blob
	i     int
}

func (it *blobIterator) Next(ctx context.Context) (string, error) {
	if it.i >= len(it.blobs) {
		return "", store.Done
	}
	name := it.blobs[it.i].Name
	it.i++
	return name, nil
}

func (it *blobIterator) Stop() {
	it.i = len(it.blobs)
}

func isNotFound(err error) bool {
	return strings.Contains(err.Error(), "BlobNotFound") || strings.Contains(err.Error(), "404")
}

func isPreconditionFailed(err error) bool {
	return strings.Contains(err.Error(), "ConditionNotMet") || strings.Contains(err.Error(), "412")
}

var _ store.Store = (*Store)(nil)
