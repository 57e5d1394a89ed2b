// Package docsource loads statement documents from local paths or Google
// Cloud Storage URIs.
package docsource

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"google.golang.org/api/iterator"
)

const gcsScheme = "gs://"

// Loader reads documents by location.
type Loader struct {
	fetchGCS func(ctx context.Context, bucket, object string) ([]byte, error)
	listGCS  func(ctx context.Context, bucket, prefix string) ([]string, error)
}

func NewLoader() *Loader {
	return &Loader{fetchGCS: downloadFile, listGCS: listObjects}
}

// Expand turns a location into the documents it names. A gs://bucket/prefix/
// URI lists every .pdf object under the prefix; anything else is returned
// as is.
func (l *Loader) Expand(ctx context.Context, location string) ([]string, error) {
	if !IsGCSURI(location) || !strings.HasSuffix(location, "/") {
		return []string{location}, nil
	}
	bucket, prefix, _ := strings.Cut(strings.TrimPrefix(location, gcsScheme), "/")
	if bucket == "" {
		return nil, fmt.Errorf("GCS URI %q has no bucket", location)
	}

	objects, err := l.listGCS(ctx, bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", location, err)
	}
	var out []string
	for _, name := range objects {
		if strings.EqualFold(path.Ext(name), ".pdf") {
			out = append(out, gcsScheme+bucket+"/"+name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no PDF objects under %s", location)
	}
	return out, nil
}

// Load returns the document at location, which is either a local path or a
// gs://bucket/object URI.
func (l *Loader) Load(ctx context.Context, location string) (models.Document, error) {
	if IsGCSURI(location) {
		bucket, object, err := ParseGCSURI(location)
		if err != nil {
			return models.Document{}, err
		}
		data, err := l.fetchGCS(ctx, bucket, object)
		if err != nil {
			return models.Document{}, fmt.Errorf("fetch %s: %w", location, err)
		}
		return models.Document{Data: data, Filename: path.Base(object)}, nil
	}

	data, err := os.ReadFile(location)
	if err != nil {
		return models.Document{}, fmt.Errorf("read %q: %w", location, err)
	}
	return models.Document{Data: data, Filename: filepath.Base(location)}, nil
}

func IsGCSURI(s string) bool {
	return strings.HasPrefix(s, gcsScheme)
}

// ParseGCSURI splits gs://bucket/path/to/object.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, gcsScheme)
	if !ok {
		return "", "", fmt.Errorf("not a GCS URI: %q", uri)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" || strings.HasSuffix(object, "/") {
		return "", "", fmt.Errorf("GCS URI %q must look like gs://bucket/object", uri)
	}
	return bucket, object, nil
}

func downloadFile(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}
	return data, nil
}

func listObjects(ctx context.Context, bucketName, prefix string) ([]string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	var names []string
	it := client.Bucket(bucketName).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate objects: %w", err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}
