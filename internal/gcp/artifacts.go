package gcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	artifactregistry "cloud.google.com/go/artifactregistry/apiv1"
	"cloud.google.com/go/artifactregistry/apiv1/artifactregistrypb"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"

	"github.com/docschat/docschat/pkg/types"
)

// listConcurrency bounds the per-repository image listing fan-out.
const listConcurrency = 4

// ArtifactsClient lists Artifact Registry repositories and images.
type ArtifactsClient struct {
	client   *artifactregistry.Client
	project  string
	location string
}

// NewArtifactsClient dials the Artifact Registry API using application
// default credentials.
func NewArtifactsClient(ctx context.Context, project, location string) (*ArtifactsClient, error) {
	client, err := artifactregistry.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial artifact registry: %w", err)
	}
	return &ArtifactsClient{
		client:   client,
		project:  project,
		location: location,
	}, nil
}

// Close releases the underlying connection.
func (c *ArtifactsClient) Close() error {
	return c.client.Close()
}

func (c *ArtifactsClient) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", c.project, c.location)
}

// ListRepositories returns every repository in the project/location.
func (c *ArtifactsClient) ListRepositories(ctx context.Context) ([]types.Repository, error) {
	it := c.client.ListRepositories(ctx, &artifactregistrypb.ListRepositoriesRequest{
		Parent: c.parent(),
	})

	var repos []types.Repository
	for {
		repo, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list repositories: %w", err)
		}
		r := types.Repository{
			Name:        shortName(repo.GetName()),
			Format:      repo.GetFormat().String(),
			Description: repo.GetDescription(),
		}
		if ts := repo.GetCreateTime(); ts != nil {
			r.CreatedAt = ts.AsTime()
		}
		repos = append(repos, r)
	}
	return repos, nil
}

// ListImages returns the docker images of one repository, newest first.
func (c *ArtifactsClient) ListImages(ctx context.Context, repository string) ([]types.ImageRef, error) {
	it := c.client.ListDockerImages(ctx, &artifactregistrypb.ListDockerImagesRequest{
		Parent: c.parent() + "/repositories/" + repository,
	})

	var images []types.ImageRef
	for {
		img, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list images in %s: %w", repository, err)
		}
		ref := types.ImageRef{
			Name:      imageName(img.GetUri()),
			Digest:    imageDigest(img.GetUri()),
			Tags:      img.GetTags(),
			SizeBytes: img.GetImageSizeBytes(),
		}
		if ts := img.GetUploadTime(); ts != nil {
			ref.UploadedAt = ts.AsTime()
		}
		images = append(images, ref)
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].UploadedAt.After(images[j].UploadedAt)
	})
	return images, nil
}

// ListAllImages fans out over every repository concurrently and returns
// images grouped by repository name.
func (c *ArtifactsClient) ListAllImages(ctx context.Context) (map[string][]types.ImageRef, error) {
	repos, err := c.ListRepositories(ctx)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)

	results := make([]struct {
		name   string
		images []types.ImageRef
	}, len(repos))

	for i, repo := range repos {
		g.Go(func() error {
			images, err := c.ListImages(ctx, repo.Name)
			if err != nil {
				return err
			}
			results[i].name = repo.Name
			results[i].images = images
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byRepo := make(map[string][]types.ImageRef, len(results))
	for _, r := range results {
		byRepo[r.name] = r.images
	}
	return byRepo, nil
}

// shortName strips the projects/.../repositories/ prefix from a fully
// qualified resource name.
func shortName(resource string) string {
	if i := strings.LastIndex(resource, "/"); i >= 0 {
		return resource[i+1:]
	}
	return resource
}

// imageName returns the image URI without its @sha256:... suffix.
func imageName(uri string) string {
	if i := strings.Index(uri, "@"); i >= 0 {
		return uri[:i]
	}
	return uri
}

// imageDigest extracts the sha256 digest from an image URI.
func imageDigest(uri string) string {
	if i := strings.Index(uri, "@"); i >= 0 {
		return uri[i+1:]
	}
	return ""
}
