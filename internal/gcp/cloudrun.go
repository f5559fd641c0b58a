package gcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	run "cloud.google.com/go/run/apiv2"
	"cloud.google.com/go/run/apiv2/runpb"
	"go.uber.org/zap"
)

// ErrRevisionNotReady is returned when the latest revision does not
// become ready before the context deadline.
var ErrRevisionNotReady = errors.New("latest revision not ready")

// revisionPollInterval is how often the service is re-read while
// waiting for a rollout.
const revisionPollInterval = 5 * time.Second

// RunClient reads Cloud Run service state.
type RunClient struct {
	client   *run.ServicesClient
	project  string
	location string
	log      *zap.Logger
}

// NewRunClient dials the Cloud Run admin API using application default
// credentials.
func NewRunClient(ctx context.Context, project, location string, log *zap.Logger) (*RunClient, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client, err := run.NewServicesClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial cloud run: %w", err)
	}
	return &RunClient{
		client:   client,
		project:  project,
		location: location,
		log:      log,
	}, nil
}

// Close releases the underlying connection.
func (c *RunClient) Close() error {
	return c.client.Close()
}

// ServiceStatus is a condensed view of a Cloud Run service.
type ServiceStatus struct {
	Name            string
	URI             string
	LatestCreated   string
	LatestReady     string
	ObservedTraffic int32
	Ready           bool
}

func (c *RunClient) serviceName(service string) string {
	return fmt.Sprintf("projects/%s/locations/%s/services/%s", c.project, c.location, service)
}

// GetStatus reads the current service state.
func (c *RunClient) GetStatus(ctx context.Context, service string) (*ServiceStatus, error) {
	svc, err := c.client.GetService(ctx, &runpb.GetServiceRequest{
		Name: c.serviceName(service),
	})
	if err != nil {
		return nil, fmt.Errorf("get service %s: %w", service, err)
	}
	return statusFromService(svc), nil
}

// WaitReady polls the service until its latest created revision is also
// its latest ready revision, or ctx expires. Used after redeploy to
// confirm the rollout actually converged.
func (c *RunClient) WaitReady(ctx context.Context, service string) (*ServiceStatus, error) {
	ticker := time.NewTicker(revisionPollInterval)
	defer ticker.Stop()

	for {
		status, err := c.GetStatus(ctx, service)
		if err != nil {
			return nil, err
		}
		if status.Ready {
			return status, nil
		}
		c.log.Info("waiting for revision rollout",
			zap.String("service", service),
			zap.String("latest_created", status.LatestCreated),
			zap.String("latest_ready", status.LatestReady))

		select {
		case <-ctx.Done():
			return status, fmt.Errorf("%w: %s", ErrRevisionNotReady, status.LatestCreated)
		case <-ticker.C:
		}
	}
}

// statusFromService condenses the service proto. A service is ready
// when its newest revision is the one serving.
func statusFromService(svc *runpb.Service) *ServiceStatus {
	status := &ServiceStatus{
		Name:          shortName(svc.GetName()),
		URI:           svc.GetUri(),
		LatestCreated: shortName(svc.GetLatestCreatedRevision()),
		LatestReady:   shortName(svc.GetLatestReadyRevision()),
	}
	for _, t := range svc.GetTrafficStatuses() {
		status.ObservedTraffic += t.GetPercent()
	}
	status.Ready = status.LatestCreated != "" && status.LatestCreated == status.LatestReady
	return status
}
