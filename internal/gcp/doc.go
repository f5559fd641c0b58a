// Package gcp covers the read paths that used to shell out to gcloud:
// Artifact Registry repository and image listing, and Cloud Run service
// status. Interactive authentication stays with the gcloud binary (see
// internal/gcloud); everything here uses application default
// credentials through the Cloud SDKs.
package gcp
