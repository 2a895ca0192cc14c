// Package report collects benchmark results and writes them as JSON and CSV,
// to local writers or to any blobstore.BlobStore.
package report
