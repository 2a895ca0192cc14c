package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/hupe1980/vecbench/blobstore"
)

// PrepareTimings are the wall-clock costs of loading data into the backend,
// in seconds.
type PrepareTimings struct {
	Vectors           int     `json:"vectors"`
	InsertSeconds     float64 `json:"insert_seconds"`
	BuildIndexSeconds float64 `json:"build_index_seconds"`
	LoadSeconds       float64 `json:"load_seconds"`
}

// RecallResult is the outcome of one serial recall pass.
type RecallResult struct {
	NQ      int            `json:"nq"`
	TopK    int            `json:"top_k"`
	Params  map[string]any `json:"params,omitempty"`
	Batches int            `json:"batches"`
	Recall  float64        `json:"recall"`
	Latency LatencyStats   `json:"latency"`
}

// Report is the full result of a benchmark run.
type Report struct {
	Name       string            `json:"name"`
	Dataset    string            `json:"dataset"`
	Metric     string            `json:"metric"`
	Dim        int               `json:"dim"`
	StartedAt  time.Time         `json:"started_at"`
	Prepare    *PrepareTimings   `json:"prepare,omitempty"`
	Recall     []RecallResult    `json:"recall,omitempty"`
	Operations []OperationResult `json:"operations,omitempty"`
}

// WriteJSON writes r as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteRecallCSV writes one row per recall pass.
func (r *Report) WriteRecallCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"NQ", "TopK", "Batches", "Recall", "P50Ms", "P95Ms", "P99Ms", "AvgMs"})
	for _, res := range r.Recall {
		_ = cw.Write([]string{
			strconv.Itoa(res.NQ),
			strconv.Itoa(res.TopK),
			strconv.Itoa(res.Batches),
			strconv.FormatFloat(res.Recall, 'f', -1, 64),
			fmt.Sprintf("%.2f", res.Latency.P50Ms),
			fmt.Sprintf("%.2f", res.Latency.P95Ms),
			fmt.Sprintf("%.2f", res.Latency.P99Ms),
			fmt.Sprintf("%.2f", res.Latency.AvgMs),
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteOperationsCSV writes one row per operation kind of the concurrent run.
func (r *Report) WriteOperationsCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Kind", "Calls", "Errors", "Items", "QPS", "P50Ms", "P95Ms", "P99Ms", "AvgMs"})
	for _, op := range r.Operations {
		_ = cw.Write([]string{
			op.Kind,
			strconv.FormatInt(op.Calls, 10),
			strconv.FormatInt(op.Errors, 10),
			strconv.FormatInt(op.Items, 10),
			fmt.Sprintf("%.2f", op.QPS),
			fmt.Sprintf("%.2f", op.Latency.P50Ms),
			fmt.Sprintf("%.2f", op.Latency.P95Ms),
			fmt.Sprintf("%.2f", op.Latency.P99Ms),
			fmt.Sprintf("%.2f", op.Latency.AvgMs),
		})
	}
	cw.Flush()
	return cw.Error()
}

// Path returns the dated blob prefix for a report, e.g. "reports/sift-20261016".
func Path(prefix, name string, t time.Time) string {
	return prefix + name + "-" + t.Format("20060102")
}

// Publish stores r under base+".json", base+"-recall.csv" and
// base+"-operations.csv".
func Publish(ctx context.Context, store blobstore.BlobStore, base string, r *Report) error {
	writers := []struct {
		suffix string
		write  func(io.Writer) error
	}{
		{".json", r.WriteJSON},
		{"-recall.csv", r.WriteRecallCSV},
		{"-operations.csv", r.WriteOperationsCSV},
	}

	for _, wr := range writers {
		var buf bytes.Buffer
		if err := wr.write(&buf); err != nil {
			return fmt.Errorf("report: encode %s: %w", base+wr.suffix, err)
		}
		if err := store.Put(ctx, base+wr.suffix, buf.Bytes()); err != nil {
			return fmt.Errorf("report: put %s: %w", base+wr.suffix, err)
		}
	}
	return nil
}
