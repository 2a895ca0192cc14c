// Package dataset holds the vectors a benchmark run works on: train vectors
// with ids, test (query) vectors, and the ground-truth neighbor ids of every
// test vector.
//
// Datasets are read from any blobstore.BlobStore in the TEXMEX vecs formats
// (fvecs, ivecs, bvecs), optionally compressed with zstd (".zst") or lz4
// (".lz4"), or generated synthetically with exact ground truth:
//
//	ds, err := dataset.Load(ctx, store, dataset.Source{
//	    Name:      "sift-128-euclidean",
//	    Metric:    distance.MetricL2,
//	    Train:     "sift/sift_base.fvecs.zst",
//	    Test:      "sift/sift_query.fvecs",
//	    Neighbors: "sift/sift_groundtruth.ivecs",
//	})
//
// A Dataset is immutable after load except for Normalize, which applies the
// metric's preprocessing to train and test vectors exactly once.
package dataset
