// Package gcp implements the catalog and lineage collaborators on top of the
// Google Cloud client libraries (BigQuery, Dataplex, Data Lineage).
//
// Authentication is Application Default Credentials; the constructors accept
// extra option.ClientOption values for tests and custom endpoints.
package gcp

import (
	"errors"
	"fmt"
	"iter"

	"google.golang.org/api/iterator"
)

// DefaultLocation is used when no location is configured.
const DefaultLocation = "us-central1"

// parent returns the regional parent resource for Dataplex and Lineage calls.
func parent(project, location string) string {
	return fmt.Sprintf("projects/%s/locations/%s", project, location)
}

// pages adapts a google.golang.org/api iterator's Next method to a range
// function. Iteration ends at iterator.Done; any other error is yielded once.
func pages[T any](next func() (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, err := next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// drain collects every element of seq.
func drain[T any](seq iter.Seq2[T, error]) ([]T, error) {
	out := []T{}
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
