package main

import (
	"fmt"
	"io"
	"time"

	"patchc/internal/driver"
)

func printFileTimings(out io.Writer, results []*driver.FileResult) {
	if out == nil {
		return
	}
	var total time.Duration
	for _, fr := range results {
		total += fr.Elapsed
		suffix := ""
		if fr.Cached {
			suffix = " (cached)"
		}
		fmt.Fprintf(out, "%s %.1f ms%s\n", fr.Path, toMillis(fr.Elapsed), suffix)
	}
	if len(results) > 1 {
		fmt.Fprintf(out, "total %.1f ms\n", toMillis(total))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
