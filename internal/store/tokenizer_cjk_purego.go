//go:build purego

package store

import (
	"sync"

	"github.com/go-ego/gse"
)

var (
	gseOnce sync.Once
	gseSeg  gse.Segmenter
)

func gseInit() {
	gseOnce.Do(func() {
		_ = gseSeg.LoadDict()
	})
}

// segmentCJK splits a run of CJK text into search-mode tokens using the
// pure-Go go-ego/gse segmenter, for builds with the "purego" tag where CGo
// is unavailable (e.g. cross-compiling without a C toolchain).
func segmentCJK(text string) []string {
	gseInit()
	return gseSeg.CutSearch(text, true)
}
