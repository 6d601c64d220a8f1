//go:build !purego

package store

import "github.com/yanyiwu/gojieba"

// jiebaSegmenter is process-wide: gojieba.Jieba loads its dictionary once
// and is safe for concurrent Cut calls.
var jiebaSegmenter = gojieba.NewJieba()

// segmentCJK splits a run of CJK text into search-mode tokens using
// gojieba's CGo jieba binding, matching the original implementation's
// jieba_rs cut_for_search behavior.
func segmentCJK(text string) []string {
	return jiebaSegmenter.CutForSearch(text, true)
}
