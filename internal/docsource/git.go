package docsource

import (
	"context"
	"io"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	cjerrors "github.com/Aman-CERP/cjdocs-bridge/internal/errors"
	"github.com/Aman-CERP/cjdocs-bridge/internal/model"
)

var codeFencePattern = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\\n(.*?)```")

// GitSource reads documents from a local git checkout's HEAD tree only —
// never the working copy, so concurrent readers never race a checkout.
// The repository is reopened per operation rather than held open, matching
// the original implementation's "not Sync" posture for git2::Repository.
type GitSource struct {
	repoDir        string
	sourceDirName  string // e.g. "source_zh_cn" under docs/dev-guide/
	topicIndexOnce sync.Once
	topicIndex     map[string]string // topic -> first matching category
	topicIndexErr  error
}

var _ Source = (*GitSource)(nil)

// NewGitSource opens repoDir (an already-cloned/checked-out working
// directory) against the docs/dev-guide/<sourceDirName> subtree.
func NewGitSource(repoDir, sourceDirName string) *GitSource {
	return &GitSource{repoDir: repoDir, sourceDirName: sourceDirName}
}

func (g *GitSource) docsBasePath() string {
	return path.Join("docs", "dev-guide", g.sourceDirName)
}

func (g *GitSource) headTree() (*object.Tree, error) {
	repo, err := git.PlainOpen(g.repoDir)
	if err != nil {
		return nil, cjerrors.IOError("open git checkout", err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, cjerrors.IOError("resolve HEAD", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, cjerrors.IOError("load HEAD commit", err)
	}
	return commit.Tree()
}

func (g *GitSource) subTree(tree *object.Tree, dir string) (*object.Tree, error) {
	if dir == "" || dir == "." {
		return tree, nil
	}
	return tree.Tree(dir)
}

func (g *GitSource) IsAvailable(ctx context.Context) bool {
	_, err := g.headTree()
	return err == nil
}

func (g *GitSource) Categories(ctx context.Context) ([]string, error) {
	tree, err := g.headTree()
	if err != nil {
		return nil, err
	}
	base, err := g.subTree(tree, g.docsBasePath())
	if err != nil {
		return nil, nil // base path missing: no categories, not an error
	}
	var cats []string
	for _, entry := range base.Entries {
		if entry.Mode.IsFile() {
			continue
		}
		if shouldExclude(entry.Name) {
			continue
		}
		cats = append(cats, entry.Name)
	}
	sort.Strings(cats)
	return cats, nil
}

func (g *GitSource) TopicsIn(ctx context.Context, category string) ([]string, error) {
	tree, err := g.headTree()
	if err != nil {
		return nil, err
	}
	catTree, err := g.subTree(tree, path.Join(g.docsBasePath(), category))
	if err != nil {
		return nil, nil // nonexistent category: empty, not error
	}
	var topics []string
	err = listMarkdownStems(catTree, "", &topics)
	if err != nil {
		return nil, err
	}
	sort.Strings(topics)
	return topics, nil
}

func listMarkdownStems(tree *object.Tree, prefix string, out *[]string) error {
	for _, entry := range tree.Entries {
		if shouldExclude(entry.Name) {
			continue
		}
		if entry.Mode.IsFile() {
			if strings.HasSuffix(entry.Name, ".md") {
				*out = append(*out, strings.TrimSuffix(entry.Name, ".md"))
			}
			continue
		}
		sub, err := tree.Tree(entry.Name)
		if err != nil {
			continue
		}
		if err := listMarkdownStems(sub, path.Join(prefix, entry.Name), out); err != nil {
			return err
		}
	}
	return nil
}

func (g *GitSource) buildTopicIndex(ctx context.Context) (map[string]string, error) {
	cats, err := g.Categories(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]string)
	// Deterministic category order (Categories() returns sorted): first
	// match wins, matching the original's OnceLock-cached, first-match-wins
	// topic index.
	for _, cat := range cats {
		topics, err := g.TopicsIn(ctx, cat)
		if err != nil {
			return nil, err
		}
		for _, topic := range topics {
			if _, exists := index[topic]; !exists {
				index[topic] = cat
			}
		}
	}
	return index, nil
}

func (g *GitSource) Document(ctx context.Context, topic string, category string) (*model.DocData, bool, error) {
	if category == "" {
		g.topicIndexOnce.Do(func() {
			g.topicIndex, g.topicIndexErr = g.buildTopicIndex(ctx)
		})
		if g.topicIndexErr != nil {
			return nil, false, g.topicIndexErr
		}
		cat, ok := g.topicIndex[topic]
		if !ok {
			return nil, false, nil
		}
		category = cat
	}

	tree, err := g.headTree()
	if err != nil {
		return nil, false, err
	}
	filePath := path.Join(g.docsBasePath(), category, topic+".md")
	rel := path.Join(category, topic+".md")
	entry, err := tree.FindEntry(filePath)
	if err != nil {
		return nil, false, nil
	}
	blob, err := tree.TreeEntryFile(entry)
	if err != nil {
		return nil, false, err
	}
	text, err := readBlob(blob)
	if err != nil {
		return nil, false, err
	}

	doc := model.DocData{
		DocID: rel,
		Text:  text,
		Metadata: model.DocMetadata{
			FilePath:       rel,
			Category:       category,
			Topic:          topic,
			Title:          ExtractTitle(text),
			CodeBlockCount: len(codeFencePattern.FindAllStringIndex(text, -1)),
		},
	}
	return &doc, true, nil
}

func (g *GitSource) LoadAll(ctx context.Context) ([]model.DocData, error) {
	cats, err := g.Categories(ctx)
	if err != nil {
		return nil, err
	}
	var docs []model.DocData
	for _, cat := range cats {
		topics, err := g.TopicsIn(ctx, cat)
		if err != nil {
			return nil, err
		}
		for _, topic := range topics {
			doc, ok, err := g.Document(ctx, topic, cat)
			if err != nil {
				return nil, err
			}
			if ok {
				docs = append(docs, *doc)
			}
		}
	}
	return docs, nil
}

func (g *GitSource) TopicTitles(ctx context.Context, category string) (map[string]string, error) {
	topics, err := g.TopicsIn(ctx, category)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(topics))
	for _, topic := range topics {
		doc, ok, err := g.Document(ctx, topic, category)
		if err != nil {
			return nil, err
		}
		if ok {
			out[topic] = doc.Metadata.Title
		}
	}
	return out, nil
}

func readBlob(f *object.File) (string, error) {
	r, err := f.Reader()
	if err != nil {
		return "", err
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ExtractCodeBlocks returns every fenced code block in text, with language
// defaulting to "text" and context set to the nearest preceding heading
// line (or "" if none).
func ExtractCodeBlocks(text string) []model.CodeBlock {
	lines := splitLines(text)
	lineOffsets := make([]int, len(lines)+1)
	off := 0
	for i, l := range lines {
		lineOffsets[i] = off
		off += len(l) + 1
	}
	lineOffsets[len(lines)] = off

	var blocks []model.CodeBlock
	for _, m := range codeFencePattern.FindAllStringSubmatchIndex(text, -1) {
		lang := text[m[2]:m[3]]
		if lang == "" {
			lang = "text"
		}
		code := text[m[4]:m[5]]
		ctxHeading := nearestPrecedingHeading(lines, lineOffsets, m[0])
		blocks = append(blocks, model.CodeBlock{Language: lang, Code: code, Context: ctxHeading})
	}
	return blocks
}

func nearestPrecedingHeading(lines []string, offsets []int, pos int) string {
	heading := ""
	for i, l := range lines {
		if offsets[i] > pos {
			break
		}
		t := trimSpace(l)
		if strings.HasPrefix(t, "#") {
			heading = t
		}
	}
	return heading
}
