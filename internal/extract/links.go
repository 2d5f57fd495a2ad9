package extract

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ImageLinks returns the destinations of all markdown images in src, in order.
func ImageLinks(src []byte) []string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	var links []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := n.(*ast.Image); ok && entering {
			links = append(links, string(img.Destination))
		}
		return ast.WalkContinue, nil
	})
	return links
}

// AssetFile maps a link of the form assets/<doc>/<file> to its file under
// assetRoot. ok is false for links outside the asset tree.
func AssetFile(assetRoot, link string) (string, bool) {
	clean := path.Clean(link)
	rel, found := strings.CutPrefix(clean, "assets/")
	if !found || rel == "" || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return filepath.Join(assetRoot, filepath.FromSlash(rel)), true
}

// MissingAssets lists the links in links that do not resolve to a regular
// file under assetRoot.
func MissingAssets(assetRoot string, links []string) []string {
	var missing []string
	for _, link := range links {
		p, ok := AssetFile(assetRoot, link)
		if !ok {
			missing = append(missing, link)
			continue
		}
		if fi, err := os.Stat(p); err != nil || !fi.Mode().IsRegular() {
			missing = append(missing, link)
		}
	}
	return missing
}

// VerifyMarkdown checks that every image link in the markdown file at mdPath
// resolves to a file under assetRoot.
func VerifyMarkdown(mdPath, assetRoot string) error {
	src, err := os.ReadFile(mdPath)
	if err != nil {
		return err
	}
	if missing := MissingAssets(assetRoot, ImageLinks(src)); len(missing) > 0 {
		return fmt.Errorf("%s: %d unresolved image links: %s", mdPath, len(missing), strings.Join(missing, ", "))
	}
	return nil
}
