// SPDX-License-Identifier: MPL-2.0

package guidance

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/usagerules/usagerules/internal/graph"
)

const (
	// PrimaryFileName is the guidance file a package ships at its root.
	PrimaryFileName = "usage-rules.md"
	// RulesDirName is the conventional directory of supplemental guidance files.
	RulesDirName = "usage_rules"

	rulesDirPattern = RulesDirName + "/**/*.md"
)

type (
	// Inclusion is one guidance file of a package.
	Inclusion struct {
		// Path is the cleaned absolute path of the file.
		Path string
		// Rel is the slash-separated path relative to the package root.
		Rel string
		// Content is the raw file content.
		Content []byte
	}

	// Document is the located guidance of one package: the primary file plus
	// the sub-files reached from it, in first-visit order.
	Document struct {
		Package  graph.Package
		Primary  Inclusion
		Includes []Inclusion
	}

	// Located pairs a package with its guidance. Doc is nil when the package
	// ships none.
	Located struct {
		Package graph.Package
		Doc     *Document
	}

	// Locator finds guidance documents on a filesystem.
	Locator struct {
		// FS is the filesystem packages are read from. Defaults to the OS filesystem.
		FS afero.Fs
		// RulesDir enables the usage_rules/ directory sweep after reference traversal.
		RulesDir bool
	}

	// traversal is the per-package walk state.
	traversal struct {
		fs      afero.Fs
		pkg     graph.Package
		root    string
		// realRoot is root with symlinks resolved, or root itself.
		realRoot string
		// visited holds resolved paths, so a file reached through a
		// symlinked directory counts once.
		visited map[string]struct{}
		doc     *Document
		diags   []Diagnostic
	}
)

// NewLocator creates a Locator over fsys (the OS filesystem when nil).
func NewLocator(fsys afero.Fs, rulesDir bool) *Locator {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Locator{FS: fsys, RulesDir: rulesDir}
}

// HasGuidance reports whether a document was located.
func (l Located) HasGuidance() bool { return l.Doc != nil }

// Files returns the primary file followed by every inclusion.
func (d *Document) Files() []Inclusion {
	return append([]Inclusion{d.Primary}, d.Includes...)
}

// Locate reads the guidance of pkg. A nil document without diagnostics means
// the package has no usage-rules.md.
func (l *Locator) Locate(pkg graph.Package) (*Document, []Diagnostic) {
	fsys := l.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	if pkg.Root == "" {
		return nil, []Diagnostic{warning(CodePackageNotLocal, pkg, "", nil,
			"package %s is not available locally; fetch it with the build tool to include its guidance", pkg)}
	}

	root := filepath.Clean(pkg.Root)
	primaryPath := filepath.Join(root, PrimaryFileName)
	content, err := afero.ReadFile(fsys, primaryPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		d := warning(CodePrimaryUnreadable, pkg, primaryPath, err, "cannot read %s: %v", PrimaryFileName, err)
		d.Severity = SeverityError
		return nil, []Diagnostic{d}
	}

	t := &traversal{
		fs:      fsys,
		pkg:     pkg,
		root:    root,
		visited: map[string]struct{}{},
		doc: &Document{
			Package: pkg,
			Primary: Inclusion{Path: primaryPath, Rel: PrimaryFileName, Content: content},
		},
	}
	t.realRoot = t.resolve(root)
	t.visited[t.resolve(primaryPath)] = struct{}{}
	t.scan(primaryPath, content)

	if l.RulesDir {
		t.sweepRulesDir()
	}

	slog.Debug("located guidance", "package", pkg.Key().String(), "includes", len(t.doc.Includes), "warnings", len(t.diags))
	return t.doc, t.diags
}

// LocateAll locates the guidance of every package. It never stops early; each
// package's diagnostics are appended in package order.
func (l *Locator) LocateAll(pkgs []graph.Package) ([]Located, []Diagnostic) {
	located := make([]Located, 0, len(pkgs))
	var diags []Diagnostic
	for _, pkg := range pkgs {
		doc, d := l.Locate(pkg)
		located = append(located, Located{Package: pkg, Doc: doc})
		diags = append(diags, d...)
	}
	return located, diags
}

// scan follows the references of the file at path, depth-first and pre-order.
func (t *traversal) scan(path string, content []byte) {
	for _, ref := range ScanReferences(content) {
		target := filepath.Clean(filepath.Join(filepath.Dir(path), filepath.FromSlash(ref)))
		t.include(target, ref, path)
	}
}

// include adds target unless it was already visited or cannot be used, then
// scans it. from is the referencing file, empty for swept files.
func (t *traversal) include(target, ref, from string) {
	key := t.resolve(target)
	if _, seen := t.visited[key]; seen {
		return
	}
	t.visited[key] = struct{}{}

	rel, inside := relInside(t.root, target)
	if inside {
		_, inside = relInside(t.realRoot, key)
	}
	if !inside {
		t.diags = append(t.diags, warning(CodeReferenceOutsidePackage, t.pkg, from, nil,
			"reference %q in %s points outside the package; dropped", ref, t.relOf(from)))
		return
	}

	content, err := afero.ReadFile(t.fs, target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		t.diags = append(t.diags, warning(CodeReferenceNotFound, t.pkg, target, err,
			"reference %q in %s not found; dropped", ref, t.relOf(from)))
		return
	case err != nil:
		t.diags = append(t.diags, warning(CodeReferenceUnreadable, t.pkg, target, err,
			"reference %q in %s cannot be read: %v", ref, t.relOf(from), err))
		return
	}

	t.doc.Includes = append(t.doc.Includes, Inclusion{Path: target, Rel: rel, Content: content})
	t.scan(target, content)
}

// sweepRulesDir appends every markdown file under usage_rules/ that the
// reference traversal did not reach, in lexicographic order.
func (t *traversal) sweepRulesDir() {
	dir := filepath.Join(t.root, RulesDirName)
	if ok, err := afero.DirExists(t.fs, dir); err != nil || !ok {
		return
	}

	matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(t.fs, t.root)), rulesDirPattern, doublestar.WithFilesOnly(), doublestar.WithNoFollow())
	if err != nil {
		t.diags = append(t.diags, warning(CodeRulesDirScanFailed, t.pkg, dir, err,
			"cannot scan %s: %v", RulesDirName, err))
		return
	}
	slices.Sort(matches)

	for _, m := range matches {
		t.include(filepath.Join(t.root, filepath.FromSlash(m)), m, "")
	}
}

// resolve returns the symlink-free form of path on the OS filesystem. Other
// filesystems have no links, and a path that does not resolve, such as a
// missing reference, stays as given.
func (t *traversal) resolve(path string) string {
	if _, ok := t.fs.(*afero.OsFs); !ok {
		return path
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return resolved
}

func (t *traversal) relOf(path string) string {
	if path == "" {
		return RulesDirName
	}
	if rel, ok := relInside(t.root, path); ok {
		return rel
	}
	return path
}

// relInside returns the slash path of target relative to root and whether
// target lies under root.
func relInside(root, target string) (string, bool) {
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
