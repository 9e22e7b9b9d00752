package service

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ludo-technologies/cloneval/domain"
)

// Template placeholders
const (
	PlaceholderType = "{type}"
	PlaceholderSeed = "{seed}"
)

// sourcePattern selects clone-pair sources inside a directory given to inspect
const sourcePattern = "**/*.{csv,tsv,txt,xml}"

// FileReaderImpl resolves dataset paths and discovers sources
type FileReaderImpl struct{}

// NewFileReader creates a new file reader service
func NewFileReader() *FileReaderImpl {
	return &FileReaderImpl{}
}

// ExpandTemplate substitutes {type} and {seed} in a path template
func ExpandTemplate(template string, category domain.CloneCategory, seed int) string {
	r := strings.NewReplacer(
		PlaceholderType, string(category),
		PlaceholderSeed, strconv.Itoa(seed),
	)
	return r.Replace(template)
}

// ResolvePath anchors a relative path at root
func (f *FileReaderImpl) ResolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, filepath.FromSlash(path))
}

// BuildUnits resolves one unit per (category, seed), ordered by category
// then ascending seed. Duplicate seeds are dropped.
func (f *FileReaderImpl) BuildUnits(req *domain.EvaluationRequest, categories []domain.CloneCategory) []domain.EvaluationUnit {
	seeds := slices.Clone(req.Seeds)
	if len(seeds) == 0 {
		seeds = slices.Clone(domain.DefaultSeeds)
	}
	slices.Sort(seeds)
	seeds = slices.Compact(seeds)

	units := make([]domain.EvaluationUnit, 0, len(categories)*len(seeds))
	for _, category := range categories {
		for _, seed := range seeds {
			units = append(units, domain.EvaluationUnit{
				Category:        category,
				Seed:            seed,
				GroundTruthPath: f.ResolvePath(req.DatasetRoot, ExpandTemplate(req.GroundTruthTemplate, category, seed)),
				DetectorPath:    f.ResolvePath(req.DatasetRoot, ExpandTemplate(req.DetectorTemplate, category, seed)),
				SamplePath:      f.ResolvePath(req.DatasetRoot, ExpandTemplate(req.SampleTemplate, category, seed)),
			})
		}
	}
	return units
}

// DiscoverCategories finds ground-truth files matching pattern under root and
// returns their stems as categories, sorted and deduplicated.
func (f *FileReaderImpl) DiscoverCategories(root, pattern string) ([]domain.CloneCategory, error) {
	var matches []string
	var err error
	if filepath.IsAbs(pattern) {
		matches, err = doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	} else {
		if _, statErr := os.Stat(root); statErr != nil {
			return nil, domain.NewFileNotFoundError(root, statErr)
		}
		matches, err = doublestar.Glob(os.DirFS(root), filepath.ToSlash(pattern), doublestar.WithFilesOnly())
	}
	if err != nil {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("invalid ground truth glob %q", pattern), err)
	}

	seen := make(map[domain.CloneCategory]bool, len(matches))
	categories := make([]domain.CloneCategory, 0, len(matches))
	for _, m := range matches {
		c := domain.CategoryFromPath(m)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		categories = append(categories, c)
	}
	slices.Sort(categories)

	if len(categories) == 0 {
		return nil, domain.NewInvalidInputError(
			fmt.Sprintf("no ground truth files match %q under %s", pattern, root), nil)
	}
	return categories, nil
}

// CollectSources expands files, directories and doublestar globs into a sorted
// list of source files
func (f *FileReaderImpl) CollectSources(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, path := range paths {
		if hasGlobMeta(path) {
			matches, err := doublestar.FilepathGlob(path, doublestar.WithFilesOnly())
			if err != nil {
				return nil, domain.NewInvalidInputError(fmt.Sprintf("invalid pattern %q", path), err)
			}
			if len(matches) == 0 {
				return nil, domain.NewInvalidInputError(fmt.Sprintf("no files match %q", path), nil)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, domain.NewFileNotFoundError(path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}

		matches, err := doublestar.Glob(os.DirFS(path), sourcePattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to walk directory %s: %w", path, err)
		}
		for _, m := range matches {
			add(filepath.Join(path, filepath.FromSlash(m)))
		}
	}

	slices.Sort(files)
	return files, nil
}

// FileExists checks if a regular file exists
func (f *FileReaderImpl) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// ValidateUnit checks that every input of a unit is present
func (f *FileReaderImpl) ValidateUnit(unit domain.EvaluationUnit) error {
	for _, path := range []string{unit.GroundTruthPath, unit.DetectorPath, unit.SamplePath} {
		ok, err := f.FileExists(path)
		if err != nil {
			return domain.NewInvalidInputError(fmt.Sprintf("cannot access path: %s", path), err)
		}
		if !ok {
			return domain.NewFileNotFoundError(path, nil)
		}
	}
	return nil
}

func hasGlobMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}
