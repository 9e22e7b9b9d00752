package analyzer

import (
	"fmt"
	"strings"

	"github.com/ludo-technologies/cloneval/domain"
)

// FragmentNormalizer maps a (path, start, end) triple to a canonical fragment identifier
type FragmentNormalizer interface {
	// Normalize builds "{base}_{start}_{end}.java". Start and end are embedded
	// verbatim, so "6" and "06" produce different identifiers.
	Normalize(filePath, startLine, endLine string) domain.FragmentID

	// Name returns the variant name used in configuration
	Name() string
}

// FirstDotNormalizer strips everything from the first dot of the basename.
// "a.test.java" becomes "a".
type FirstDotNormalizer struct{}

// Normalize implements FragmentNormalizer
func (FirstDotNormalizer) Normalize(filePath, startLine, endLine string) domain.FragmentID {
	base := basename(filePath)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return formatFragmentID(base, startLine, endLine)
}

// Name implements FragmentNormalizer
func (FirstDotNormalizer) Name() string { return domain.NormalizerFirstDot }

// LastDotNormalizer strips only the final extension of the basename.
// "a.test.java" becomes "a.test".
type LastDotNormalizer struct{}

// Normalize implements FragmentNormalizer
func (LastDotNormalizer) Normalize(filePath, startLine, endLine string) domain.FragmentID {
	base := basename(filePath)
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return formatFragmentID(base, startLine, endLine)
}

// Name implements FragmentNormalizer
func (LastDotNormalizer) Name() string { return domain.NormalizerLastDot }

// NormalizerByName returns the variant registered under name
func NormalizerByName(name string) (FragmentNormalizer, error) {
	switch name {
	case domain.NormalizerFirstDot:
		return FirstDotNormalizer{}, nil
	case domain.NormalizerLastDot:
		return LastDotNormalizer{}, nil
	default:
		return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown normalizer %q", name), nil)
	}
}

// basename returns the component after the last '/' or '\'
func basename(filePath string) string {
	if i := strings.LastIndexAny(filePath, `/\`); i >= 0 {
		return filePath[i+1:]
	}
	return filePath
}

func formatFragmentID(base, startLine, endLine string) domain.FragmentID {
	return domain.FragmentID(base + "_" + startLine + "_" + endLine + ".java")
}
