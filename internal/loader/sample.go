package loader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ludo-technologies/cloneval/domain"
)

// LoadQuerySubset reads a sample file: one fragment filename per line.
// Blank lines are ignored and any directory prefix is dropped.
func LoadQuerySubset(ctx context.Context, path string) (*domain.QuerySubset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.NewFileNotFoundError(path, err)
		}
		return nil, domain.NewConfigError(fmt.Sprintf("cannot read sample file %s", path), err)
	}
	defer f.Close()

	return ReadQuerySubset(ctx, path, f)
}

// ReadQuerySubset reads a sample list from r
func ReadQuerySubset(ctx context.Context, name string, r io.Reader) (*domain.QuerySubset, error) {
	subset := domain.NewQuerySubset()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if i := strings.LastIndexAny(line, `/\`); i >= 0 {
			line = line[i+1:]
		}
		subset.Add(domain.FragmentID(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed reading sample file %s", name), err)
	}
	return subset, nil
}
