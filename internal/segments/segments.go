// Package segments discovers on-disk segment files produced by the upstream
// splitting stage.
package segments

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vodbackup/uploader/pkg/models"
)

// Extension is the container format the splitting stage writes.
const Extension = ".mp4"

// Segment is one discovered part file. Part is the 1-based ordinal; the
// on-disk stem is 0-based, so ordinal = stem+1.
type Segment struct {
	Path string
	Part int
}

// Discover lists dir and parses every entry into an ordered segment list.
// Any entry that is not a numeric-stem segment file is a hard error.
func Discover(dir string) ([]Segment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read segment directory %s: %w", dir, err)
	}

	segs := make([]Segment, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		part, err := partNumber(name)
		if err != nil {
			return nil, err
		}
		segs = append(segs, Segment{
			Path: filepath.Join(dir, name),
			Part: part,
		})
	}

	sort.Slice(segs, func(i, j int) bool { return segs[i].Part < segs[j].Part })
	return segs, nil
}

// ValidateCount checks the discovered set against the expected number of
// segments still to upload.
func ValidateCount(segs []Segment, expected int) error {
	if len(segs) != expected {
		return fmt.Errorf("%w: expected %d, found %d", models.ErrPartCountMismatch, expected, len(segs))
	}
	return nil
}

func partNumber(name string) (int, error) {
	if !utf8.ValidString(name) {
		return 0, fmt.Errorf("%w: %q is not valid UTF-8", models.ErrParsePartNumber, name)
	}
	if !strings.HasSuffix(name, Extension) {
		return 0, fmt.Errorf("%w: %q (want %s)", models.ErrWrongFileExtension, name, Extension)
	}

	stem := strings.TrimSuffix(name, Extension)
	if stem == "" {
		return 0, fmt.Errorf("%w: %q", models.ErrMissingFileStem, name)
	}

	n, err := strconv.Atoi(stem)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", models.ErrParsePartNumber, name)
	}

	return n + 1, nil
}
