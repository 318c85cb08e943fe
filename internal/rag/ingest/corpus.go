package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

// ReadCorpus collects every supported file under paths (files or directories), sorted by path,
// and joins their text with a blank line. Unsupported files are skipped.
func ReadCorpus(paths []string, logger *logger_i.Logger) (string, int, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return "", 0, fmt.Errorf("reading %s: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && commonModels.GetDocType(path) != commonModels.ERR {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return "", 0, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	sort.Strings(files)

	texts := make([]string, 0, len(files))
	for _, f := range files {
		if commonModels.GetDocType(f) == commonModels.ERR {
			logger.Warn("skipping unsupported file", "path", f)
			continue
		}
		text, err := ExtractText(f, logger)
		if err != nil {
			return "", 0, err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, "\n\n"), len(texts), nil
}
