package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"stdbench/internal/config"
	"stdbench/internal/executor"
	"stdbench/internal/tactile"
)

// MsgCountTerms is reported when the term count cannot be determined.
const MsgCountTerms = "Failed to count terms"

// TermCount returns the number of terms of an already parsed forward index,
// as reported by `wc -l` on its terms file.
func TermCount(ctx context.Context, coll *config.Collection) (int, error) {
	out, err := executor.Output(ctx, tactile.New("wc").Args("-l", coll.Terms()).Mute(), MsgCountTerms)
	if err != nil {
		return 0, err
	}
	return parseWordCount(out)
}

func parseWordCount(out string) (int, error) {
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%s: could not parse output of `wc -l`: %q", MsgCountTerms, out)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("%s: could not parse output of `wc -l`: %w", MsgCountTerms, err)
	}
	return n, nil
}

// batchCounts finds the partial forward index batches left by an earlier
// parse and returns how many there are and how many documents they hold.
func batchCounts(coll *config.Collection) (batches, documents int, err error) {
	pattern := coll.ForwardIndex + ".batch.*.documents"
	files, err := filepath.Glob(pattern)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}
	if len(files) == 0 {
		return 0, 0, fmt.Errorf("%s: no batches found for pattern: %s", executor.MsgMerge, pattern)
	}
	for _, f := range files {
		n, err := countLines(f)
		if err != nil {
			return 0, 0, fmt.Errorf("%s: %w", executor.MsgMerge, err)
		}
		documents += n
	}
	return len(files), documents, nil
}

// countLines counts newline characters, matching `wc -l`.
func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, 64*1024)
	count := 0
	for {
		n, err := f.Read(buf)
		count += bytes.Count(buf[:n], []byte{'\n'})
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
}
