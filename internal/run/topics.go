package run

import (
	"context"

	"stdbench/internal/config"
	"stdbench/internal/executor"
)

// QueriesPath returns the query file for a topic source. TREC topics are
// first extracted next to the source, producing <path>.<field>.
func QueriesPath(ctx context.Context, exec executor.Executor, topics config.Topics) (string, error) {
	if topics.Format != config.TrecTopics {
		return topics.Path, nil
	}
	if err := exec.ExtractTopics(ctx, topics.Path, topics.Path); err != nil {
		return "", err
	}
	return topics.Path + "." + string(topics.Field), nil
}
