package analysis

import (
	"sort"

	"github.com/KaramelBytes/cross-edits-cli/internal/dataset"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Group is one partition of the table handed to an Operation.
type Group struct {
	// Key is the shared key-column value ("" for rows without one).
	Key string
	// Index is the zero-based position of the key in iteration order.
	Index int
	// Rows holds the group's records in table order. Operations must not modify it.
	Rows *dataset.Table
}

// Operation is a per-group task run by Engine.IteratePerKey.
type Operation interface {
	ProcessGroup(g Group) error
}

// OperationFunc adapts a function to Operation.
type OperationFunc func(g Group) error

func (f OperationFunc) ProcessGroup(g Group) error { return f(g) }

// Engine partitions a loaded table by the configured key column.
type Engine struct {
	table      *dataset.Table
	cfg        Config
	groupCount int
}

// NewEngine returns an engine over table. cfg is copied.
func NewEngine(table *dataset.Table, cfg Config) *Engine {
	if table == nil {
		table = &dataset.Table{}
	}
	return &Engine{table: table, cfg: cfg.clone()}
}

// Table returns the source table.
func (e *Engine) Table() *dataset.Table { return e.table }

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config { return e.cfg.clone() }

// GroupCount returns the number of groups seen by the last IteratePerKey call.
func (e *Engine) GroupCount() int { return e.groupCount }

// Keys returns the distinct key values in iteration order: first appearance in the table,
// or sorted when Config.SortGroups is set.
func (e *Engine) Keys() []string {
	keys := e.table.Unique(e.cfg.KeyColumn)
	if e.cfg.SortGroups {
		sort.Strings(keys)
	}
	return keys
}

// IteratePerKey runs every operation, in order, on every group. The index passed to the
// operations advances once per key. The first operation error stops the iteration.
func (e *Engine) IteratePerKey(ops ...Operation) error {
	keys := e.Keys()
	e.groupCount = len(keys)

	// one pass to partition, keeping table order inside each group
	parts := make(map[string][]dataset.Row, len(keys))
	for _, r := range e.table.Rows {
		k := r.String(e.cfg.KeyColumn)
		parts[k] = append(parts[k], r)
	}
	zap.L().Debug("iterating groups",
		zap.String("key", e.cfg.KeyName),
		zap.Int("groups", len(keys)),
		zap.Int("operations", len(ops)),
	)
	for i, k := range keys {
		g := Group{Key: k, Index: i, Rows: &dataset.Table{Columns: e.table.Columns, Rows: parts[k]}}
		for _, op := range ops {
			if err := op.ProcessGroup(g); err != nil {
				return eris.Wrapf(err, "%s %q", e.cfg.KeyName, k)
			}
		}
	}
	return nil
}
