package entities_test

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/marlonsc/mcb/internal/dbexec"
)

// memRow is a generic column->value row used by memExecutor, good
// enough to exercise every query shape entities' stores issue: exact
// equality WHERE clauses (possibly squirrel-built), ORDER BY, LIMIT,
// ON CONFLICT upserts, and COUNT(*).
type memRow map[string]any

func (r memRow) TryGetString(col string) (string, bool, error) {
	v, ok := r[col]
	if !ok || v == nil {
		return "", false, nil
	}
	s, _ := v.(string)
	return s, true, nil
}

func (r memRow) TryGetInt64(col string) (int64, bool, error) {
	v, ok := r[col]
	if !ok || v == nil {
		return 0, false, nil
	}
	i, _ := v.(int64)
	return i, true, nil
}

func (r memRow) TryGetFloat64(col string) (float64, bool, error) { return 0, false, nil }

// memExecutor is a tiny in-memory dbexec.Executor covering the subset
// of SQL this package's repositories emit: parameterized INSERT
// (with optional ON CONFLICT upsert/ignore), UPDATE ... SET ... WHERE,
// DELETE FROM ... WHERE, SELECT [cols|*|COUNT(*)] FROM ... WHERE ...
// [ORDER BY ...] [LIMIT ...], and the two-table label JOIN.
type memExecutor struct {
	tables map[string][]memRow
}

func newMemExecutor() *memExecutor {
	return &memExecutor{tables: make(map[string][]memRow)}
}

var (
	reInsert       = regexp.MustCompile(`(?is)INSERT INTO (\w+)\s*\(([^)]+)\)`)
	reConflictDoNothing = regexp.MustCompile(`(?is)ON CONFLICT\(([^)]+)\)\s*DO NOTHING`)
	reConflictUpdate    = regexp.MustCompile(`(?is)ON CONFLICT\(([^)]+)\)\s*DO UPDATE SET\s+(.+)$`)
	reUpdate       = regexp.MustCompile(`(?is)UPDATE (\w+)\s+SET\s+(.+?)\s+WHERE\s+(.+)$`)
	reDelete       = regexp.MustCompile(`(?is)DELETE FROM (\w+)\s+WHERE\s+(.+)$`)
	reSelectCount  = regexp.MustCompile(`(?is)SELECT COUNT\(\*\) AS cnt FROM (\w+)\s+WHERE\s+(.+)$`)
	reSelect       = regexp.MustCompile(`(?is)SELECT \* FROM (\w+)(?:\s+WHERE\s+(.+?))?(?:\s+ORDER BY\s+([\w, ]+(?:ASC|DESC)?))?(?:\s+LIMIT\s+(\?|\d+))?$`)
	reLabelJoin    = regexp.MustCompile(`(?is)SELECT l\.\* FROM issue_labels l\s+JOIN issue_label_assignments a ON a\.label_id = l\.id\s+WHERE a\.issue_id = \?`)
	reCondEq       = regexp.MustCompile(`(?i)(\w+)\s*=\s*\?`)
	reCondNull     = regexp.MustCompile(`(?i)(\w+)\s+IS NULL`)
)

func paramValues(params []dbexec.Param) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = p.Value()
	}
	return out
}

func (m *memExecutor) Execute(ctx context.Context, query string, params []dbexec.Param) (int64, error) {
	args := paramValues(params)

	if match := reInsert.FindStringSubmatch(query); match != nil {
		table := match[1]
		cols := splitCols(match[2])
		row := memRow{}
		for i, c := range cols {
			if i < len(args) {
				row[c] = args[i]
			}
		}

		if conflict := reConflictDoNothing.FindStringSubmatch(query); conflict != nil {
			keyCols := splitCols(conflict[1])
			if m.findConflict(table, keyCols, row) != nil {
				return 0, nil
			}
		} else if conflict := reConflictUpdate.FindStringSubmatch(query); conflict != nil {
			keyCols := splitCols(conflict[1])
			if existing := m.findConflict(table, keyCols, row); existing != nil {
				for _, assign := range strings.Split(conflict[2], ",") {
					parts := strings.SplitN(assign, "=", 2)
					col := strings.TrimSpace(parts[0])
					(*existing)[col] = row[col]
				}
				return 1, nil
			}
		}

		m.tables[table] = append(m.tables[table], row)
		return 1, nil
	}

	if match := reUpdate.FindStringSubmatch(query); match != nil {
		table, setClause, whereClause := match[1], match[2], match[3]
		setCols := extractPlaceholderCols(setClause)
		whereCols := extractPlaceholderCols(whereClause)
		nullCols := extractNullCols(whereClause)
		nSet := len(setCols)
		setVals := args[:nSet]
		whereVals := args[nSet:]

		var updated int64
		for i := range m.tables[table] {
			if rowMatches(m.tables[table][i], whereCols, whereVals) && nullColsMatch(m.tables[table][i], nullCols) {
				for j, col := range setCols {
					m.tables[table][i][col] = setVals[j]
				}
				updated++
			}
		}
		return updated, nil
	}

	if match := reDelete.FindStringSubmatch(query); match != nil {
		table, whereClause := match[1], match[2]
		whereCols := extractPlaceholderCols(whereClause)
		var kept []memRow
		var deleted int64
		for _, row := range m.tables[table] {
			if rowMatches(row, whereCols, args) {
				deleted++
				continue
			}
			kept = append(kept, row)
		}
		m.tables[table] = kept
		return deleted, nil
	}

	return 0, nil
}

func (m *memExecutor) findConflict(table string, keyCols []string, row memRow) *memRow {
	for i := range m.tables[table] {
		match := true
		for _, c := range keyCols {
			if m.tables[table][i][c] != row[c] {
				match = false
				break
			}
		}
		if match {
			return &m.tables[table][i]
		}
	}
	return nil
}

func (m *memExecutor) QueryOne(ctx context.Context, query string, params []dbexec.Param) (dbexec.Row, error) {
	rows, err := m.QueryAll(ctx, query, params)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (m *memExecutor) QueryAll(ctx context.Context, query string, params []dbexec.Param) ([]dbexec.Row, error) {
	args := paramValues(params)

	if reLabelJoin.MatchString(query) {
		issueID := args[0]
		var labelIDs []any
		for _, a := range m.tables["issue_label_assignments"] {
			if a["issue_id"] == issueID {
				labelIDs = append(labelIDs, a["label_id"])
			}
		}
		var out []dbexec.Row
		for _, l := range m.tables["issue_labels"] {
			for _, id := range labelIDs {
				if l["id"] == id {
					out = append(out, l)
				}
			}
		}
		sortByName(out)
		return out, nil
	}

	if match := reSelectCount.FindStringSubmatch(query); match != nil {
		table, whereClause := match[1], match[2]
		whereCols := extractPlaceholderCols(whereClause)
		var count int64
		for _, row := range m.tables[table] {
			if rowMatches(row, whereCols, args) {
				count++
			}
		}
		return []dbexec.Row{memRow{"cnt": count}}, nil
	}

	match := reSelect.FindStringSubmatch(query)
	if match == nil {
		return nil, nil
	}
	table := match[1]
	whereClause := match[2]
	orderBy := strings.TrimSpace(match[3])
	limitRaw := match[4]

	whereCols := extractPlaceholderCols(whereClause)
	nullCols := extractNullCols(whereClause)

	var matched []memRow
	for _, row := range m.tables[table] {
		if !rowMatches(row, whereCols, args) {
			continue
		}
		if !nullColsMatch(row, nullCols) {
			continue
		}
		matched = append(matched, row)
	}

	if orderBy != "" {
		sortRows(matched, orderBy)
	}

	if limitRaw != "" {
		limit := 0
		if limitRaw == "?" {
			if len(args) > len(whereCols) {
				if n, ok := args[len(args)-1].(int64); ok {
					limit = int(n)
				}
			}
		} else {
			limit, _ = strconv.Atoi(limitRaw)
		}
		if limit > 0 && limit < len(matched) {
			matched = matched[:limit]
		}
	}

	out := make([]dbexec.Row, len(matched))
	for i, r := range matched {
		out[i] = r
	}
	return out, nil
}

func (m *memExecutor) ApplyDDL(ctx context.Context, statements []string) error { return nil }
func (m *memExecutor) Close() error                                           { return nil }

func splitCols(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func extractPlaceholderCols(clause string) []string {
	matches := reCondEq.FindAllStringSubmatch(clause, -1)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m[1]
	}
	return out
}

func extractNullCols(clause string) []string {
	matches := reCondNull.FindAllStringSubmatch(clause, -1)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m[1]
	}
	return out
}

func rowMatches(row memRow, cols []string, vals []any) bool {
	if len(cols) > len(vals) {
		return false
	}
	for i, c := range cols {
		if row[c] != vals[i] {
			return false
		}
	}
	return true
}

func nullColsMatch(row memRow, cols []string) bool {
	for _, c := range cols {
		if row[c] != nil {
			return false
		}
	}
	return true
}

func sortRows(rows []memRow, orderBy string) {
	spec := strings.Fields(orderBy)
	if len(spec) == 0 {
		return
	}
	col := strings.TrimSuffix(strings.TrimSuffix(spec[0], ","), "")
	desc := strings.EqualFold(spec[len(spec)-1], "DESC")

	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && less(rows[j][col], rows[j-1][col], desc); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

func sortByName(rows []dbexec.Row) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0; j-- {
			a, _, _ := rows[j].TryGetString("name")
			b, _, _ := rows[j-1].TryGetString("name")
			if a < b {
				rows[j], rows[j-1] = rows[j-1], rows[j]
			} else {
				break
			}
		}
	}
}

func less(a, b any, desc bool) bool {
	ai, aok := a.(int64)
	bi, bok := b.(int64)
	if aok && bok {
		if desc {
			return ai > bi
		}
		return ai < bi
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	if desc {
		return as > bs
	}
	return as < bs
}
