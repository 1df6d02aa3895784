// Package artifact 定义预计算数值产物（矩阵分解、邻域、语义向量）及其契约校验。
//
// 所有校验只在装载时执行一次：违反契约返回 ARTIFACT_CONTRACT 错误，
// 装载成功的产物不可变，可在请求间共享。
package artifact

import "github.com/rushteam/seedrank/core"

// IndexMap 是物品 ID 与矩阵行号的双向映射，行号必须是连续的 0..N-1 排列。
type IndexMap struct {
	ids  []int64
	rows map[int64]int
}

// NewIndexMap 从 id→row 映射构建 IndexMap。
// 行号越界、重复或存在空洞都会返回契约错误。
func NewIndexMap(idToRow map[int64]int) (*IndexMap, error) {
	n := len(idToRow)
	if n == 0 {
		return nil, core.ArtifactViolation("index map is empty")
	}
	ids := make([]int64, n)
	filled := make([]bool, n)
	for id, row := range idToRow {
		if row < 0 || row >= n {
			return nil, core.ArtifactViolation("index map row %d for id %d out of range [0,%d)", row, id, n)
		}
		if filled[row] {
			return nil, core.ArtifactViolation("index map row %d assigned twice", row)
		}
		filled[row] = true
		ids[row] = id
	}
	rows := make(map[int64]int, n)
	for id, row := range idToRow {
		rows[id] = row
	}
	return &IndexMap{ids: ids, rows: rows}, nil
}

// IndexFromIDs 按行序构建 IndexMap：ids[i] 对应第 i 行。
func IndexFromIDs(ids []int64) (*IndexMap, error) {
	if len(ids) == 0 {
		return nil, core.ArtifactViolation("index map is empty")
	}
	rows := make(map[int64]int, len(ids))
	for i, id := range ids {
		if _, dup := rows[id]; dup {
			return nil, core.ArtifactViolation("index map duplicate id %d", id)
		}
		rows[id] = i
	}
	out := make([]int64, len(ids))
	copy(out, ids)
	return &IndexMap{ids: out, rows: rows}, nil
}

// Len 返回行数。
func (m *IndexMap) Len() int { return len(m.ids) }

// Row 返回 id 对应的行号。
func (m *IndexMap) Row(id int64) (int, bool) {
	row, ok := m.rows[id]
	return row, ok
}

// ID 返回行号对应的物品 ID。
func (m *IndexMap) ID(row int) int64 { return m.ids[row] }

// IDs 返回按行序排列的物品 ID（只读）。
func (m *IndexMap) IDs() []int64 { return m.ids }
