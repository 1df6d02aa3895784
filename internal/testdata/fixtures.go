// Package testdata 提供测试共用的小型目录与数值产物。
package testdata

import (
	"fmt"
	"math"
	"testing"

	"github.com/rushteam/seedrank/artifact"
	"github.com/rushteam/seedrank/catalog"
	"github.com/rushteam/seedrank/core"
)

// 10 条目录中常用的 ID
const (
	FMAB       int64 = 1
	SteinsGate int64 = 2
	HxH        int64 = 3
	AoT        int64 = 4
	YourName   int64 = 8
	AoTSequel  int64 = 10
)

// Items 返回 10 条动画目录。
func Items() []core.CatalogItem {
	return []core.CatalogItem{
		{ID: 1, Title: "Fullmetal Alchemist: Brotherhood", Genres: []string{"Action", "Adventure", "Drama"},
			Themes: []string{"Military"}, Demographics: []string{"Shounen"}, Studios: []string{"Bones"},
			Type: "TV", Episodes: 64, Year: 2009, Rating: 9.1, HasRating: true, Members: 3_000_000},
		{ID: 2, Title: "Steins;Gate", Genres: []string{"Drama", "Sci-Fi", "Suspense"},
			Themes: []string{"Time Travel"}, Studios: []string{"White Fox"},
			Type: "TV", Episodes: 24, Year: 2011, Rating: 9.07, HasRating: true, Members: 2_500_000},
		{ID: 3, Title: "Hunter x Hunter", Genres: []string{"Action", "Adventure", "Fantasy"},
			Demographics: []string{"Shounen"}, Studios: []string{"Madhouse"},
			Type: "TV", Episodes: 148, Year: 2011, Rating: 9.04, HasRating: true, Members: 2_800_000},
		{ID: 4, Title: "Attack on Titan", Genres: []string{"Action", "Drama", "Suspense"},
			Themes: []string{"Gore", "Military", "Survival"}, Demographics: []string{"Shounen"}, Studios: []string{"Wit Studio"},
			Type: "TV", Episodes: 25, Year: 2013, Rating: 8.54, HasRating: true, Members: 3_800_000},
		{ID: 5, Title: "Gintama", Genres: []string{"Action", "Comedy", "Sci-Fi"},
			Themes: []string{"Parody", "Samurai"}, Demographics: []string{"Shounen"}, Studios: []string{"Sunrise"},
			Type: "TV", Episodes: 201, Year: 2006, Rating: 8.94, HasRating: true, Members: 600_000},
		{ID: 6, Title: "Cowboy Bebop", Genres: []string{"Action", "Award Winning", "Sci-Fi"},
			Themes: []string{"Space"}, Studios: []string{"Sunrise"},
			Type: "TV", Episodes: 26, Year: 1998, Rating: 8.75, HasRating: true, Members: 1_900_000},
		{ID: 7, Title: "K-On!", Genres: []string{"Comedy"},
			Themes: []string{"Music", "School"}, Studios: []string{"Kyoto Animation"},
			Type: "TV", Episodes: 13, Year: 2009, Rating: 7.86, HasRating: true, Members: 1_000_000},
		{ID: 8, Title: "Your Name", Genres: []string{"Award Winning", "Drama", "Supernatural"},
			Studios: []string{"CoMix Wave Films"},
			Type: "Movie", Episodes: 1, Year: 2016, Rating: 8.83, HasRating: true, Members: 2_600_000},
		{ID: 9, Title: "Mushishi", Genres: []string{"Adventure", "Mystery", "Slice of Life", "Supernatural"},
			Demographics: []string{"Seinen"}, Studios: []string{"Artland"},
			Type: "TV", Episodes: 26, Year: 2005, Rating: 8.66, HasRating: true, Members: 400_000},
		{ID: 10, Title: "Attack on Titan Season 2", Genres: []string{"Action", "Drama", "Suspense"},
			Themes: []string{"Gore", "Military", "Survival"}, Demographics: []string{"Shounen"}, Studios: []string{"Wit Studio"},
			Type: "TV", Episodes: 12, Year: 2017, Rating: 8.52, HasRating: true, Members: 2_400_000},
	}
}

// neuralVectors 是 4 维概念空间中的未归一化向量：[热血动作, 科幻推理, 日常喜剧, 浪漫超自然]。
func neuralVectors() map[int64][]float64 {
	return map[int64][]float64{
		1:  {0.9, 0.3, 0.1, 0.3},
		2:  {0.3, 0.9, 0.1, 0.3},
		3:  {0.95, 0.2, 0.2, 0.1},
		4:  {0.9, 0.3, 0.0, 0.1},
		5:  {0.6, 0.3, 0.7, 0.1},
		6:  {0.5, 0.7, 0.3, 0.2},
		7:  {0.05, 0.1, 0.95, 0.2},
		8:  {0.2, 0.2, 0.2, 0.9},
		9:  {0.2, 0.3, 0.4, 0.8},
		10: {0.88, 0.35, 0.0, 0.1},
	}
}

// TasteVector 返回一个偏好第二个隐因子的用户口味向量。
func TasteVector() []float64 { return []float64{0.1, 1.0} }

// Options 控制快照中哪些产物缺失。
type Options struct {
	NoMF           bool
	NoNeighborhood bool
	NoEmbeddings   bool
}

// Snapshot 返回 10 条目录的完整快照。
func Snapshot(tb testing.TB) *artifact.Snapshot {
	return SnapshotWith(tb, Options{})
}

// SnapshotWith 按选项构建 10 条目录快照。
func SnapshotWith(tb testing.TB, opts Options) *artifact.Snapshot {
	tb.Helper()
	return Build(tb, Items(), neuralVectors(), opts)
}

// Build 用给定目录与神经向量构建快照。MF 与邻域产物由物品 ID 确定性生成。
func Build(tb testing.TB, items []core.CatalogItem, vectors map[int64][]float64, opts Options) *artifact.Snapshot {
	tb.Helper()
	cat, err := catalog.New(items)
	if err != nil {
		tb.Fatalf("catalog: %v", err)
	}
	ids := cat.IDs()
	idx, err := artifact.IndexFromIDs(ids)
	if err != nil {
		tb.Fatalf("index: %v", err)
	}

	var b artifact.Bundle
	if !opts.NoMF {
		q := make([][]float64, len(ids))
		for i, id := range ids {
			q[i] = mfRow(id)
		}
		p := [][]float64{{1, 0}, {0.5, 0.5}, {0.2, 0.8}}
		if b.MF, err = artifact.NewMF(p, q, 0.1, idx); err != nil {
			tb.Fatalf("mf: %v", err)
		}
	}
	if !opts.NoNeighborhood {
		pop := make([]float64, len(ids))
		row := make([]float64, len(ids))
		for i, id := range ids {
			it, _ := cat.Item(id)
			pop[i] = float64(it.Members)
			row[i] = float64((id*37)%11) / 10
		}
		if b.Neighborhood, err = artifact.NewNeighborhood(idx, [][]float64{row}, pop); err != nil {
			tb.Fatalf("neighborhood: %v", err)
		}
	}
	if !opts.NoEmbeddings && len(vectors) > 0 {
		const dim = 4
		data := make([]float32, len(ids)*dim)
		for i, id := range ids {
			v, ok := vectors[id]
			if !ok {
				continue
			}
			copy(data[i*dim:(i+1)*dim], unit(v))
		}
		if b.Embeddings[core.ChannelNeural], err = artifact.NewEmbedding("neural", idx, dim, data); err != nil {
			tb.Fatalf("embedding: %v", err)
		}
	}

	snap, err := artifact.NewSnapshot(cat, b)
	if err != nil {
		tb.Fatalf("snapshot: %v", err)
	}
	return snap
}

func mfRow(id int64) []float64 {
	known := map[int64][]float64{
		1: {1.0, 0.2}, 2: {0.9, 0.4}, 3: {0.95, 0.1}, 4: {0.8, 0.3}, 5: {0.7, 0.6},
		6: {0.6, 0.5}, 7: {0.2, 0.9}, 8: {0.5, 0.8}, 9: {0.3, 0.7}, 10: {0.75, 0.3},
	}
	if r, ok := known[id]; ok {
		return r
	}
	return []float64{0.5 + 0.01*float64(id%7), 0.3 + 0.01*float64(id%5)}
}

func unit(v []float64) []float32 {
	n := 0.0
	for _, x := range v {
		n += x * x
	}
	n = math.Sqrt(n)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x / n)
	}
	return out
}

// FranchiseIDs 是 FranchiseSnapshot 中与 Attack on Titan 同系列的物品。
func FranchiseIDs() []int64 {
	ids := []int64{AoTSequel}
	for i := int64(0); i < 12; i++ {
		ids = append(ids, 100+i)
	}
	return ids
}

// FranchiseSnapshot 在 10 条目录基础上追加 12 部 Attack on Titan 系列作品与 20 部无关作品，
// 用于验证系列多样性上限。
func FranchiseSnapshot(tb testing.TB) *artifact.Snapshot {
	tb.Helper()
	suffixes := []string{
		"Season 3", "Season 3 Part 2", "The Final Season", "Final Season Part 2",
		"Final Chapters", "No Regrets", "Lost Girls", "Junior High",
		"Chronicle", "Crimson Bow and Arrow", "Wings of Freedom", "Roar of Awakening",
	}
	items := Items()
	vectors := neuralVectors()
	for i, s := range suffixes {
		id := int64(100 + i)
		items = append(items, core.CatalogItem{
			ID: id, Title: "Attack on Titan " + s, Genres: []string{"Action", "Drama", "Suspense"},
			Themes: []string{"Gore", "Military", "Survival"}, Demographics: []string{"Shounen"},
			Studios: []string{"Wit Studio"}, Type: "TV", Episodes: 12, Year: 2018,
			Rating: 8.5, HasRating: true, Members: int64(2_000_000 - i*10_000),
		})
		vectors[id] = []float64{0.9, 0.3, 0.01 * float64(i), 0.1}
	}
	for j := 0; j < 20; j++ {
		id := int64(200 + j)
		items = append(items, core.CatalogItem{
			ID: id, Title: fmt.Sprintf("Mecha Frontier %c", 'A'+j), Genres: []string{"Action", "Sci-Fi"},
			Studios: []string{"Sunrise"}, Type: "TV", Episodes: 24, Year: 2015,
			Rating: 7.5, HasRating: true, Members: int64(500_000 - j*1_000),
		})
		vectors[id] = []float64{0.7, 0.5, 0.2, 0.1 + 0.01*float64(j)}
	}
	return Build(tb, items, vectors, Options{})
}
