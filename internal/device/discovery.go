package device

import (
	"fmt"
	"sort"

	evdev "github.com/holoplot/go-evdev"
)

// InputNode は /dev/input 以下のイベントデバイス
type InputNode struct {
	Name string `json:"name"`
	Path string `json:"path"`
	// Own はこのプロセスが作成した仮想デバイスかどうか
	Own bool `json:"own"`
}

var listDevicePaths = evdev.ListDevicePaths

// ListInputNodes は現在接続されているイベントデバイスをパス順に返す
func ListInputNodes(ownName string) ([]InputNode, error) {
	paths, err := listDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("デバイス一覧の取得に失敗しました: %w", err)
	}

	nodes := make([]InputNode, 0, len(paths))
	for _, p := range paths {
		nodes = append(nodes, InputNode{
			Name: p.Name,
			Path: p.Path,
			Own:  ownName != "" && p.Name == ownName,
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	return nodes, nil
}
