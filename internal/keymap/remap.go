package keymap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

// 組み込みのリマッププロファイル
var remapProfiles = map[string]map[evdev.EvCode]evdev.EvCode{
	"android": {
		evdev.KEY_HOME: evdev.KEY_HOMEPAGE,
		evdev.KEY_F7:   evdev.KEY_POWER,
	},
}

// Remapper は注入側でのみ使うキーコードの置き換え表。
// 作成後は読み取り専用
type Remapper struct {
	overrides map[Keycode]Keycode
}

// NewRemapper はプロファイル名と個別指定からRemapperを作成する。
// entries のキーと値は "KEY_HOME" のようなevdev名か数値
func NewRemapper(profile string, entries map[string]string) (*Remapper, error) {
	r := &Remapper{overrides: make(map[Keycode]Keycode)}

	if profile != "" {
		table, ok := remapProfiles[profile]
		if !ok {
			return nil, fmt.Errorf("unknown remap profile %q", profile)
		}
		for from, to := range table {
			r.overrides[Keycode(from)] = Keycode(to)
		}
	}

	for fromName, toName := range entries {
		from, err := ParseKeycode(fromName)
		if err != nil {
			return nil, fmt.Errorf("remap %s: %w", fromName, err)
		}
		to, err := ParseKeycode(toName)
		if err != nil {
			return nil, fmt.Errorf("remap %s: %w", fromName, err)
		}
		r.overrides[from] = to
	}

	return r, nil
}

// Remap は置き換えがあればそのコードを、なければ code をそのまま返す
func (r *Remapper) Remap(code Keycode) Keycode {
	if r == nil {
		return code
	}
	if to, ok := r.overrides[code]; ok {
		return to
	}
	return code
}

// Targets は置き換え先のキーコードを重複なしの昇順で返す
func (r *Remapper) Targets() []Keycode {
	if r == nil {
		return nil
	}
	seen := make(map[Keycode]bool, len(r.overrides))
	targets := make([]Keycode, 0, len(r.overrides))
	for _, to := range r.overrides {
		if seen[to] {
			continue
		}
		seen[to] = true
		targets = append(targets, to)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets
}

// Len は置き換えの件数
func (r *Remapper) Len() int {
	if r == nil {
		return 0
	}
	return len(r.overrides)
}

// ParseKeycode はevdev名 ("KEY_HOME") または数値をキーコードに変換する
func ParseKeycode(name string) (Keycode, error) {
	name = strings.TrimSpace(name)
	if code, ok := evdev.KEYFromString[strings.ToUpper(name)]; ok {
		return Keycode(code), nil
	}
	n, err := strconv.ParseUint(name, 0, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("unknown key code %q", name)
	}
	return Keycode(n), nil
}
