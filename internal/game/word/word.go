// Package word 提供出题用的词库
package word

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed words.yaml
var builtinWords []byte

// ErrEmptyCatalog 词库中没有任何词
var ErrEmptyCatalog = errors.New("word catalog is empty")

// Catalog 只读词库，每次随机抽取一个词
type Catalog interface {
	PickRandomWord() string
}

// List 基于切片的词库实现
type List struct {
	words []string
	intN  func(n int) int
}

// NewList 由词列表创建词库，会去掉空白和重复项
func NewList(words []string) (*List, error) {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	if len(out) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &List{words: out, intN: rand.IntN}, nil
}

// Builtin 返回内置词库
func Builtin() *List {
	l, err := Parse(builtinWords)
	if err != nil {
		panic(fmt.Sprintf("builtin word list is broken: %v", err))
	}
	return l
}

// LoadFile 从 YAML 文件加载词库
func LoadFile(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return l, nil
}

// Load 根据配置选择词库，path 为空时使用内置词库
func Load(path string) (*List, error) {
	if path == "" {
		return Builtin(), nil
	}
	return LoadFile(path)
}

// Parse 解析词库文件，支持两种格式：
// 平铺列表 `[a, b, c]`，或按分类的映射 `animals: [a, b]`
func Parse(data []byte) (*List, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, ErrEmptyCatalog
	}

	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var words []string
		if err := root.Decode(&words); err != nil {
			return nil, err
		}
		return NewList(words)
	case yaml.MappingNode:
		var words []string
		// 按文件中的分类顺序合并
		for i := 0; i+1 < len(root.Content); i += 2 {
			var group []string
			if err := root.Content[i+1].Decode(&group); err != nil {
				return nil, fmt.Errorf("category %q: %w", root.Content[i].Value, err)
			}
			words = append(words, group...)
		}
		return NewList(words)
	default:
		return nil, fmt.Errorf("unexpected yaml node kind %d", root.Kind)
	}
}

// PickRandomWord 均匀随机抽取一个词
func (l *List) PickRandomWord() string {
	return l.words[l.intN(len(l.words))]
}

// Len 词库大小
func (l *List) Len() int {
	return len(l.words)
}

// Words 返回词列表副本
func (l *List) Words() []string {
	return append([]string(nil), l.words...)
}
