package storage

// 定义了各数据层对象的存取规范：列出前缀下的对象、读取、写入

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidDate = errors.New("invalid date")
)

// 为对象存储统一了规范，键使用"/"分隔
type Store interface {
	// List 返回以prefix开头的全部键，按字典序排列
	List(ctx context.Context, prefix string) ([]string, error)
	// Get 读取对象内容，不存在时返回ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Put 写入对象，已存在时覆盖
	Put(ctx context.Context, key string, data []byte) error
}

const DateLayout = "2006-01-02"

// ValidateDate 校验YYYY-MM-DD格式的日期
func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

// Layout 描述各数据层的对象路径
type Layout struct {
	Root   string
	Source string
	City   string
}

const DefaultRoot = "pipeline"

func (l Layout) root() string {
	if l.Root == "" {
		return DefaultRoot
	}
	return strings.TrimRight(l.Root, "/")
}

// RawPrefix 某一采集日期的原始页面目录，例如 pipeline/raw/vivareal/florianopolis/2023-11-28/
func (l Layout) RawPrefix(date string) string {
	return path.Join(l.root(), "raw", l.Source, l.City, date) + "/"
}

// RawKey 单个原始页面，例如 .../2023-11-28/aluguel-3.html
func (l Layout) RawKey(date, pattern string, page int) string {
	return l.RawPrefix(date) + pattern + "-" + strconv.Itoa(page) + ".html"
}

func (l Layout) ExtractedKey(date, pattern, ext string) string {
	return path.Join(l.root(), "extracted", l.Source, l.City, pattern+"-"+date+"."+ext)
}

func (l Layout) FormattedPrefix() string {
	return path.Join(l.root(), "formatted", l.Source, l.City) + "/"
}

func (l Layout) FormattedKey(date, ext string) string {
	return l.FormattedPrefix() + "formatted-" + date + "." + ext
}

func (l Layout) CuratedKey(ext string) string {
	return path.Join(l.root(), "curated", l.Source, l.City, "listings_history."+ext)
}

// Memory 是内存中的对象存储，用于测试和试运行
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}
