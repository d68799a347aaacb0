package inventory

import "sync"

// Session 会话上下文
// 设计说明:
// 1. 每个会话持有自己的库存表和交易日志,不存在进程级单例
// 2. mu串行化同一会话内的所有操作(过账、保存、重新加载)
// 3. 不同会话之间互不影响;并发写同一份存储时以最后一次保存为准
type Session struct {
	mu      sync.Mutex
	items   *Table
	history *Log
}

// NewSession 创建会话
func NewSession(items *Table, history *Log) *Session {
	if items == nil {
		items = NewTable()
	}
	if history == nil {
		history = NewLog()
	}
	return &Session{items: items, history: history}
}

// Items 库存表(不加锁,调用方需持有会话)
func (s *Session) Items() *Table {
	return s.items
}

// History 交易日志(不加锁,调用方需持有会话)
func (s *Session) History() *Log {
	return s.history
}

// View 在锁内读取会话数据
// fn内不得保留items/history的引用
func (s *Session) View(fn func(items *Table, history *Log)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.items, s.history)
}

// Replace 整体替换会话数据(重新加载)
func (s *Session) Replace(items *Table, history *Log) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.history = history
}
