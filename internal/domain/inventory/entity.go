package inventory

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Item 库存行(库存表中的一本书)
// 设计说明:
// 1. Title是业务主键,表内应唯一(存储层不强制,见Table.Find)
// 2. 单价使用decimal存储,避免浮点误差影响资产估值
// 3. OnHand始终等于所有入库/退货减去出库的净值,且不能为负
type Item struct {
	Title       string          // 书名
	UnitPrice   decimal.Decimal // 单价
	ISBN        string          // ISBN(自由格式,不要求唯一)
	OnHand      int             // 当前库存
	SafetyStock int             // 安全库存阈值
}

// NewItem 创建库存行(工厂方法)
func NewItem(title string, unitPrice decimal.Decimal, isbn string, onHand, safetyStock int) Item {
	return Item{
		Title:       title,
		UnitPrice:   unitPrice,
		ISBN:        isbn,
		OnHand:      onHand,
		SafetyStock: safetyStock,
	}
}

// Validate 校验库存行
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return ErrEmptyTitle
	}
	if i.UnitPrice.IsNegative() {
		return ErrNegativePrice
	}
	if i.OnHand < 0 || i.SafetyStock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// Receive 入库
func (i *Item) Receive(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	i.OnHand += quantity
	return nil
}

// Return 退货入库
func (i *Item) Return(quantity int) error {
	return i.Receive(quantity)
}

// Ship 出库
// 业务规则:出库后库存不能为负数,不足时不做任何修改
func (i *Item) Ship(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if i.OnHand < quantity {
		return ErrInsufficientStock
	}
	i.OnHand -= quantity
	return nil
}

// IsLowStock 是否低于(或等于)安全库存
func (i *Item) IsLowStock() bool {
	return i.OnHand <= i.SafetyStock
}

// Value 库存资产 = 当前库存 × 单价
func (i *Item) Value() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.OnHand)))
}

// Table 库存表
// 保持插入顺序;按书名查找时取第一条匹配
type Table struct {
	items []*Item
}

// NewTable 创建库存表
func NewTable(items ...Item) *Table {
	t := &Table{items: make([]*Item, 0, len(items))}
	for _, it := range items {
		t.Add(it)
	}
	return t
}

// Add 追加一行(不做唯一性校验)
func (t *Table) Add(item Item) {
	it := item
	t.items = append(t.items, &it)
}

// Len 行数
func (t *Table) Len() int {
	return len(t.items)
}

// Items 按插入顺序返回所有行的副本
func (t *Table) Items() []Item {
	out := make([]Item, len(t.items))
	for i, it := range t.items {
		out[i] = *it
	}
	return out
}

// Lookup 按书名查找,返回副本
func (t *Table) Lookup(title string) (Item, bool) {
	it := t.find(title)
	if it == nil {
		return Item{}, false
	}
	return *it, true
}

// find 第一条匹配的行
// 书名重复属于数据完整性问题,这里不尝试合并
func (t *Table) find(title string) *Item {
	for _, it := range t.items {
		if it.Title == title {
			return it
		}
	}
	return nil
}

// Titles 所有书名(插入顺序)
func (t *Table) Titles() []string {
	out := make([]string, len(t.items))
	for i, it := range t.items {
		out[i] = it.Title
	}
	return out
}

// Search 按书名或ISBN做子串匹配,空关键词返回全部
func (t *Table) Search(keyword string) []Item {
	if keyword == "" {
		return t.Items()
	}
	var out []Item
	for _, it := range t.items {
		if strings.Contains(it.Title, keyword) || strings.Contains(it.ISBN, keyword) {
			out = append(out, *it)
		}
	}
	return out
}

// DuplicateTitles 返回出现多次的书名
func (t *Table) DuplicateTitles() []string {
	seen := make(map[string]int, len(t.items))
	var dup []string
	for _, it := range t.items {
		seen[it.Title]++
		if seen[it.Title] == 2 {
			dup = append(dup, it.Title)
		}
	}
	return dup
}

// Clone 深拷贝
func (t *Table) Clone() *Table {
	return NewTable(t.Items()...)
}
