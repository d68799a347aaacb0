package inventory

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout 交易时间格式,数据文件和接口输出共用
const TimeLayout = "2006-01-02 15:04:05"

// Kind 交易类型
type Kind string

const (
	KindReceive Kind = "RECEIVE" // 入库
	KindShip    Kind = "SHIP"    // 出库(销售)
	KindReturn  Kind = "RETURN"  // 退货
)

// Kinds 所有合法的交易类型
var Kinds = []Kind{KindReceive, KindShip, KindReturn}

// legacyKindLabels 旧版数据文件中使用的类型标签
var legacyKindLabels = map[string]Kind{
	"입고": KindReceive,
	"출고": KindShip,
	"반품": KindReturn,
}

// ParseKind 解析交易类型
// 同时接受英文名称(大小写不敏感)和旧版数据中的韩文标签
func ParseKind(s string) (Kind, error) {
	v := strings.TrimSpace(s)
	if k, ok := legacyKindLabels[v]; ok {
		return k, nil
	}
	k := Kind(strings.ToUpper(v))
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// Valid 是否为合法类型
func (k Kind) Valid() bool {
	switch k {
	case KindReceive, KindShip, KindReturn:
		return true
	default:
		return false
	}
}

// Label 显示名称
func (k Kind) Label() string {
	for label, kind := range legacyKindLabels {
		if kind == k {
			return label
		}
	}
	return string(k)
}

// Record 交易记录(只增不改)
// 设计说明:
// 1. UnitPrice是过账时的单价快照,之后改价不影响历史记录
// 2. Timestamp精确到秒
type Record struct {
	Timestamp time.Time       // 过账时间
	Client    string          // 交易方(书店、印刷厂等)
	Title     string          // 书名
	Kind      Kind            // 交易类型
	Quantity  int             // 数量(>0)
	UnitPrice decimal.Decimal // 过账时单价
}

// Validate 校验交易记录
// 读取数据文件时使用,过账时的校验见Service.Post
func (r Record) Validate() error {
	if strings.TrimSpace(r.Client) == "" {
		return ErrEmptyClient
	}
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	if !r.Kind.Valid() {
		return ErrInvalidKind
	}
	if r.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if r.UnitPrice.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// Amount 金额 = 数量 × 单价
func (r Record) Amount() decimal.Decimal {
	return r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// Log 交易日志
// 最新记录在前;记录只会被追加,不会被删除或修改
type Log struct {
	records []Record
}

// NewLog 按给定顺序(最新在前)创建日志
func NewLog(records ...Record) *Log {
	out := make([]Record, len(records))
	copy(out, records)
	return &Log{records: out}
}

// Prepend 在最前面插入一条记录
func (l *Log) Prepend(r Record) {
	l.records = append([]Record{r}, l.records...)
}

// Len 记录数
func (l *Log) Len() int {
	return len(l.records)
}

// Records 存储顺序(最新在前)的副本
func (l *Log) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// SortedByTime 按时间倒序排列(相同时间保持存储顺序)
func (l *Log) SortedByTime() []Record {
	out := l.Records()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Clone 拷贝
func (l *Log) Clone() *Log {
	return NewLog(l.records...)
}
