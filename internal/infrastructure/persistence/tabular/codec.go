// Package tabular 库存表/交易日志与CSV之间的编解码
//
// 文件格式:UTF-8 CSV,首行为表头。读取时按表头名称映射列,
// 同时兼容旧版数据的韩文表头;写出时总是使用英文表头。
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/pressledger/internal/domain/inventory"
	apperrors "github.com/xiebiao/pressledger/pkg/errors"
)

// TimeLayout 交易时间格式
const TimeLayout = inventory.TimeLayout

// 列定义:规范表头 + 兼容别名
type column struct {
	name    string
	aliases []string
}

var inventoryColumns = []column{
	{"title", []string{"책 이름"}},
	{"unit_price", []string{"가격"}},
	{"isbn", []string{"ISBN"}},
	{"on_hand_quantity", []string{"현재 수량"}},
	{"safety_stock_threshold", []string{"안전 재고"}},
}

var historyColumns = []column{
	{"timestamp", []string{"일시"}},
	{"client_name", []string{"거래처"}},
	{"title", []string{"책 이름"}},
	{"kind", []string{"구분"}},
	{"quantity", []string{"수량"}},
	{"unit_price", []string{"가격"}},
}

// ErrMalformed 数据格式错误
var ErrMalformed = apperrors.New(apperrors.ErrCodeLocalParse, "数据文件格式错误")

func malformed(format string, args ...interface{}) error {
	return ErrMalformed.WithCause(fmt.Errorf(format, args...))
}

// EncodeInventory 编码库存表
func EncodeInventory(table *inventory.Table) ([]byte, error) {
	rows := [][]string{headerOf(inventoryColumns)}
	for _, it := range table.Items() {
		rows = append(rows, []string{
			it.Title,
			it.UnitPrice.String(),
			it.ISBN,
			strconv.Itoa(it.OnHand),
			strconv.Itoa(it.SafetyStock),
		})
	}
	return writeAll(rows)
}

// DecodeInventory 解码库存表
func DecodeInventory(data []byte) (*inventory.Table, error) {
	idx, rows, err := readAll(data, inventoryColumns)
	if err != nil {
		return nil, err
	}

	table := inventory.NewTable()
	for n, row := range rows {
		line := n + 2
		price, err := parseDecimal(row[idx[1]])
		if err != nil {
			return nil, malformed("line %d: unit_price: %v", line, err)
		}
		onHand, err := parseQuantity(row[idx[3]])
		if err != nil {
			return nil, malformed("line %d: on_hand_quantity: %v", line, err)
		}
		safety, err := parseQuantity(row[idx[4]])
		if err != nil {
			return nil, malformed("line %d: safety_stock_threshold: %v", line, err)
		}

		item := inventory.NewItem(row[idx[0]], price, row[idx[2]], onHand, safety)
		if err := item.Validate(); err != nil {
			return nil, malformed("line %d: %v", line, err)
		}
		table.Add(item)
	}
	return table, nil
}

// EncodeHistory 编码交易日志(保持最新在前的存储顺序)
func EncodeHistory(log *inventory.Log) ([]byte, error) {
	rows := [][]string{headerOf(historyColumns)}
	for _, r := range log.Records() {
		rows = append(rows, []string{
			r.Timestamp.Format(TimeLayout),
			r.Client,
			r.Title,
			string(r.Kind),
			strconv.Itoa(r.Quantity),
			r.UnitPrice.String(),
		})
	}
	return writeAll(rows)
}

// DecodeHistory 解码交易日志
func DecodeHistory(data []byte) (*inventory.Log, error) {
	idx, rows, err := readAll(data, historyColumns)
	if err != nil {
		return nil, err
	}

	records := make([]inventory.Record, 0, len(rows))
	for n, row := range rows {
		line := n + 2
		ts, err := time.ParseInLocation(TimeLayout, row[idx[0]], time.Local)
		if err != nil {
			return nil, malformed("line %d: timestamp: %v", line, err)
		}
		kind, err := inventory.ParseKind(row[idx[3]])
		if err != nil {
			return nil, malformed("line %d: kind %q", line, row[idx[3]])
		}
		qty, err := parseQuantity(row[idx[4]])
		if err != nil {
			return nil, malformed("line %d: quantity: %v", line, err)
		}
		price, err := parseDecimal(row[idx[5]])
		if err != nil {
			return nil, malformed("line %d: unit_price: %v", line, err)
		}
		rec := inventory.Record{
			Timestamp: ts,
			Client:    row[idx[1]],
			Title:     row[idx[2]],
			Kind:      kind,
			Quantity:  qty,
			UnitPrice: price,
		}
		if err := rec.Validate(); err != nil {
			return nil, malformed("line %d: %v", line, err)
		}
		records = append(records, rec)
	}
	return inventory.NewLog(records...), nil
}

func headerOf(cols []column) []string {
	h := make([]string, len(cols))
	for i, c := range cols {
		h[i] = c.name
	}
	return h
}

func writeAll(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, apperrors.Wrap(err, "CSV编码失败")
	}
	return buf.Bytes(), nil
}

// readAll 解析CSV,返回每个列定义在行中的位置
func readAll(data []byte, cols []column) ([]int, [][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, malformed("missing header row")
	}
	if err != nil {
		return nil, nil, malformed("header: %v", err)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}

	idx := make([]int, len(cols))
	for i, c := range cols {
		p, ok := lookup(pos, c)
		if !ok {
			return nil, nil, malformed("missing column %q", c.name)
		}
		idx[i] = p
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, malformed("%v", err)
	}
	for n, row := range rows {
		if len(row) != len(header) {
			return nil, nil, malformed("line %d: expected %d fields, got %d", n+2, len(header), len(row))
		}
	}
	return idx, rows, nil
}

func lookup(pos map[string]int, c column) (int, bool) {
	if p, ok := pos[c.name]; ok {
		return p, true
	}
	for _, a := range c.aliases {
		if p, ok := pos[a]; ok {
			return p, true
		}
	}
	return 0, false
}

func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

// parseQuantity 解析整数数量
// 旧版数据可能包含"50.0"这样的浮点形式,只要是整数值就接受
func parseQuantity(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(d.IntPart()), nil
}
