package tabular

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/pressledger/internal/domain/inventory"
	apperrors "github.com/xiebiao/pressledger/pkg/errors"
)

func TestInventoryRoundTrip(t *testing.T) {
	table := inventory.NewTable(
		inventory.NewItem("인하의 역사", decimal.NewFromInt(15000), "979-11-87", 50, 10),
		inventory.NewItem("Title, with comma", decimal.RequireFromString("1234.5"), "", 0, 3),
	)

	data, err := EncodeInventory(table)
	require.NoError(t, err)
	assert.Contains(t, string(data), "title,unit_price,isbn,on_hand_quantity,safety_stock_threshold\n")

	decoded, err := DecodeInventory(data)
	require.NoError(t, err)
	require.Equal(t, table.Len(), decoded.Len())
	for i, want := range table.Items() {
		got := decoded.Items()[i]
		assert.Equal(t, want.Title, got.Title)
		assert.True(t, want.UnitPrice.Equal(got.UnitPrice), "单价应一致")
		assert.Equal(t, want.ISBN, got.ISBN)
		assert.Equal(t, want.OnHand, got.OnHand)
		assert.Equal(t, want.SafetyStock, got.SafetyStock)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 1, 8, 9, 10, 0, time.Local)
	log := inventory.NewLog(
		inventory.Record{Timestamp: ts.Add(time.Hour), Client: "Kyobo", Title: "A", Kind: inventory.KindShip, Quantity: 3, UnitPrice: decimal.NewFromInt(15000)},
		inventory.Record{Timestamp: ts, Client: "Printer", Title: "A", Kind: inventory.KindReceive, Quantity: 30, UnitPrice: decimal.NewFromInt(15000)},
	)

	data, err := EncodeHistory(log)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-05-01 09:09:10,Kyobo,A,SHIP,3,15000\n")

	decoded, err := DecodeHistory(data)
	require.NoError(t, err)
	require.Equal(t, 2, decoded.Len())
	got := decoded.Records()
	assert.True(t, got[0].Timestamp.Equal(ts.Add(time.Hour)), "存储顺序保持最新在前")
	assert.Equal(t, inventory.KindReceive, got[1].Kind)
	assert.Equal(t, 30, got[1].Quantity)
}

func TestDecodeLegacyHeaders(t *testing.T) {
	inv := "\ufeff책 이름,가격,ISBN,현재 수량,안전 재고\n파이썬 정복,25000.0,979-11-99,5.0,10\n"
	table, err := DecodeInventory([]byte(inv))
	require.NoError(t, err)
	item, ok := table.Lookup("파이썬 정복")
	require.True(t, ok)
	assert.Equal(t, 5, item.OnHand, "整数值的浮点形式也接受")
	assert.Equal(t, "25000", item.UnitPrice.String())

	hist := "일시,거래처,책 이름,구분,수량,가격\n2024-01-02 03:04:05,교보문고,파이썬 정복,출고,2,25000\n"
	log, err := DecodeHistory([]byte(hist))
	require.NoError(t, err)
	require.Equal(t, 1, log.Len())
	assert.Equal(t, inventory.KindShip, log.Records()[0].Kind)
	assert.Equal(t, "교보문고", log.Records()[0].Client)
}

func TestDecodeColumnOrderIndependent(t *testing.T) {
	inv := "isbn,title,safety_stock_threshold,unit_price,on_hand_quantity\nX-1,Book,2,100,7\n"
	table, err := DecodeInventory([]byte(inv))
	require.NoError(t, err)
	item, _ := table.Lookup("Book")
	assert.Equal(t, 7, item.OnHand)
	assert.Equal(t, 2, item.SafetyStock)
	assert.Equal(t, "X-1", item.ISBN)
}

func TestDecodeHeaderOnly(t *testing.T) {
	log, err := DecodeHistory([]byte("timestamp,client_name,title,kind,quantity,unit_price\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, log.Len())
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"空文件":    "",
		"缺少列":    "title,unit_price\nA,1\n",
		"数量非整数":  "title,unit_price,isbn,on_hand_quantity,safety_stock_threshold\nA,1,,2.5,0\n",
		"单价不是数字": "title,unit_price,isbn,on_hand_quantity,safety_stock_threshold\nA,abc,,1,0\n",
		"负库存":    "title,unit_price,isbn,on_hand_quantity,safety_stock_threshold\nA,1,,-1,0\n",
		"字段数不一致": "title,unit_price,isbn,on_hand_quantity,safety_stock_threshold\nA,1,,1\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeInventory([]byte(data))
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeLocalParse), "应返回数据文件损坏错误: %v", err)
		})
	}

	t.Run("时间格式错误", func(t *testing.T) {
		_, err := DecodeHistory([]byte("timestamp,client_name,title,kind,quantity,unit_price\n2024/01/01,A,B,SHIP,1,1\n"))
		assert.ErrorIs(t, err, ErrMalformed)
	})
	t.Run("未知类型", func(t *testing.T) {
		_, err := DecodeHistory([]byte("timestamp,client_name,title,kind,quantity,unit_price\n2024-01-01 00:00:00,A,B,SWAP,1,1\n"))
		assert.ErrorIs(t, err, ErrMalformed)
	})

	records := map[string]string{
		"数量为负":  "2024-01-01 00:00:00,A,Sample Book,SHIP,-5,1",
		"数量为0":  "2024-01-01 00:00:00,A,Sample Book,SHIP,0,1",
		"交易方为空": "2024-01-01 00:00:00,,Sample Book,SHIP,5,1",
		"书名为空":  "2024-01-01 00:00:00,A, ,SHIP,5,1",
		"单价为负":  "2024-01-01 00:00:00,A,Sample Book,SHIP,5,-1",
	}
	for name, row := range records {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeHistory([]byte("timestamp,client_name,title,kind,quantity,unit_price\n" + row + "\n"))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}
