package inventory

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// fakeSaver 记录保存次数,可注入失败
type fakeSaver struct {
	calls int
	err   error
}

func (f *fakeSaver) Save(_ context.Context, _ *Session) (*SaveReport, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &SaveReport{Status: StatusLocalOnly}, nil
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 5, 14, 30, 15, 987654321, time.Local)
}

func sampleSession() *Session {
	return NewSession(NewTable(
		NewItem("Sample Book", decimal.NewFromInt(15000), "979-11-00", 50, 10),
		NewItem("Other Book", decimal.NewFromInt(25000), "979-11-01", 5, 10),
	), NewLog())
}

// TestPost_SampleBookScenario 出库至安全库存以下,再次出库被拒绝
func TestPost_SampleBookScenario(t *testing.T) {
	saver := &fakeSaver{}
	svc := NewService(saver, WithClock(fixedClock))
	sess := sampleSession()
	ctx := context.Background()

	result, err := svc.Post(ctx, sess, &PostRequest{Kind: KindShip, Title: "Sample Book", Client: "Kyobo", Quantity: 45})
	if err != nil {
		t.Fatalf("出库45本期望成功，实际失败: %v", err)
	}
	if result.Before != 50 || result.After != 5 {
		t.Errorf("期望库存50→5，实际%d→%d", result.Before, result.After)
	}
	item, _ := sess.Items().Lookup("Sample Book")
	if !item.IsLowStock() {
		t.Error("库存5≤安全库存10，应该触发低库存预警")
	}

	_, err = svc.Post(ctx, sess, &PostRequest{Kind: KindShip, Title: "Sample Book", Client: "Kyobo", Quantity: 10})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("期望ErrInsufficientStock，实际%v", err)
	}
	item, _ = sess.Items().Lookup("Sample Book")
	if item.OnHand != 5 {
		t.Errorf("出库被拒绝后库存应保持5，实际%d", item.OnHand)
	}
	if sess.History().Len() != 1 {
		t.Errorf("期望只有1条交易记录，实际%d条", sess.History().Len())
	}
	if saver.calls != 1 {
		t.Errorf("期望只保存1次，实际%d次", saver.calls)
	}

	t.Log("✅ Sample Book场景通过")
}

// TestPost_RecordSnapshot 交易记录的时间与单价
func TestPost_RecordSnapshot(t *testing.T) {
	svc := NewService(nil, WithClock(fixedClock))
	sess := sampleSession()

	result, err := svc.Post(context.Background(), sess, &PostRequest{Kind: KindReceive, Title: "Other Book", Client: "  Printer A  ", Quantity: 20})
	if err != nil {
		t.Fatalf("入库失败: %v", err)
	}

	rec := result.Record
	want := time.Date(2024, 3, 5, 14, 30, 15, 0, time.Local)
	if !rec.Timestamp.Equal(want) {
		t.Errorf("期望时间截断到秒%v，实际%v", want, rec.Timestamp)
	}
	if rec.Client != "Printer A" {
		t.Errorf("交易方应去除首尾空格，实际%q", rec.Client)
	}
	if !rec.UnitPrice.Equal(decimal.NewFromInt(25000)) {
		t.Errorf("期望单价25000，实际%s", rec.UnitPrice)
	}
	if got := sess.History().Records()[0]; got != rec {
		t.Error("新记录应该位于日志最前面")
	}
	if result.Persist != nil || result.PersistErr != nil {
		t.Error("未配置存储时不应有保存结果")
	}
}

// TestPost_Validation 校验失败不产生任何副作用
func TestPost_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  PostRequest
		want error
	}{
		{"交易方为空", PostRequest{Kind: KindReceive, Title: "Sample Book", Client: "   ", Quantity: 1}, ErrEmptyClient},
		{"书名不存在", PostRequest{Kind: KindReceive, Title: "No Such Book", Client: "A", Quantity: 1}, ErrUnknownTitle},
		{"数量为0", PostRequest{Kind: KindReceive, Title: "Sample Book", Client: "A", Quantity: 0}, ErrInvalidQuantity},
		{"数量为负", PostRequest{Kind: KindShip, Title: "Sample Book", Client: "A", Quantity: -3}, ErrInvalidQuantity},
		{"类型不合法", PostRequest{Kind: Kind("TRANSFER"), Title: "Sample Book", Client: "A", Quantity: 1}, ErrInvalidKind},
		{"交易方优先于书名校验", PostRequest{Kind: KindReceive, Title: "No Such Book", Client: "", Quantity: 0}, ErrEmptyClient},
		{"库存不足", PostRequest{Kind: KindShip, Title: "Other Book", Client: "A", Quantity: 6}, ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := &fakeSaver{}
			svc := NewService(saver)
			sess := sampleSession()
			before := sess.Items().Items()

			_, err := svc.Post(context.Background(), sess, &tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("期望%v，实际%v", tt.want, err)
			}

			after := sess.Items().Items()
			for i := range before {
				if before[i].OnHand != after[i].OnHand {
					t.Errorf("%s库存被修改: %d→%d", before[i].Title, before[i].OnHand, after[i].OnHand)
				}
			}
			if sess.History().Len() != 0 {
				t.Error("被拒绝的请求不应写入交易日志")
			}
			if saver.calls != 0 {
				t.Error("被拒绝的请求不应触发保存")
			}
		})
	}

	if !IsValidationError(ErrUnknownTitle) || IsValidationError(ErrInsufficientStock) {
		t.Error("库存不足不属于参数校验错误")
	}
}

// TestPost_PersistFailure 保存失败不回滚内存修改
func TestPost_PersistFailure(t *testing.T) {
	saver := &fakeSaver{err: errors.New("disk full")}
	svc := NewService(saver)
	sess := sampleSession()

	result, err := svc.Post(context.Background(), sess, &PostRequest{Kind: KindReturn, Title: "Other Book", Client: "Store B", Quantity: 2})
	if err != nil {
		t.Fatalf("过账本身应该成功: %v", err)
	}
	if result.PersistErr == nil {
		t.Error("期望返回保存错误")
	}
	item, _ := sess.Items().Lookup("Other Book")
	if item.OnHand != 7 {
		t.Errorf("期望库存7，实际%d", item.OnHand)
	}
}

// TestPost_ReplayInvariant 任意合法交易序列后,库存等于初始值加入库退货减出库
func TestPost_ReplayInvariant(t *testing.T) {
	svc := NewService(nil)
	sess := sampleSession()
	initial := map[string]int{"Sample Book": 50, "Other Book": 5}
	titles := []string{"Sample Book", "Other Book"}

	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		req := &PostRequest{
			Kind:     Kinds[rnd.Intn(len(Kinds))],
			Title:    titles[rnd.Intn(len(titles))],
			Client:   "Client",
			Quantity: rnd.Intn(15) + 1,
		}
		_, err := svc.Post(context.Background(), sess, req)
		if err != nil && !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("第%d笔交易意外失败: %v", i, err)
		}
	}

	net := make(map[string]int)
	for _, rec := range sess.History().Records() {
		switch rec.Kind {
		case KindReceive, KindReturn:
			net[rec.Title] += rec.Quantity
		case KindShip:
			net[rec.Title] -= rec.Quantity
		}
	}

	for _, item := range sess.Items().Items() {
		want := initial[item.Title] + net[item.Title]
		if item.OnHand != want {
			t.Errorf("%s: 期望库存%d，实际%d", item.Title, want, item.OnHand)
		}
		if item.OnHand < 0 {
			t.Errorf("%s: 库存不能为负数", item.Title)
		}
	}

	t.Logf("✅ %d条交易记录回放一致", sess.History().Len())
}
