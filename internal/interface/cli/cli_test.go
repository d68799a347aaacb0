package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/pressledger/internal/domain/inventory"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence/localfile"
	"github.com/xiebiao/pressledger/pkg/logger"
)

const (
	fixtureInventory = `title,unit_price,isbn,on_hand_quantity,safety_stock_threshold
인하의 역사,15000,979-11-87,30,10
파이썬 정복,25000,979-11-99,5,10
Sample Book,12000,979-11-00,8,8
`
	fixtureHistory = `timestamp,client_name,title,kind,quantity,unit_price
2024-04-02 09:00:00,교보문고,인하의 역사,RETURN,1,15000
2024-03-15 14:30:00,교보문고,인하의 역사,SHIP,20,15000
2024-03-10 11:00:00,"Yes24, Inc",파이썬 정복,RETURN,2,25000
2024-02-20 10:00:00,알라딘,파이썬 정복,SHIP,5,25000
2024-02-01 09:00:00,출판유통,인하의 역사,RECEIVE,50,15000
`
)

type fixture struct {
	fs   afero.Fs
	opts func() *RootOptions
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, "/data/"+name, []byte(content), 0o644))
	}
	store := persistence.NewManager(localfile.NewStore(fs, "/data"), nil, persistence.DefaultLayout(), logger.Nop())
	return &fixture{
		fs: fs,
		opts: func() *RootOptions {
			return &RootOptions{
				store: store,
				now:   func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local) },
			}
		},
	}
}

func defaultFixture(t *testing.T) *fixture {
	return newFixture(t, map[string]string{
		"inventory.csv": fixtureInventory,
		"history.csv":   fixtureHistory,
	})
}

func (f *fixture) run(args ...string) (stdout, stderr string, err error) {
	cmd := newRootCommand(f.opts())
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (f *fixture) file(t *testing.T, name string) string {
	t.Helper()
	data, err := afero.ReadFile(f.fs, "/data/"+name)
	require.NoError(t, err)
	return string(data)
}

func TestCSVOutput(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := []struct {
		name string
		args []string
	}{
		{"items", []string{"items"}},
		{"alerts", []string{"alerts"}},
		{"history", []string{"history"}},
		{"report_sales", []string{"report", "sales"}},
		{"report_valuation", []string{"report", "valuation"}},
		{"report_returns", []string{"report", "returns"}},
	}

	f := defaultFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := f.run(append(tt.args, "--format", "csv")...)
			require.NoError(t, err)
			g.Assert(t, tt.name, []byte(out))
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := defaultFixture(t).run("items", "--format", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestTextOutput(t *testing.T) {
	f := defaultFixture(t)

	out, _, err := f.run("report", "valuation")
	require.NoError(t, err)
	assert.Contains(t, out, "671,000")
	assert.Contains(t, out, "450,000")

	out, _, err = f.run("report", "returns")
	require.NoError(t, err)
	assert.Contains(t, out, "5.00%")
	assert.Contains(t, out, "Yes24, Inc")

	out, _, err = f.run("items", "파이썬")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2, "表头加一行")
	assert.Contains(t, lines[1], "979-11-99")

	out, _, err = f.run("history", "-n", "2")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func TestPost(t *testing.T) {
	f := defaultFixture(t)

	out, stderr, err := f.run("post", "SHIP", "인하의 역사", "교보문고", "25")
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Contains(t, out, "库存: 30 → 5")
	assert.Contains(t, out, "金额: 375,000")
	assert.Contains(t, out, "低库存预警")
	assert.Contains(t, out, "保存: local_only")

	// 下一次调用读到已保存的数据
	out, _, err = f.run("history", "--format", "csv", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-05-01 10:00:00,교보문고,인하의 역사,SHIP,25,15000,375000")

	assert.Contains(t, f.file(t, "inventory.csv"), "인하의 역사,15000,979-11-87,5,10")
}

func TestPostKoreanKind(t *testing.T) {
	f := defaultFixture(t)

	out, _, err := f.run("post", "입고", "Sample Book", "출판유통", "12", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, ",RECEIVE,12,12000,144000,8,20,false,local_only")
}

func TestPostRejected(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"库存不足", []string{"SHIP", "파이썬 정복", "교보문고", "6"}, inventory.ErrInsufficientStock},
		{"数量不是数字", []string{"SHIP", "파이썬 정복", "교보문고", "many"}, inventory.ErrInvalidQuantity},
		{"交易方为空", []string{"SHIP", "파이썬 정복", "  ", "1"}, inventory.ErrEmptyClient},
		{"书名不存在", []string{"RECEIVE", "없는 책", "교보문고", "1"}, inventory.ErrUnknownTitle},
		{"交易类型错误", []string{"LOAN", "파이썬 정복", "교보문고", "1"}, inventory.ErrInvalidKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultFixture(t)
			_, _, err := f.run(append([]string{"post"}, tt.args...)...)
			require.ErrorIs(t, err, tt.want)

			// 被拒绝的过账不落盘
			assert.Equal(t, fixtureInventory, f.file(t, "inventory.csv"))
			assert.Equal(t, fixtureHistory, f.file(t, "history.csv"))
		})
	}
}

func TestPostLocalWriteFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/data/inventory.csv", []byte(fixtureInventory), 0o644))
	require.NoError(t, afero.WriteFile(base, "/data/history.csv", []byte(fixtureHistory), 0o644))
	store := persistence.NewManager(localfile.NewStore(afero.NewReadOnlyFs(base), "/data"), nil, persistence.DefaultLayout(), logger.Nop())
	f := &fixture{fs: base, opts: func() *RootOptions { return &RootOptions{store: store} }}

	out, stderr, err := f.run("post", "SHIP", "인하의 역사", "교보문고", "25")
	require.Error(t, err, "本地文件没写成功,过账随进程退出丢失")
	assert.Contains(t, err.Error(), "过账未能保存到本地文件")
	assert.Contains(t, out, "保存: degraded")
	assert.Contains(t, stderr, "警告")
	assert.Equal(t, fixtureInventory, f.file(t, "inventory.csv"))
}

func TestSeedOnFirstUse(t *testing.T) {
	f := newFixture(t, nil)

	out, _, err := f.run("items", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "인하의 역사,15000,979-11-87,50,10,false")
	assert.Contains(t, out, "파이썬 정복,25000,979-11-99,5,10,true")

	out, _, err = f.run("report", "sales")
	require.NoError(t, err)
	assert.Contains(t, out, "暂无出库记录")
}

func TestCorruptLocalFile(t *testing.T) {
	f := newFixture(t, map[string]string{
		"inventory.csv": "title,unit_price\n인하의 역사,not-a-price\n",
	})

	_, _, err := f.run("items")
	require.ErrorIs(t, err, persistence.ErrLocalParse)
}
