package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// notAvailable 无法计算的退货率在CSV中的写法
const notAvailable = "n/a"

// outputFormatter 按--format输出表格
// text: 列对齐,数字带千分位;csv: 原始数值,可直接导入表格软件
type outputFormatter struct {
	format    string
	writer    io.Writer
	errWriter io.Writer
	printer   *message.Printer
}

func newOutputFormatter(opts *RootOptions, cmd *cobra.Command) *outputFormatter {
	return &outputFormatter{
		format:    opts.Format,
		writer:    cmd.OutOrStdout(),
		errWriter: cmd.ErrOrStderr(),
		printer:   message.NewPrinter(language.Korean),
	}
}

func (f *outputFormatter) isCSV() bool {
	return f.format == FormatCSV
}

// table 输出表头和数据行
func (f *outputFormatter) table(header []string, rows [][]string) error {
	if f.isCSV() {
		w := csv.NewWriter(f.writer)
		if err := w.Write(header); err != nil {
			return err
		}
		return w.WriteAll(rows)
	}

	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// count 格式化整数
func (f *outputFormatter) count(n int) string {
	if f.isCSV() {
		return strconv.Itoa(n)
	}
	return f.printer.Sprintf("%d", n)
}

// amount 格式化金额,输入为decimal字符串
func (f *outputFormatter) amount(s string) string {
	if f.isCSV() {
		return s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	if d.IsInteger() {
		return f.printer.Sprintf("%d", d.IntPart())
	}
	return f.printer.Sprintf("%v", number.Decimal(d.InexactFloat64(), number.Scale(2)))
}

// rate 格式化退货率,空串表示无法计算
func (f *outputFormatter) rate(s string) string {
	switch {
	case s == "" && f.isCSV():
		return notAvailable
	case s == "":
		return "-"
	case f.isCSV():
		return s
	default:
		return s + "%"
	}
}

// mark 格式化是否标记
func (f *outputFormatter) mark(b bool) string {
	if f.isCSV() {
		return strconv.FormatBool(b)
	}
	if b {
		return "!"
	}
	return ""
}

// printf 输出本地化文本(只用于text格式的提示信息)
func (f *outputFormatter) printf(format string, args ...interface{}) {
	f.printer.Fprintf(f.writer, format, args...)
}

// warnf 输出警告到stderr
func (f *outputFormatter) warnf(format string, args ...interface{}) {
	f.printer.Fprintf(f.errWriter, format, args...)
}
