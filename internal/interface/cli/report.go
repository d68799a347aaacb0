package cli

import (
	"github.com/spf13/cobra"

	appreport "github.com/xiebiao/pressledger/internal/application/report"
)

func newReportCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "报表:月度销量、库存估值、退货率",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sales",
		Short: "月度销量(只统计出库)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, runSales)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "valuation",
		Short: "库存资产估值",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, runValuation)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "returns",
		Short: "按交易方统计退货率",
		Long:  "退货率 = 退货数量 / 出库数量 × 100。没有出库记录的交易方单独列出,标记为无法计算。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, runReturns)
		},
	})

	return cmd
}

// withSession 加载会话后执行只读报表
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(*cobra.Command, *invocation, *outputFormatter) error) error {
	rt, err := open(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.close()
	return fn(cmd, rt, newOutputFormatter(opts, cmd))
}

// runSales 每月一行,每本书一列,最后一列为当月合计
func runSales(cmd *cobra.Command, rt *invocation, out *outputFormatter) error {
	resp, err := appreport.NewMonthlySalesUseCase().Execute(cmd.Context(), rt.session)
	if err != nil {
		return err
	}
	if len(resp.Months) == 0 && !out.isCSV() {
		out.printf("暂无出库记录\n")
		return nil
	}

	header := append([]string{"month"}, resp.Titles...)
	header = append(header, "total")

	rows := make([][]string, len(resp.Months))
	for i, month := range resp.Months {
		row := []string{month}
		for _, q := range resp.Quantities[i] {
			row = append(row, out.count(q))
		}
		rows[i] = append(row, out.count(resp.Totals[i]))
	}
	return out.table(header, rows)
}

// runValuation 最后一行为合计
func runValuation(cmd *cobra.Command, rt *invocation, out *outputFormatter) error {
	resp, err := appreport.NewValuationUseCase().Execute(cmd.Context(), rt.session)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(resp.Lines)+1)
	for _, l := range resp.Lines {
		rows = append(rows, []string{l.Title, out.count(l.OnHand), out.amount(l.UnitPrice), out.amount(l.Value)})
	}
	rows = append(rows, []string{"TOTAL", "", "", out.amount(resp.Total)})
	return out.table([]string{"title", "on_hand", "unit_price", "value"}, rows)
}

// runReturns 可计算的交易方在前,无法计算的在后
func runReturns(cmd *cobra.Command, rt *invocation, out *outputFormatter) error {
	resp, err := appreport.NewReturnRatesUseCase().Execute(cmd.Context(), rt.session)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(resp.Rates)+len(resp.Uncomputable))
	for _, group := range [][]appreport.ClientRate{resp.Rates, resp.Uncomputable} {
		for _, c := range group {
			rows = append(rows, []string{c.Client, out.count(c.Shipped), out.count(c.Returned), out.rate(c.Rate)})
		}
	}
	return out.table([]string{"client", "shipped", "returned", "rate"}, rows)
}
