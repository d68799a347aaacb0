package cli

import (
	"github.com/spf13/cobra"

	"github.com/xiebiao/pressledger/internal/application/ledger"
	appreport "github.com/xiebiao/pressledger/internal/application/report"
)

var itemHeader = []string{"title", "unit_price", "isbn", "on_hand", "safety_stock", "low_stock"}

func newItemsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "items [keyword]",
		Short: "浏览库存表",
		Long:  "按书名或ISBN子串筛选库存,不带关键字时列出全部。",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var keyword string
			if len(args) == 1 {
				keyword = args[0]
			}

			rt, err := open(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			resp, err := ledger.NewListItemsUseCase().Execute(cmd.Context(), rt.session, ledger.ListItemsRequest{Keyword: keyword})
			if err != nil {
				return err
			}
			out := newOutputFormatter(opts, cmd)
			return out.table(itemHeader, itemRows(out, resp.List))
		},
	}
}

func newAlertsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "列出库存不高于安全库存的书",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := open(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			resp, err := appreport.NewLowStockUseCase().Execute(cmd.Context(), rt.session)
			if err != nil {
				return err
			}
			out := newOutputFormatter(opts, cmd)
			if len(resp.List) == 0 && !out.isCSV() {
				out.printf("没有低库存预警\n")
				return nil
			}
			return out.table(itemHeader, itemRows(out, resp.List))
		},
	}
}

func itemRows(out *outputFormatter, items []ledger.ItemView) [][]string {
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{
			it.Title,
			out.amount(it.UnitPrice),
			it.ISBN,
			out.count(it.OnHand),
			out.count(it.SafetyStock),
			out.mark(it.LowStock),
		}
	}
	return rows
}

func newHistoryCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "按时间倒序列出交易流水",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := open(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			resp, err := ledger.NewListTransactionsUseCase().Execute(cmd.Context(), rt.session, ledger.ListTransactionsRequest{Limit: limit})
			if err != nil {
				return err
			}

			out := newOutputFormatter(opts, cmd)
			rows := make([][]string, len(resp.List))
			for i, rec := range resp.List {
				rows[i] = []string{
					rec.Timestamp,
					rec.Client,
					rec.Title,
					rec.Kind,
					out.count(rec.Quantity),
					out.amount(rec.UnitPrice),
					out.amount(rec.Amount),
				}
			}
			return out.table([]string{"timestamp", "client", "title", "kind", "quantity", "unit_price", "amount"}, rows)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "最多显示条数(0表示全部)")
	return cmd
}
