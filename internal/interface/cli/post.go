package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xiebiao/pressledger/internal/application/ledger"
	"github.com/xiebiao/pressledger/internal/domain/inventory"
)

func newPostCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "post <kind> <title> <client> <quantity>",
		Short: "过账一笔入库/出库/退货",
		Long: `kind取RECEIVE、SHIP或RETURN,也接受입고、출고、반품。

过账成功后立即保存两张表。远程仓库同步失败不影响过账结果,只在stderr输出警告;
本地文件写入失败时这笔过账随进程退出而丢失,命令返回非0。`,
		Example: `  ledgerctl post SHIP "인하의 역사" 교보문고 45`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd, opts, args)
		},
	}
}

func runPost(cmd *cobra.Command, opts *RootOptions, args []string) error {
	ctx := cmd.Context()
	out := newOutputFormatter(opts, cmd)

	rt, err := open(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.close()

	// 数量无法解析时按0处理,由领域服务按校验顺序报告错误
	quantity, _ := strconv.Atoi(strings.TrimSpace(args[3]))

	var serviceOpts []inventory.Option
	if opts.now != nil {
		serviceOpts = append(serviceOpts, inventory.WithClock(opts.now))
	}
	uc := ledger.NewPostUseCase(inventory.NewService(rt.store, serviceOpts...), rt.log)

	resp, err := uc.Execute(ctx, rt.session, ledger.PostRequest{
		Kind:     args[0],
		Title:    args[1],
		Client:   args[2],
		Quantity: quantity,
	})
	if err != nil {
		return err
	}

	for _, w := range resp.Persist.Warnings {
		out.warnf("警告: %s\n", w)
	}

	if err := printPost(out, resp); err != nil {
		return err
	}
	if resp.PersistErr != nil {
		return fmt.Errorf("过账未能保存到本地文件: %w", resp.PersistErr)
	}
	return nil
}

func printPost(out *outputFormatter, resp *ledger.PostResponse) error {
	rec := resp.Record
	if out.isCSV() {
		return out.table(
			[]string{"timestamp", "client", "title", "kind", "quantity", "unit_price", "amount", "before", "after", "low_stock", "persist"},
			[][]string{{
				rec.Timestamp, rec.Client, rec.Title, rec.Kind,
				out.count(rec.Quantity), out.amount(rec.UnitPrice), out.amount(rec.Amount),
				out.count(resp.Before), out.count(resp.After),
				out.mark(resp.LowStock), string(resp.Persist.Status),
			}},
		)
	}

	out.printf("过账成功: %s %s ×%d (%s)\n", rec.Kind, rec.Title, rec.Quantity, rec.Client)
	out.printf("库存: %d → %d\n", resp.Before, resp.After)
	out.printf("金额: %s\n", out.amount(rec.Amount))
	if resp.LowStock {
		out.printf("低库存预警: %s 库存不高于安全库存\n", rec.Title)
	}
	out.printf("保存: %s\n", resp.Persist.Status)
	return nil
}
