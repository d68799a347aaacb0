// Package cli ledgerctl命令行
//
// 每次调用就是一个会话:加载 → 执行 → (过账时)保存。
// 命令复用应用层用例,和HTTP接口输出同一套DTO。
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xiebiao/pressledger/internal/domain/inventory"
	"github.com/xiebiao/pressledger/internal/infrastructure/config"
	"github.com/xiebiao/pressledger/internal/infrastructure/persistence"
	"github.com/xiebiao/pressledger/pkg/logger"
)

// 输出格式
const (
	FormatText = "text"
	FormatCSV  = "csv"
)

// ValidFormats 允许的输出格式
var ValidFormats = []string{FormatText, FormatCSV}

// RootOptions 全局参数
type RootOptions struct {
	ConfigPath string
	Format     string
	Verbose    bool

	// 以下字段只在测试中注入
	store inventory.Store
	log   *logger.Logger
	now   func() time.Time
}

// NewRootCommand 创建ledgerctl根命令
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "出版社库存账本命令行",
		Long:  "过账、浏览库存和交易流水、查看报表。数据读写与API服务共用同一套存储配置。",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true, // 错误由main统一输出
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "配置文件路径(默认查找./config/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "输出格式 (text|csv)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "输出调试日志到stderr")

	cmd.AddCommand(newPostCommand(opts))
	cmd.AddCommand(newItemsCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))
	cmd.AddCommand(newAlertsCommand(opts))
	cmd.AddCommand(newReportCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// invocation 一次调用的会话环境
type invocation struct {
	store   inventory.Store
	session *inventory.Session
	report  *inventory.LoadReport
	log     *logger.Logger
	close   func()
}

// open 创建存储并加载会话
// 本地数据文件损坏时直接返回错误
func open(ctx context.Context, opts *RootOptions, errOut io.Writer) (*invocation, error) {
	rt := &invocation{store: opts.store, log: opts.log, close: func() {}}

	if rt.store == nil {
		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
		rt.log = newLogger(cfg, opts.Verbose, errOut)

		mgr, cleanup, err := persistence.NewFromConfig(ctx, cfg, rt.log)
		if err != nil {
			return nil, fmt.Errorf("初始化存储失败: %w", err)
		}
		rt.store, rt.close = mgr, cleanup
	}
	if rt.log == nil {
		rt.log = logger.Nop()
	}

	sess, report, err := rt.store.Load(ctx)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.session, rt.report = sess, report
	rt.log.From(ctx).Debug().
		Str("inventory_source", report.Inventory.Source).
		Str("history_source", report.History.Source).
		Msg("数据加载成功")
	return rt, nil
}

// newLogger CLI日志写stderr,不污染CSV输出
func newLogger(cfg *config.Config, verbose bool, out io.Writer) *logger.Logger {
	if out == nil {
		out = os.Stderr
	}
	level := logger.ParseLevel(cfg.Log.Level)
	if verbose {
		level = zerolog.DebugLevel
	} else if level < zerolog.WarnLevel {
		level = zerolog.WarnLevel
	}
	return logger.New(logger.Options{
		ServiceName: "ledgerctl",
		Level:       level,
		Format:      "console",
		Output:      out,
	})
}
