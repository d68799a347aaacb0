package ledger

import (
	"context"

	"github.com/xiebiao/pressledger/internal/domain/inventory"
	"github.com/xiebiao/pressledger/pkg/logger"
	"github.com/xiebiao/pressledger/pkg/metrics"
	"github.com/xiebiao/pressledger/pkg/tracing"
)

// PostUseCase 过账用例
// 设计说明:
// 1. 交易类型在这里从字符串解析(兼容旧版标签),其余校验交给领域服务
// 2. 保存失败不算过账失败:内存已修改,保存结果放在响应的persist字段里
type PostUseCase struct {
	service inventory.Service
	log     *logger.Logger
}

// NewPostUseCase 创建过账用例
func NewPostUseCase(service inventory.Service, log *logger.Logger) *PostUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &PostUseCase{service: service, log: log}
}

// PostRequest 过账请求DTO
type PostRequest struct {
	Kind     string // RECEIVE/SHIP/RETURN(也接受입고/출고/반품)
	Title    string
	Client   string
	Quantity int
}

// PostResponse 过账响应DTO
type PostResponse struct {
	Record   RecordView  `json:"record"`
	Before   int         `json:"before"`
	After    int         `json:"after"`
	LowStock bool        `json:"low_stock"` // 过账后触发低库存预警
	Persist  PersistView `json:"persist"`

	// PersistErr 本地文件写入失败的原因,过账只保留在内存中
	PersistErr error `json:"-"`
}

// Execute 执行过账
func (uc *PostUseCase) Execute(ctx context.Context, sess *inventory.Session, req PostRequest) (resp *PostResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "inventory.Post")
	defer func() { tracing.End(span, err) }()

	// 1. 解析交易类型
	// 解析失败时原样传下去,由领域服务按校验顺序报告ErrInvalidKind
	kind, perr := inventory.ParseKind(req.Kind)
	if perr != nil {
		kind = inventory.Kind(req.Kind)
	}

	// 2. 过账
	result, err := uc.service.Post(ctx, sess, &inventory.PostRequest{
		Kind:     kind,
		Title:    req.Title,
		Client:   req.Client,
		Quantity: req.Quantity,
	})
	if err != nil {
		outcome := "rejected"
		if inventory.IsValidationError(err) {
			outcome = "invalid"
		}
		metrics.RecordPosting(string(kind), outcome)
		uc.log.From(ctx).Info().
			Str("kind", req.Kind).
			Str("title", req.Title).
			Int("quantity", req.Quantity).
			AnErr("reason", err).
			Msg("posting rejected")
		return nil, err
	}
	metrics.RecordPosting(string(kind), "success")

	// 3. 组装响应
	resp = &PostResponse{
		Record:   NewRecordView(result.Record),
		Before:   result.Before,
		After:    result.After,
		LowStock: result.After <= lowStockThreshold(sess, result.Record.Title),
		Persist:  NewPersistView(result.Persist, result.PersistErr),

		PersistErr: result.PersistErr,
	}

	event := uc.log.From(ctx).Info()
	if resp.Persist.Status == inventory.StatusDegraded {
		event = uc.log.From(ctx).Warn().Strs("warnings", resp.Persist.Warnings)
	}
	event.
		Str("kind", string(kind)).
		Str("title", result.Record.Title).
		Int("before", result.Before).
		Int("after", result.After).
		Str("persist", string(resp.Persist.Status)).
		Msg("posting accepted")

	if result.PersistErr != nil {
		uc.log.Error(ctx, "session not persisted", result.PersistErr)
	}
	return resp, nil
}

// lowStockThreshold 读取该书当前的安全库存
func lowStockThreshold(sess *inventory.Session, title string) int {
	threshold := -1
	sess.View(func(items *inventory.Table, _ *inventory.Log) {
		if item, ok := items.Lookup(title); ok {
			threshold = item.SafetyStock
		}
	})
	return threshold
}
