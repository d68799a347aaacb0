package inventory

import (
	"context"
	"strings"
	"time"
)

// PostRequest 过账请求
type PostRequest struct {
	Kind     Kind
	Title    string
	Client   string
	Quantity int
}

// PostResult 过账结果
// 设计说明:
// 1. Before/After是该书过账前后的库存
// 2. 内存修改成功后才会保存;保存失败不回滚内存中的修改,通过PersistErr告知调用方
type PostResult struct {
	Before     int
	After      int
	Record     Record
	Persist    *SaveReport
	PersistErr error
}

// Service 交易处理领域服务
type Service interface {
	// Post 过账一笔入库/出库/退货
	// 校验失败或库存不足时返回错误,且不修改任何数据
	Post(ctx context.Context, s *Session, req *PostRequest) (*PostResult, error)
}

// Option 领域服务选项
type Option func(*service)

// WithClock 替换时钟(测试用)
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

type service struct {
	saver Saver
	now   func() time.Time
}

// NewService 创建交易处理服务
// saver为nil时只修改内存
func NewService(saver Saver, opts ...Option) Service {
	s := &service{saver: saver, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Post(ctx context.Context, sess *Session, req *PostRequest) (*PostResult, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	// 1. 参数校验(按交易方、书名、数量、类型的顺序)
	client := strings.TrimSpace(req.Client)
	if client == "" {
		return nil, ErrEmptyClient
	}
	item := sess.items.find(req.Title)
	if item == nil {
		return nil, ErrUnknownTitle
	}
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if !req.Kind.Valid() {
		return nil, ErrInvalidKind
	}

	// 2. 修改库存(出库不足时Ship不做任何修改)
	before := item.OnHand
	var err error
	switch req.Kind {
	case KindReceive:
		err = item.Receive(req.Quantity)
	case KindReturn:
		err = item.Return(req.Quantity)
	case KindShip:
		err = item.Ship(req.Quantity)
	}
	if err != nil {
		return nil, err
	}

	// 3. 记录交易(单价取过账时的快照)
	rec := Record{
		Timestamp: s.now().Truncate(time.Second),
		Client:    client,
		Title:     item.Title,
		Kind:      req.Kind,
		Quantity:  req.Quantity,
		UnitPrice: item.UnitPrice,
	}
	sess.history.Prepend(rec)

	result := &PostResult{Before: before, After: item.OnHand, Record: rec}

	// 4. 持久化整个会话
	if s.saver != nil {
		result.Persist, result.PersistErr = s.saver.Save(ctx, sess)
	}
	return result, nil
}
