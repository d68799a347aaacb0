package inventory

import (
	apperrors "github.com/xiebiao/pressledger/pkg/errors"
)

// 库存领域错误定义
//
// 错误分类:
// - 参数错误(40900):交易方为空、书名不存在、数量不合法,不修改任何数据
// - 业务错误(40001):出库数量超过当前库存,不修改任何数据
var (
	// ErrEmptyClient 交易方为空
	ErrEmptyClient = apperrors.New(apperrors.ErrCodeInvalidParams, "请填写交易方")

	// ErrUnknownTitle 书名不存在
	ErrUnknownTitle = apperrors.New(apperrors.ErrCodeInvalidParams, "库存表中不存在该书名")

	// ErrInvalidQuantity 数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "数量必须大于0")

	// ErrInvalidKind 交易类型不合法
	ErrInvalidKind = apperrors.New(apperrors.ErrCodeInvalidParams, "交易类型必须是RECEIVE、SHIP或RETURN")

	// ErrEmptyTitle 书名为空
	ErrEmptyTitle = apperrors.New(apperrors.ErrCodeInvalidParams, "书名不能为空")

	// ErrNegativePrice 单价为负
	ErrNegativePrice = apperrors.New(apperrors.ErrCodeInvalidParams, "单价不能为负数")

	// ErrNegativeStock 库存为负
	ErrNegativeStock = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")

	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足")
)

// IsValidationError 是否为参数校验错误
func IsValidationError(err error) bool {
	return apperrors.HasCode(err, apperrors.ErrCodeInvalidParams)
}
