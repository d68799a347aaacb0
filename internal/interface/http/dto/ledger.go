package dto

// PostingRequest HTTP层过账请求
// 说明:只做格式绑定,字段校验交给领域服务(保证校验顺序和错误码一致)
type PostingRequest struct {
	Kind     string `json:"kind" example:"SHIP"`
	Title    string `json:"title" example:"인하의 역사"`
	Client   string `json:"client" example:"교보문고"`
	Quantity int    `json:"quantity" example:"3"`
}

// ItemsQuery 库存浏览查询参数
type ItemsQuery struct {
	Keyword string `form:"keyword"`
}

// TransactionsQuery 交易流水查询参数
type TransactionsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=0,max=10000"`
}
