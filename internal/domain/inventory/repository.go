package inventory

import "context"

// 数据表名称(本地文件名与远程路径共用)
const (
	TableInventory = "inventory"
	TableHistory   = "history"
)

// PersistStatus 保存结果状态
type PersistStatus string

const (
	StatusSynced    PersistStatus = "synced"     // 本地与远程都已写入
	StatusLocalOnly PersistStatus = "local_only" // 未配置远程仓库
	StatusDegraded  PersistStatus = "degraded"   // 远程至少有一张表写入失败
)

// Failure 单张表在某个目标上的失败
type Failure struct {
	Table  string `json:"table"`
	Target string `json:"target"`
	Err    error  `json:"-"`
}

// SaveReport 保存报告
// 远程失败只记录在报告里,不作为Save的错误返回
type SaveReport struct {
	Status   PersistStatus `json:"status"`
	Failures []Failure     `json:"failures,omitempty"`
}

// SourceOutcome 单个数据源的读取结果
type SourceOutcome string

const (
	OutcomeLoaded      SourceOutcome = "loaded"
	OutcomeAbsent      SourceOutcome = "absent"
	OutcomeCorrupt     SourceOutcome = "corrupt"
	OutcomeUnavailable SourceOutcome = "unavailable" // 远程仓库网络错误或熔断
)

// Attempt 一次数据源尝试
type Attempt struct {
	Source  string        `json:"source"`
	Outcome SourceOutcome `json:"outcome"`
	Err     error         `json:"-"`
}

// TableLoad 单张表的加载过程
type TableLoad struct {
	Table    string    `json:"table"`
	Source   string    `json:"source"` // 最终采用的数据源
	Attempts []Attempt `json:"attempts"`
}

// LoadReport 加载报告
type LoadReport struct {
	Inventory TableLoad `json:"inventory"`
	History   TableLoad `json:"history"`
}

// Loader 加载会话数据
type Loader interface {
	// Load 按数据源优先级加载两张表
	// 本地文件损坏时返回错误(启动失败),其他失败都会回退到下一个数据源
	Load(ctx context.Context) (*Session, *LoadReport, error)
}

// Saver 持久化会话数据
type Saver interface {
	// Save 保存整个会话
	// 调用方需持有会话(Save内部不加锁)
	Save(ctx context.Context, s *Session) (*SaveReport, error)
}

// Store 存储接口(由基础设施层实现)
type Store interface {
	Loader
	Saver
}
