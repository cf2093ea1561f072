package idgen

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog/log"
)

// 41 位毫秒时间 | 10 位 worker | 12 位毫秒内序号。
// 流水号建了唯一索引，多实例部署时每个实例的 worker 必须不同。
const epochMs int64 = 1704067200000 // 2024-01-01T00:00:00Z

var (
	defaultNode *snowflake.Node
	initOnce    sync.Once
)

func init() {
	snowflake.Epoch = epochMs
}

// NewNode worker 取值 0-1023
func NewNode(workerID int64) (*snowflake.Node, error) {
	return snowflake.NewNode(workerID)
}

// Init 设置进程级节点，重复调用无效
func Init(workerID int64) {
	initOnce.Do(func() {
		node, err := NewNode(workerID)
		if err != nil {
			log.Fatal().Err(err).Int64("worker_id", workerID).Msg("ID 生成器初始化失败")
		}
		defaultNode = node
	})
}

// NextID 未显式 Init 时以 worker 1 初始化
func NextID() snowflake.ID {
	Init(1)
	return defaultNode.Generate()
}

// GenerateTransactionNo 余额流水号，如 TXN1234567890123456
func GenerateTransactionNo() string {
	return "TXN" + NextID().String()
}

// GenerateRequestNo 请求编号，作为手机号锁的 token
func GenerateRequestNo() string {
	return "REQ" + NextID().String()
}
