package common

const (
	RedisKeyKISToken      = "kis:token:%d"
	RedisKeyKISIssueGuard = "kis:token:issue:%s"
	RedisKeyLastPrice     = "last_price:%s"
	RedisKeyMarketSamples = "market:samples:%s"

	HeaderUserID = "X-User-ID"
)
