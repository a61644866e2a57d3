package redis

import "errors"

var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
	ErrStreamGroupCreate            = errors.New("failed to create redis stream consumer group")
	ErrStreamPublish                = errors.New("failed to publish to redis stream")
	ErrStreamRead                   = errors.New("failed to read from redis stream")
	ErrStreamAck                    = errors.New("failed to acknowledge redis stream entries")
)
