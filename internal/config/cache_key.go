package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AttemptEventsChannel returns the Redis PubSub channel announcing an attempt's lifecycle events
func (r *CacheKeyStruct) AttemptEventsChannel(attemptID string) string {
	return fmt.Sprintf("attempt:%s:events", attemptID)
}

// ExamEventsChannel returns the Redis PubSub channel aggregating events of every attempt of an exam
func (r *CacheKeyStruct) ExamEventsChannel(examID int) string {
	return fmt.Sprintf("exam:%d:events", examID)
}

var CacheKey = NewCacheKeyStruct()
