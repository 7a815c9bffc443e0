package limiter

import (
	"context"
	"sort"
	"time"

	"golang.org/x/time/rate"
)

// 限速器接口，统一了不同限速器的行为
type RateLimiter interface {
	Wait(context.Context) error // 阻塞直到可以继续执行或上下文被取消
	Limit() rate.Limit
}

// 将多个限速器按速率从小到大排序后组合为一个限速器
func Multi(limiters ...RateLimiter) *multiLimiter {
	byLimit := func(i, j int) bool {
		return limiters[i].Limit() < limiters[j].Limit()
	}
	sort.Slice(limiters, byLimit)
	return &multiLimiter{limiters: limiters}
}

type multiLimiter struct {
	limiters []RateLimiter
}

// 依次等待每个限速器，任何一个返回错误即返回
func (l *multiLimiter) Wait(ctx context.Context) error {
	for _, l := range l.limiters {
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// 返回最严格的速率
func (l *multiLimiter) Limit() rate.Limit {
	if len(l.limiters) == 0 {
		return rate.Inf
	}
	return l.limiters[0].Limit()
}

// 每duration内允许eventCount次
func Per(eventCount int, duration time.Duration) rate.Limit {
	return rate.Every(duration / time.Duration(eventCount))
}

/*
输入翻页间隔和每分钟最多翻页数，输出翻页节奏控制器

两者都为0时不限速；间隔限制保证相邻两页之间至少等待delay，每分钟上限限制整体速率
*/
func Pacer(delay time.Duration, perMinute int) RateLimiter {
	var limiters []RateLimiter
	if delay > 0 {
		limiters = append(limiters, rate.NewLimiter(rate.Every(delay), 1))
	}
	if perMinute > 0 {
		limiters = append(limiters, rate.NewLimiter(Per(perMinute, time.Minute), 1))
	}
	if len(limiters) == 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return Multi(limiters...)
}
