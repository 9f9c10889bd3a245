package service

import "time"

// Clock "今天"的来源
// 同日删除规则依赖它，测试里注入固定时钟
type Clock interface {
	Today() time.Time
}

type systemClock struct {
	loc *time.Location
}

// NewSystemClock 按租户所在时区取自然日
func NewSystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return &systemClock{loc: loc}
}

func (c *systemClock) Today() time.Time {
	return DateOnly(time.Now().In(c.loc))
}

// DateOnly 截断到自然日（零点，去掉时区外的时分秒）
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
