package pricemcp

import (
	"fmt"
	"time"
)

// LeapDayPolicy 决定以 2 月 29 日为终点时起点落在哪一天
type LeapDayPolicy string

const (
	// LeapDayClamp 退到上一年的 2 月 28 日
	LeapDayClamp LeapDayPolicy = "clamp"
	// LeapDayRollover 顺延到上一年的 3 月 1 日，与 time.AddDate 的行为一致
	LeapDayRollover LeapDayPolicy = "rollover"
	// LeapDayError 返回 ErrLeapDayAnchor
	LeapDayError LeapDayPolicy = "error"
)

// Validate 检查策略名
func (p LeapDayPolicy) Validate() error {
	switch p {
	case LeapDayClamp, LeapDayRollover, LeapDayError:
		return nil
	default:
		return fmt.Errorf("unknown leap day policy %q", p)
	}
}

// DateWindow 查询的日期区间，两端都是当天零点
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// Format 按布局格式化两端
func (w DateWindow) Format(layout string) (start, end string) {
	return w.Start.Format(layout), w.End.Format(layout)
}

// YearWindow 以 today 所在日期为终点，起点为上一年的同月同日（year - 1），
// 而不是固定的 365 天。
func YearWindow(today time.Time, policy LeapDayPolicy) (DateWindow, error) {
	y, m, d := today.Date()
	loc := today.Location()
	end := time.Date(y, m, d, 0, 0, 0, 0, loc)

	if m == time.February && d == 29 {
		switch policy {
		case LeapDayRollover:
			return DateWindow{Start: time.Date(y-1, time.March, 1, 0, 0, 0, 0, loc), End: end}, nil
		case LeapDayError:
			return DateWindow{}, fmt.Errorf("%w: %s", ErrLeapDayAnchor, end.Format(DefaultDateFormat))
		case LeapDayClamp, "":
			return DateWindow{Start: time.Date(y-1, time.February, 28, 0, 0, 0, 0, loc), End: end}, nil
		default:
			return DateWindow{}, policy.Validate()
		}
	}

	return DateWindow{Start: time.Date(y-1, m, d, 0, 0, 0, 0, loc), End: end}, nil
}
