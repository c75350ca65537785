package mfi

//Schedule marks the hills after which a checkpoint (error evaluation or
//progress report) takes place. Hills are counted from 1. A checkpoint happens
//after every multiple of max(1, total/pace) hills, and always after the last hill.
type Schedule struct {
	every int
	total int
}

//NewSchedule returns a schedule with about pace checkpoints over total hills.
func NewSchedule(total, pace int) Schedule {
	every := 1
	if pace > 0 && total/pace > 1 {
		every = total / pace
	}
	return Schedule{every: every, total: total}
}

//Every returns the number of hills between two regular checkpoints.
func (s Schedule) Every() int { return s.every }

//At returns true if there is a checkpoint right after the n-th hill.
func (s Schedule) At(n int) bool {
	if n <= 0 || n > s.total {
		return false
	}
	return n%s.every == 0 || n == s.total
}

//Hills returns all the checkpoints of the schedule, in order.
func (s Schedule) Hills() []int {
	return s.After(0)
}

//After returns the checkpoints that come after the n-th hill, in order.
func (s Schedule) After(n int) []int {
	if n < 0 {
		n = 0
	}
	if n >= s.total {
		return nil
	}
	ret := make([]int, 0, (s.total-n)/s.every+1)
	for c := (n/s.every + 1) * s.every; c <= s.total; c += s.every {
		ret = append(ret, c)
	}
	if s.total%s.every != 0 {
		ret = append(ret, s.total)
	}
	return ret
}
