package util

// Max: 두 정수 중 더 큰 값을 반환합니다.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Min: 두 정수 중 더 작은 값을 반환합니다.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Clamp: 값을 [lo, hi] 범위로 제한한다.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2: 소수점 둘째 자리까지 반올림한다. 통계 수치는 모두 이 정밀도로 내보낸다.
func Round2(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}

// Mean: float64 슬라이스의 평균을 반환한다. 빈 슬라이스는 0.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// MeanInt: 정수 슬라이스의 평균을 반환한다. 빈 슬라이스는 0.
func MeanInt(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
