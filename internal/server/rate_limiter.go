package server

import (
	"sync"
	"time"
)

// AuthRateLimiter: cron 시크릿 검증 실패 횟수를 IP별로 제한한다.
type AuthRateLimiter struct {
	attempts    map[string]*attemptInfo
	mu          sync.RWMutex
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
}

type attemptInfo struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// NewAuthRateLimiter: 새 Rate Limiter를 생성한다.
func NewAuthRateLimiter() *AuthRateLimiter {
	rl := &AuthRateLimiter{
		attempts:    make(map[string]*attemptInfo),
		maxAttempts: 5,                // 5회 시도
		window:      5 * time.Minute,  // 5분 윈도우
		lockout:     15 * time.Minute, // 15분 잠금
	}

	// 주기적 정리 고루틴
	go rl.cleanupLoop()

	return rl
}

// IsAllowed: 해당 IP의 인증 시도 허용 여부를 확인한다.
func (l *AuthRateLimiter) IsAllowed(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, exists := l.attempts[ip]
	now := time.Now()

	if !exists {
		l.attempts[ip] = &attemptInfo{count: 0, firstAttempt: now}
		return true, 0
	}

	// 잠금 상태 확인
	if now.Before(info.lockedUntil) {
		return false, info.lockedUntil.Sub(now)
	}

	// 윈도우 만료 시 리셋
	if now.Sub(info.firstAttempt) > l.window {
		info.count = 0
		info.firstAttempt = now
		info.lockedUntil = time.Time{}
	}

	return info.count < l.maxAttempts, 0
}

// RecordFailure: 인증 실패를 기록한다.
func (l *AuthRateLimiter) RecordFailure(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, exists := l.attempts[ip]
	if !exists {
		info = &attemptInfo{count: 0, firstAttempt: time.Now()}
		l.attempts[ip] = info
	}

	info.count++

	if info.count >= l.maxAttempts {
		info.lockedUntil = time.Now().Add(l.lockout)
	}

	return info.count
}

// RecordSuccess: 인증 성공 시 기록을 초기화한다.
func (l *AuthRateLimiter) RecordSuccess(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, ip)
}

// cleanupLoop: 만료된 기록을 주기적으로 정리한다.
func (l *AuthRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.cleanup()
	}
}

func (l *AuthRateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for ip, info := range l.attempts {
		// 윈도우 + 잠금 시간 모두 지나면 삭제
		if now.Sub(info.firstAttempt) > l.window+l.lockout {
			delete(l.attempts, ip)
		}
	}
}
