package portalauth

import "time"

// SecurityReport is a static snapshot of the security-relevant
// configuration, for ops review and startup logging. It contains no
// secrets.
type SecurityReport struct {
	ProductionMode   bool
	SigningAlgorithm string
	ValidationMode   ValidationMode
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	SessionLifetime  time.Duration
	Argon2           PasswordConfigReport

	RefreshRotationEnabled       bool
	RefreshReuseDetectionEnabled bool
	LoginThrottleActive          bool
	RefreshThrottleActive        bool
	AuditEnabled                 bool
}

// PasswordConfigReport mirrors the argon2id cost parameters.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// SecurityReport summarizes the engine's effective security posture.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		ProductionMode:   e.config.Security.ProductionMode,
		SigningAlgorithm: e.config.JWT.SigningMethod,
		ValidationMode:   e.config.ValidationMode,
		AccessTTL:        e.config.JWT.AccessTTL,
		RefreshTTL:       e.config.JWT.RefreshTTL,
		SessionLifetime:  e.config.Session.AbsoluteSessionLifetime,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},

		// Rotation and reuse detection are structural, not configurable:
		// every refresh consumes its token atomically.
		RefreshRotationEnabled:       true,
		RefreshReuseDetectionEnabled: true,
		LoginThrottleActive:          e.config.Security.MaxLoginAttempts > 0,
		RefreshThrottleActive:        e.config.Security.EnableRefreshThrottle && e.config.Security.MaxRefreshAttempts > 0,
		AuditEnabled:                 e.audit != nil,
	}
}
