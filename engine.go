package portalauth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/exagonbr/portal-auth/internal"
	"github.com/exagonbr/portal-auth/internal/rate"
	"github.com/exagonbr/portal-auth/jwt"
	"github.com/exagonbr/portal-auth/password"
	"github.com/exagonbr/portal-auth/permission"
	"github.com/exagonbr/portal-auth/session"
	"github.com/redis/go-redis/v9"
)

// Engine is the authentication core. It owns credential verification,
// token issuance, refresh rotation, validation, and session lifecycle.
// Build one through the [Builder]; all methods are safe for concurrent
// use.
type Engine struct {
	config       Config
	resolver     *permission.Resolver
	sessionStore *session.Store
	rateLimiter  *rate.Limiter
	audit        *auditDispatcher
	metrics      *Metrics
	passwordHash *password.Hasher
	jwtManager   *jwt.Manager
	userProvider UserProvider
}

// Close flushes and stops the audit dispatcher. The injected Redis client
// stays open; its lifecycle belongs to the host process.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login verifies the email/password pair, creates a session, and issues
// an access token plus a single-use refresh token. Unknown users,
// inactive accounts, and password mismatches all fail with
// [ErrInvalidCredentials] so login responses never reveal whether an
// account exists.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*LoginResult, error) {
	if e == nil || e.passwordHash == nil || e.userProvider == nil {
		return nil, ErrEngineNotReady
	}

	ip := clientIPFromContext(ctx)
	institutionID := institutionIDFromContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	if e.rateLimiter != nil {
		if err := e.rateLimiter.CheckLogin(ctx, email, ip); err != nil {
			e.metricInc(MetricLoginRateLimited)
			e.emitRateLimit(ctx, "login", institutionID, func() map[string]string {
				return map[string]string{
					"identifier": email,
				}
			})
			return nil, ErrLoginRateLimited
		}
	}

	if email == "" || plaintext == "" {
		return nil, e.failLogin(ctx, email, "", institutionID, ip, "empty_credentials")
	}

	user, err := e.userProvider.GetUserByEmail(email)
	if err != nil {
		return nil, e.failLogin(ctx, email, "", institutionID, ip, "user_not_found")
	}

	ok, err := e.passwordHash.Verify(plaintext, user.PasswordHash)
	if err != nil || !ok {
		return nil, e.failLogin(ctx, email, user.UserID, institutionID, ip, "password_mismatch")
	}

	if !user.Active {
		return nil, e.failLogin(ctx, email, user.UserID, institutionID, ip, "account_inactive")
	}

	role, ok := permission.Normalize(user.Role)
	if !ok {
		return nil, e.failLogin(ctx, email, user.UserID, institutionID, ip, "unknown_role")
	}
	mask, ok := e.resolver.Mask(role)
	if !ok {
		return nil, e.failLogin(ctx, email, user.UserID, institutionID, ip, "role_mask_missing")
	}

	if user.InstitutionID != "" {
		institutionID = user.InstitutionID
	}

	if e.config.Password.UpgradeOnLogin {
		if needsUpgrade, err := e.passwordHash.NeedsUpgrade(user.PasswordHash); err == nil && needsUpgrade {
			if upgradedHash, err := e.passwordHash.Hash(plaintext); err == nil {
				// Rehash update is best-effort and must not block login.
				if err := e.userProvider.UpdatePasswordHash(user.UserID, upgradedHash); err != nil {
					log.Print("portalauth: password hash upgrade update failed")
				} else {
					e.metricInc(MetricPasswordUpgraded)
				}
			} else {
				log.Print("portalauth: password hash upgrade generation failed")
			}
		}
	}
	plaintext = ""

	sessionID, err := internal.NewSessionID()
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}

	now := time.Now()
	lifetime := e.config.Session.AbsoluteSessionLifetime

	sess := &session.Session{
		SessionID:      sessionID,
		UserID:         user.UserID,
		InstitutionID:  institutionID,
		Email:          user.Email,
		Role:           string(role),
		Mask:           mask,
		IP:             ip,
		UserAgent:      userAgentFromContext(ctx),
		CreatedAt:      now.Unix(),
		LastActivityAt: now.Unix(),
		ExpiresAt:      now.Add(lifetime).Unix(),
	}

	if err := e.sessionStore.Create(ctx, sess, lifetime); err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.UserID, institutionID, sessionID, err, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     "session_create_failed",
			}
		})
		if errors.Is(err, session.ErrRedisUnavailable) {
			return nil, ErrStoreUnavailable
		}
		return nil, err
	}

	refresh, err := e.issueRefreshToken(ctx, sess, now)
	if err != nil {
		_ = e.sessionStore.Delete(ctx, institutionID, sessionID)
		e.metricInc(MetricLoginFailure)
		return nil, err
	}

	access, err := e.issueAccessToken(sess)
	if err != nil {
		_ = e.sessionStore.Delete(ctx, institutionID, sessionID)
		e.metricInc(MetricLoginFailure)
		return nil, err
	}

	if e.rateLimiter != nil {
		// Counter reset is best-effort; a stale window only shortens the
		// budget for the next failures.
		if err := e.rateLimiter.ResetLogin(ctx, email, ip); err != nil {
			log.Print("portalauth: login limiter reset failed")
		}
	}

	e.metricInc(MetricSessionCreated)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.UserID, institutionID, sessionID, nil, func() map[string]string {
		return map[string]string{
			"identifier": email,
			"role":       string(role),
		}
	})

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(e.config.JWT.AccessTTL.Seconds()),
		SessionID:    sessionID,
		User:         *e.buildResult(sess),
	}, nil
}

func (e *Engine) failLogin(ctx context.Context, email, userID, institutionID, ip, reason string) error {
	if e.rateLimiter != nil {
		if err := e.rateLimiter.IncrementLogin(ctx, email, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricLoginRateLimited)
				e.emitRateLimit(ctx, "login", institutionID, func() map[string]string {
					return map[string]string{
						"identifier": email,
					}
				})
				return ErrLoginRateLimited
			}
			log.Print("portalauth: login limiter increment failed")
		}
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, userID, institutionID, "", ErrInvalidCredentials, func() map[string]string {
		return map[string]string{
			"identifier": email,
			"reason":     reason,
		}
	})
	return ErrInvalidCredentials
}

// Refresh exchanges a valid refresh token for a fresh access token and a
// new refresh token. Each token is single-use: concurrent calls with the
// same token produce exactly one winner. Presenting an already-consumed
// token fails with [ErrRefreshReuse] and invalidates the session it
// belonged to.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	institutionID := institutionIDFromContext(ctx)

	sessionID, err := internal.DecodeRefreshToken(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventValidationRejected, false, "", institutionID, "", ErrRefreshInvalid, func() map[string]string {
			return map[string]string{
				"reason": "refresh_decode_failed",
			}
		})
		return nil, ErrRefreshInvalid
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.CheckRefresh(ctx, sessionID); err != nil {
			e.metricInc(MetricRefreshRateLimited)
			e.emitRateLimit(ctx, "refresh", institutionID, func() map[string]string {
				return map[string]string{
					"session_id": sessionID,
				}
			})
			return nil, ErrRefreshRateLimited
		}
	}

	tokenHash := internal.HashToken(refreshToken)
	rec, sess, status, err := e.sessionStore.ConsumeRefresh(ctx, tokenHash, e.config.JWT.RefreshTTL)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		if errors.Is(err, session.ErrRedisUnavailable) {
			return nil, ErrStoreUnavailable
		}
		return nil, err
	}

	switch status {
	case session.ConsumeRotated:
		// Single winner; proceed.
	case session.ConsumeReplayed:
		// A consumed token came back. Treat the session it pointed at as
		// compromised and revoke it.
		e.metricInc(MetricRefreshReuseDetected)
		if rec != nil {
			if delErr := e.sessionStore.Delete(ctx, rec.InstitutionID, rec.SessionID); delErr != nil {
				log.Print("portalauth: session revocation after refresh reuse failed")
			} else {
				e.metricInc(MetricSessionInvalidated)
			}
			e.emitAudit(ctx, auditEventRefreshReuse, false, rec.UserID, rec.InstitutionID, rec.SessionID, ErrRefreshReuse, nil)
		} else {
			e.emitAudit(ctx, auditEventRefreshReuse, false, "", institutionID, sessionID, ErrRefreshReuse, nil)
		}
		return nil, ErrRefreshReuse
	default:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventValidationRejected, false, "", institutionID, sessionID, ErrRefreshInvalid, func() map[string]string {
			return map[string]string{
				"reason": "refresh_unknown",
			}
		})
		return nil, ErrRefreshInvalid
	}

	if sess == nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventValidationRejected, false, rec.UserID, rec.InstitutionID, rec.SessionID, ErrSessionNotFound, func() map[string]string {
			return map[string]string{
				"reason": "session_gone",
			}
		})
		return nil, ErrSessionNotFound
	}

	now := time.Now()
	refresh, err := e.issueRefreshToken(ctx, sess, now)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	access, err := e.issueAccessToken(sess)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	// Last-activity bump; absolute expiry is untouched.
	if err := e.sessionStore.Touch(ctx, sess.InstitutionID, sess.SessionID, now); err != nil {
		log.Print("portalauth: session touch failed on refresh")
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventTokenRefreshed, true, sess.UserID, sess.InstitutionID, sess.SessionID, nil, nil)

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(e.config.JWT.AccessTTL.Seconds()),
		SessionID:    sess.SessionID,
		User:         *e.buildResult(sess),
	}, nil
}

// ValidateOptions tunes a single Validate call.
type ValidateOptions struct {
	// Mode overrides the engine-wide validation mode for this call.
	Mode RouteMode

	// ExpiredGrace accepts tokens whose exp passed at most this long ago.
	// Used by logout-style endpoints that still need the claims.
	ExpiredGrace time.Duration
}

// ValidateAccess validates tokenStr under the engine-wide validation
// mode.
func (e *Engine) ValidateAccess(ctx context.Context, tokenStr string) (*AuthResult, error) {
	return e.Validate(ctx, tokenStr, ValidateOptions{Mode: ModeInherit})
}

// Validate checks an access token against the acceptance chain: signature
// and expiry, the revocation blacklist, and (in strict mode) session
// existence. On success it returns the resolved identity.
func (e *Engine) Validate(ctx context.Context, tokenStr string, opts ValidateOptions) (*AuthResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}()
	}

	res, err := e.validate(ctx, tokenStr, opts)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		return nil, err
	}
	e.metricInc(MetricValidateSuccess)
	return res, nil
}

func (e *Engine) validate(ctx context.Context, tokenStr string, opts ValidateOptions) (*AuthResult, error) {
	claims, err := e.jwtManager.ParseAccessWithGrace(tokenStr, opts.ExpiredGrace)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	mode, err := e.resolveRouteMode(opts.Mode)
	if err != nil {
		return nil, err
	}

	if mode == ModeJWTOnly {
		return e.buildResultFromClaims(claims), nil
	}

	tokenHash := internal.HashToken(tokenStr)
	revoked, err := e.sessionStore.IsBlacklisted(ctx, tokenHash)
	if err != nil {
		return nil, ErrStoreUnavailable
	}
	if revoked {
		e.metricInc(MetricTokenRevoked)
		e.emitAudit(ctx, auditEventValidationRejected, false, claims.UID, claims.Institution, claims.SID, ErrTokenRevoked, nil)
		return nil, ErrTokenRevoked
	}

	if mode == ModeHybrid {
		return e.buildResultFromClaims(claims), nil
	}

	sess, err := e.sessionStore.Get(ctx, claims.Institution, claims.SID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			e.emitAudit(ctx, auditEventValidationRejected, false, claims.UID, claims.Institution, claims.SID, ErrSessionNotFound, nil)
			return nil, ErrSessionNotFound
		}
		return nil, ErrStoreUnavailable
	}

	return e.buildResult(sess), nil
}

func (e *Engine) buildResult(s *session.Session) *AuthResult {
	res := &AuthResult{
		UserID:        s.UserID,
		InstitutionID: s.InstitutionID,
		Email:         s.Email,
		SessionID:     s.SessionID,
		Mask:          s.Mask,
	}

	if e.config.Result.IncludeRole {
		res.Role = s.Role
	}

	if e.config.Result.IncludePermissions {
		if role, ok := permission.Normalize(s.Role); ok {
			res.Permissions = e.resolver.Permissions(role)
		}
	}

	return res
}

func (e *Engine) buildResultFromClaims(claims *jwt.AccessClaims) *AuthResult {
	res := &AuthResult{
		UserID:        claims.UID,
		InstitutionID: claims.Institution,
		Email:         claims.Email,
		SessionID:     claims.SID,
	}

	if role, ok := permission.Normalize(claims.Role); ok {
		if mask, found := e.resolver.Mask(role); found {
			res.Mask = mask
		}
	}

	if e.config.Result.IncludeRole {
		res.Role = claims.Role
	}
	if e.config.Result.IncludePermissions {
		res.Permissions = claims.Permissions
	}

	return res
}

// HasPermission reports whether mask grants perm. The root bit grants
// everything.
func (e *Engine) HasPermission(mask permission.Mask64, perm string) bool {
	if e == nil || e.resolver == nil {
		return false
	}
	return e.resolver.MaskHasPermission(mask, perm)
}

func (e *Engine) issueAccessToken(sess *session.Session) (string, error) {
	var perms []string
	if role, ok := permission.Normalize(sess.Role); ok {
		perms = e.resolver.Permissions(role)
	}

	return e.jwtManager.CreateAccess(
		sess.UserID,
		sess.Email,
		sess.InstitutionID,
		sess.Role,
		perms,
		sess.SessionID,
	)
}

func (e *Engine) issueRefreshToken(ctx context.Context, sess *session.Session, now time.Time) (string, error) {
	secret, err := internal.NewRefreshSecret()
	if err != nil {
		return "", err
	}

	token, err := internal.EncodeRefreshToken(sess.SessionID, secret)
	if err != nil {
		return "", err
	}

	// A refresh token never outlives its session.
	ttl := e.config.JWT.RefreshTTL
	if remaining := time.Unix(sess.ExpiresAt, 0).Sub(now); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return "", ErrRefreshInvalid
	}

	rec := &session.RefreshRecord{
		SessionID:     sess.SessionID,
		UserID:        sess.UserID,
		InstitutionID: sess.InstitutionID,
		IssuedAt:      now.Unix(),
	}

	if err := e.sessionStore.SaveRefresh(ctx, internal.HashToken(token), rec, ttl); err != nil {
		if errors.Is(err, session.ErrRedisUnavailable) {
			return "", ErrStoreUnavailable
		}
		return "", err
	}

	return token, nil
}

// Logout deletes a single session. Deleting an already-gone session is
// not an error.
func (e *Engine) Logout(ctx context.Context, institutionID, sessionID string) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}
	if institutionID == "" {
		institutionID = institutionIDFromContext(ctx)
	}

	err := e.sessionStore.Delete(ctx, institutionID, sessionID)
	if err == nil {
		e.metricInc(MetricLogout)
		e.metricInc(MetricSessionInvalidated)
	} else if errors.Is(err, session.ErrRedisUnavailable) {
		err = ErrStoreUnavailable
	}
	e.emitAudit(ctx, auditEventLogout, err == nil, "", institutionID, sessionID, err, nil)
	return err
}

// LogoutByAccessToken blacklists the presented access token for its
// residual lifetime and deletes its session. The token is accepted even
// shortly after expiry so stale clients can still log out cleanly.
func (e *Engine) LogoutByAccessToken(ctx context.Context, tokenStr string) error {
	if e == nil || e.jwtManager == nil {
		return ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseAccessWithGrace(tokenStr, e.config.JWT.RefreshTTL)
	if err != nil {
		e.emitAudit(ctx, auditEventLogout, false, "", institutionIDFromContext(ctx), "", ErrTokenInvalid, func() map[string]string {
			return map[string]string{
				"reason": "invalid_access_token",
			}
		})
		return ErrTokenInvalid
	}

	if claims.ExpiresAt != nil {
		if residual := time.Until(claims.ExpiresAt.Time); residual > 0 {
			if err := e.sessionStore.BlacklistToken(ctx, internal.HashToken(tokenStr), residual); err != nil {
				log.Print("portalauth: access token blacklisting failed on logout")
			}
		}
	}

	return e.Logout(ctx, claims.Institution, claims.SID)
}

// LogoutAll deletes every session of the user within the institution.
func (e *Engine) LogoutAll(ctx context.Context, institutionID, userID string) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}
	if institutionID == "" {
		institutionID = institutionIDFromContext(ctx)
	}

	err := e.sessionStore.DeleteAllForUser(ctx, institutionID, userID)
	if err == nil {
		e.metricInc(MetricLogoutAll)
		e.metricInc(MetricSessionInvalidated)
	} else if errors.Is(err, session.ErrRedisUnavailable) {
		err = ErrStoreUnavailable
	}
	e.emitAudit(ctx, auditEventLogoutAll, err == nil, userID, institutionID, "", err, nil)
	return err
}

// Sessions lists the user's live sessions, most useful for an "active
// devices" screen. Expired entries are filtered out.
func (e *Engine) Sessions(ctx context.Context, institutionID, userID string) ([]SessionInfo, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}
	if institutionID == "" {
		institutionID = institutionIDFromContext(ctx)
	}

	sessions, err := e.sessionStore.ListByUser(ctx, institutionID, userID)
	if err != nil {
		if errors.Is(err, session.ErrRedisUnavailable) {
			return nil, ErrStoreUnavailable
		}
		return nil, err
	}

	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, SessionInfo{
			SessionID:      s.SessionID,
			IP:             s.IP,
			UserAgent:      s.UserAgent,
			CreatedAt:      time.Unix(s.CreatedAt, 0),
			LastActivityAt: time.Unix(s.LastActivityAt, 0),
			ExpiresAt:      time.Unix(s.ExpiresAt, 0),
		})
	}
	return infos, nil
}

// ChangePassword verifies the old password, rejects reuse, swaps the
// stored hash, and logs the user out everywhere.
func (e *Engine) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if e == nil || e.passwordHash == nil || e.userProvider == nil {
		return ErrEngineNotReady
	}
	if userID == "" || oldPassword == "" || newPassword == "" {
		e.emitAudit(ctx, auditEventPasswordChanged, false, userID, "", "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{
				"reason": "invalid_input",
			}
		})
		return ErrPasswordPolicy
	}

	user, err := e.userProvider.GetUserByID(userID)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordChanged, false, userID, "", "", ErrUserNotFound, func() map[string]string {
			return map[string]string{
				"reason": "user_not_found",
			}
		})
		return ErrUserNotFound
	}
	if !user.Active {
		e.emitAudit(ctx, auditEventPasswordChanged, false, userID, user.InstitutionID, "", ErrAccountDisabled, func() map[string]string {
			return map[string]string{
				"reason": "account_inactive",
			}
		})
		return ErrAccountDisabled
	}

	oldOK, err := e.passwordHash.Verify(oldPassword, user.PasswordHash)
	if err != nil || !oldOK {
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChanged, false, userID, user.InstitutionID, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "invalid_old_password",
			}
		})
		return ErrInvalidCredentials
	}

	samePassword, err := e.passwordHash.Verify(newPassword, user.PasswordHash)
	if err == nil && samePassword {
		e.metricInc(MetricPasswordChangeReuseRejected)
		e.emitAudit(ctx, auditEventPasswordChanged, false, userID, user.InstitutionID, "", ErrPasswordReuse, nil)
		return ErrPasswordReuse
	}

	newHash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordChanged, false, userID, user.InstitutionID, "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{
				"reason": "hash_policy",
			}
		})
		return ErrPasswordPolicy
	}

	if err := e.userProvider.UpdatePasswordHash(userID, newHash); err != nil {
		e.emitAudit(ctx, auditEventPasswordChanged, false, userID, user.InstitutionID, "", err, func() map[string]string {
			return map[string]string{
				"reason": "update_hash_failed",
			}
		})
		return err
	}

	institutionID := user.InstitutionID
	if institutionID == "" {
		institutionID = institutionIDFromContext(ctx)
	}

	if err := e.LogoutAll(ctx, institutionID, userID); err != nil {
		log.Print("portalauth: session invalidation failed after password change")
		e.emitAudit(ctx, auditEventPasswordChanged, false, userID, institutionID, "", ErrSessionInvalidationFailed, func() map[string]string {
			return map[string]string{
				"reason": "session_invalidation_failed",
			}
		})
		return errors.Join(ErrSessionInvalidationFailed, err)
	}

	if e.rateLimiter != nil {
		// Limiter reset is best-effort and must not block the change.
		if err := e.rateLimiter.ResetLogin(ctx, user.Email, clientIPFromContext(ctx)); err != nil {
			log.Print("portalauth: login limiter reset failed after password change")
		}
	}

	oldPassword = ""
	newPassword = ""
	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChanged, true, userID, institutionID, "", nil, nil)

	return nil
}

func (e *Engine) resolveRouteMode(routeMode RouteMode) (ValidationMode, error) {
	switch routeMode {
	case ModeInherit:
		switch e.config.ValidationMode {
		case ModeJWTOnly:
			return ModeJWTOnly, nil
		case ModeHybrid:
			return ModeHybrid, nil
		case ModeStrict:
			return ModeStrict, nil
		default:
			return 0, ErrInvalidRouteMode
		}
	case ModeJWTOnly:
		return ModeJWTOnly, nil
	case ModeHybrid:
		return ModeHybrid, nil
	case ModeStrict:
		return ModeStrict, nil
	default:
		return 0, ErrInvalidRouteMode
	}
}
