package service

import (
	"context"

	"github.com/layer-3/walletauth/core"
)

// credentialState is what the guard learned about one token
type credentialState int

const (
	credentialUnchecked credentialState = iota
	credentialAbsent
	credentialValid
	credentialInvalid
)

// GuardDecision is the terminal state of the session guard for a request
type GuardDecision int

const (
	GuardReject GuardDecision = iota
	GuardProceed
	GuardRotate
)

func (d GuardDecision) String() string {
	switch d {
	case GuardProceed:
		return "proceed"
	case GuardRotate:
		return "rotate"
	default:
		return "reject"
	}
}

const (
	ReasonNoAccessToken   = "no access token"
	ReasonNoRefreshToken  = "no refresh token"
	ReasonRefreshRejected = "refresh token invalid or expired"
)

type guardKey struct {
	access  credentialState
	refresh credentialState
}

type guardRow struct {
	decision     GuardDecision
	reason       string
	clearAccess  bool
	clearRefresh bool
}

// guardTable is the complete session guard state machine. The refresh token
// is only examined once the access token has failed.
var guardTable = map[guardKey]guardRow{
	{credentialAbsent, credentialUnchecked}: {decision: GuardReject, reason: ReasonNoAccessToken},
	{credentialValid, credentialUnchecked}:  {decision: GuardProceed},
	{credentialInvalid, credentialAbsent}:   {decision: GuardReject, reason: ReasonNoRefreshToken, clearAccess: true, clearRefresh: true},
	{credentialInvalid, credentialInvalid}:  {decision: GuardReject, reason: ReasonRefreshRejected, clearAccess: true, clearRefresh: true},
	{credentialInvalid, credentialValid}:    {decision: GuardRotate},
}

// GuardResult tells the transport what to do with a request
type GuardResult struct {
	Decision GuardDecision
	Reason   string

	// Address is set when the request may proceed
	Address string

	// AccessToken is the freshly minted replacement when Decision is GuardRotate
	AccessToken  string
	AccessClaims *core.Claims

	ClearAccess  bool
	ClearRefresh bool
}

// Authenticated reports whether the request may proceed
func (r GuardResult) Authenticated() bool {
	return r.Decision == GuardProceed || r.Decision == GuardRotate
}

// Guard evaluates the credentials of a request. Empty strings mean the
// credential was not sent.
func (s *AuthService) Guard(ctx context.Context, accessToken, refreshToken string) GuardResult {
	key := guardKey{access: credentialAbsent, refresh: credentialUnchecked}
	var claims *core.Claims

	if accessToken != "" {
		var err error
		claims, err = s.tokenizer.Verify(accessToken, core.RoleAccess)
		if err == nil {
			key.access = credentialValid
		} else {
			key.access = credentialInvalid
			key.refresh, claims = s.checkRefresh(refreshToken)
		}
	}

	row, ok := guardTable[key]
	if !ok {
		return GuardResult{Decision: GuardReject, Reason: ReasonNoAccessToken, ClearAccess: true, ClearRefresh: true}
	}

	result := GuardResult{
		Decision:     row.decision,
		Reason:       row.reason,
		ClearAccess:  row.clearAccess,
		ClearRefresh: row.clearRefresh,
	}

	switch row.decision {
	case GuardProceed:
		result.Address = claims.Address
	case GuardRotate:
		token, accessClaims, err := s.tokenizer.IssueAccessToken(claims.Address)
		if err != nil {
			s.log(ctx).ErrorContext(ctx, "failed to rotate access token", "address", claims.Address, "error", err)
			return GuardResult{Decision: GuardReject, Reason: ReasonRefreshRejected, ClearAccess: true, ClearRefresh: true}
		}
		result.Address = claims.Address
		result.AccessToken = token
		result.AccessClaims = accessClaims
	}

	return result
}

func (s *AuthService) checkRefresh(refreshToken string) (credentialState, *core.Claims) {
	if refreshToken == "" {
		return credentialAbsent, nil
	}

	claims, err := s.tokenizer.Verify(refreshToken, core.RoleRefresh)
	if err != nil {
		return credentialInvalid, nil
	}
	return credentialValid, claims
}
