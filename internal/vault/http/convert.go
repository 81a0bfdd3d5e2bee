package http

import (
	"github.com/aussiebroadwan/credvault/internal/vault/domain"
	"github.com/aussiebroadwan/credvault/pkg/vaultsdk"
)

func toProfile(p *domain.Profile) *vaultsdk.Profile {
	if p == nil {
		return nil
	}
	return &vaultsdk.Profile{ID: p.ID, Name: p.Name}
}

func toAuthStatus(s domain.AuthStatus) vaultsdk.AuthStatus {
	return vaultsdk.AuthStatus{
		UserID:        s.UserID,
		Registered:    s.Registered,
		Email:         s.Email,
		Authenticated: s.Authenticated(),
		HasAPIKey:     s.HasAPIKey,
		HasToken:      s.HasToken,
		Profile:       toProfile(s.Profile),
	}
}

func toHandshakeStatus(s domain.HandshakeStatus) vaultsdk.HandshakeStatusResponse {
	out := vaultsdk.HandshakeStatusResponse{
		UserID:        s.UserID,
		State:         string(s.State),
		Authenticated: s.Authenticated(),
		Registered:    s.Registered,
		APIKeyStored:  s.HasAPIKey,
		TokenStored:   s.HasToken,
		Profile:       toProfile(s.Profile),
	}
	if s.Session != nil {
		out.Session = &vaultsdk.HandshakeSession{
			AttemptID:  s.Session.AttemptID,
			State:      string(s.Session.State),
			AuthURL:    s.Session.AuthURL,
			Reason:     s.Session.Reason,
			StartedAt:  s.Session.StartedAt,
			FinishedAt: s.Session.FinishedAt,
		}
	}
	return out
}

func toDebugStatus(s domain.DebugStatus) vaultsdk.DebugStatusResponse {
	return vaultsdk.DebugStatusResponse{
		UserExists:        s.UserExists,
		Email:             s.Email,
		HasAPIKey:         s.HasAPIKey,
		HasToken:          s.HasToken,
		HasUserInfo:       s.HasProfile,
		APIKeyDecryptable: s.APIKeyDecryptable,
		TokenDecryptable:  s.TokenDecryptable,
	}
}
